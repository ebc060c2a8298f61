// Package internal is the parent of helper packages that are intentionally
// private to authcore.
//
// # Sub-packages
//
//   - audit — async event dispatch (Dispatcher + the Sink implementations
//     re-exported at the module root)
//   - rate — fixed-window attempt counters backing login and reset
//     throttling
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API other than
//     through explicit aliases at the module root.
//   - Be imported by any package outside the authcore module.
package internal
