// Package rate provides an in-process fixed-window attempt limiter for
// security-sensitive authentication workflows.
//
// # Window semantics
//
// Counters are keyed by (bucket, key): the bucket names the operation
// ("login", "reset") and the key identifies the caller (normalized email).
// The first attempt in a window starts the cooldown clock; the counter
// resets when the window elapses. Stale windows are dropped lazily on the
// next touch, with an inline prune once the map grows past a threshold.
//
// # What this package must NOT do
//
//   - Decide which operations are limited (the engine does).
//   - Share state across processes; a multi-replica deployment needs a
//     store-backed limiter in front of the engine.
//   - Be imported outside the authcore module.
package rate
