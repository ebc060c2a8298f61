// Package redistore implements the authcore store contract on Redis.
//
// # Design
//
// Identities are JSON documents under "user:id:<id>" with a lowercase-email
// index at "user:email:<email>". Insert and Update use WATCH/MULTI
// optimistic transactions with automatic retry on contention, so the
// engine's read-modify-write semantics hold under concurrent writers.
//
// The token blacklist keeps one key per revoked token for O(1) membership
// checks plus a sorted-set expiry index consumed by the sweep. Entries carry
// no Redis TTL: removal belongs to the sweep, keeping a revoked token
// observable as revoked until then.
//
// # What this package must NOT do
//
//   - Make authentication decisions or inspect token contents.
//   - Log identity documents or password hashes.
package redistore
