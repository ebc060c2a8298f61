// Package memstore provides the in-memory reference implementation of the
// authcore store contract.
//
// # Design
//
// Identities are held in mutex-guarded maps with a lowercase-email index.
// Update applies the caller's mutation under the write lock, giving the
// same read-modify-write atomicity the engine relies on from the durable
// stores. The token blacklist is a plain map from token to expiry.
//
// # What this package must NOT do
//
//   - Enforce business rules (soft-delete checks, role checks); those belong
//     to the engine.
//   - Persist anything across process restarts.
package memstore
