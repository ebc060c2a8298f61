// Package bunstore implements the authcore store contract on SQL databases
// through the Bun ORM, with a pure-Go SQLite path for embedding and tests.
//
// # Design
//
// One row per identity with a stored lowercase-email column carrying the
// uniqueness constraint. Update wraps select-mutate-update in a database
// transaction, matching the read-modify-write atomicity the engine expects.
// Revoked tokens live in their own table until the sweep deletes them.
//
// # What this package must NOT do
//
//   - Make authentication decisions or inspect token contents.
//   - Hide soft-deleted rows; visibility rules belong to the engine.
package bunstore
