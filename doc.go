// Package authcore provides a JWT authentication and user-management engine
// with Argon2id credential verification, access/refresh token issuance,
// blacklist-based revocation, and TOTP two-factor enrollment.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// the [Store] contract, and value types (Identity, Claims, MetricsSnapshot,
// the audit event aliases). All internal coordination — audit dispatch, rate
// limiting — lives under internal/ and is never exported. Store
// implementations live under store/ and depend on this package, never the
// other way around.
//
// # What this package must NOT do
//
//   - Expose database clients, hashing internals, or token encoding details
//     in its public API.
//   - Perform I/O outside of Engine methods and EnsureAdmin (construction via
//     Builder is allocation-only until Build).
//   - Import any sub-package that re-imports authcore (no import cycles).
//
// # Performance contract
//
// Validate is the hot path. It performs exactly one store round-trip (the
// blacklist membership check) before decoding; it never loads the identity
// record. Login, Register, and the password flows are allowed the store
// round-trips their semantics require, plus one Argon2 hash or verify.
package authcore
