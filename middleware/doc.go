// Package middleware exposes HTTP middleware adapters enforcing bearer-token
// authentication and role checks on top of authcore.Engine validation.
//
// # Guards
//
//   - [Authenticate] — reads the Authorization header, validates the token
//     (revocation list first, then signature and expiry), and injects the
//     verified claims plus client IP and User-Agent into the request context.
//   - [RequireAdmin] — rejects requests whose injected claims lack the admin
//     role; chain it after [Authenticate].
//
// Failures are written as the uniform JSON error envelope with the status
// code derived from the error kind.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Validate and the role policy.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Touch the identity store (Engine handles I/O).
//   - Make authorization decisions beyond what claims and the role policy
//     express.
package middleware
