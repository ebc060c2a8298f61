// Package jwt manages access, refresh, and reset token issuance and verification
// using a symmetric signing key and strict validation semantics suitable for
// low-latency authentication paths.
package jwt
