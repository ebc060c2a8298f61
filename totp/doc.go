// Package totp implements RFC 6238 time-based one-time passwords for two-factor
// enrollment and verification, including provisioning URIs and QR payloads.
package totp
