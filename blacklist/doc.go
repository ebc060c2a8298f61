// Package blacklist implements token revocation: a registry recording
// revoked tokens until their natural expiry, and a cron-driven sweeper that
// purges expired entries.
//
// Revocation is presence-based. A revoked token answers revoked until the
// sweep deletes its entry, which happens only after the token has expired
// anyway; the observable state then shifts from "revoked" to "expired" at
// the token layer.
package blacklist
