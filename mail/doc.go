// Package mail delivers operational email for the authentication engine.
//
// # Design
//
// Sender wraps an SMTP client (wneessen/go-mail) configured once at
// construction: opportunistic STARTTLS, plain auth when a username is
// set. ComposePasswordReset renders the password reset message in both
// plain text and HTML from an embedded template so the engine never
// carries markup.
//
// # What this package must NOT do
//
//   - Decide WHEN email is sent or treat a failure as recoverable; the
//     engine owns that policy.
//   - Import authcore or any of its sibling packages.
//   - Log message contents or recipient lists.
package mail
