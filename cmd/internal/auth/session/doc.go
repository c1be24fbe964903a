// Package session issues and validates login sessions.
//
// Each user has at most one session. A token is a PASETO v4.public blob
// carrying uid, phone, a random jti and an expiry, signed with the server
// key. The server also keeps one row per user holding a digest of the
// current token; a new login overwrites that row, which revokes the older
// token even though its signature is still good.
//
// Validation checks the signature first and the stored row second, so
// tampered tokens are rejected without touching storage.
//
// Transport (HTTP) integration lives elsewhere.
package session
