// Package token provides session-token digest primitives.
//
// Session rows never hold a bearer token in plaintext; they hold a digest
// produced here and compared in constant time.
//
// Modes:
// - Dev mode: SHA-256(token) when no HMAC key is configured.
// - Production mode: HMAC-SHA256(token, key), enforced by JAPA_REQUIRE_TOKEN_HMAC.
//
// Output is always 64-char lowercase hex.
//
// Environment:
// - JAPA_TOKEN_HMAC_KEY: when set, enables HMAC mode.
package token
