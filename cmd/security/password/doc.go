// Package password hashes and verifies the numeric PINs users log in with.
//
// New hashes use Argon2id in a PHC-like encoded string by default; bcrypt can be
// selected instead. Verify dispatches on the encoded prefix, so bcrypt hashes
// written by earlier deployments keep verifying after the default changes.
//
// Security notes:
// - Hash strings are treated as untrusted input during Verify and are validated accordingly.
// - Verification refuses hashes with parameters that exceed reasonable bounds.
// - Hasher bounds how many hash computations run at once.
package password
