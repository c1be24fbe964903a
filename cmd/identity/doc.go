// Package identity owns the user record and the credentials that prove it.
//
// CredentialStore registers users by phone number and verifies their PINs.
// ProviderAuthenticator accepts identity tokens minted by an external
// provider instead. Both resolve to the same User, keyed by phone, so
// sessions and ledgers downstream never see which path was used.
package identity
