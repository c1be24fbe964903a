package identity

import "context"

// Credential carries whatever a login path presents. Each Authenticator reads
// only the fields it understands.
type Credential struct {
	Phone   string
	PIN     string
	IDToken string
}

// Authenticator resolves a credential to a registered User.
//
// Implementations report ErrInvalidInput, ErrNotFound or ErrUnauthorized
// through errors.Is; any other error is internal.
type Authenticator interface {
	Authenticate(ctx context.Context, cred Credential) (User, error)
}

var (
	_ Authenticator = (*CredentialStore)(nil)
	_ Authenticator = (*ProviderAuthenticator)(nil)
)
