package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"japa/cmd/security/password"
)

const maxDisplayNameRunes = 100

// RegisterInput is a phone + PIN registration. DisplayName is optional.
type RegisterInput struct {
	Phone       string
	PIN         string
	DisplayName *string
	Now         time.Time
}

// CredentialStore registers users and verifies their PINs.
type CredentialStore struct {
	store  Store
	hasher *password.Hasher
}

// NewCredentialStore wires a Store to a PIN hasher.
func NewCredentialStore(store Store, hasher *password.Hasher) *CredentialStore {
	return &CredentialStore{store: store, hasher: hasher}
}

// Register creates the user for in.Phone, or replaces the PIN of the existing one.
//
// A blank or missing display name leaves a previously stored name untouched.
func (c *CredentialStore) Register(ctx context.Context, in RegisterInput) (User, error) {
	const op = "identity.Register"

	if in.Phone == "" {
		return User{}, invalid(op, "phone is required")
	}
	if in.PIN == "" {
		return User{}, invalid(op, "pin is required")
	}
	phone, ok := NormalizePhone(in.Phone)
	if !ok {
		return User{}, invalid(op, "phone is not a valid number")
	}
	if err := c.hasher.Validate(in.PIN); err != nil {
		return User{}, invalid(op, err.Error())
	}

	name := normalizeDisplayName(in.DisplayName)
	if name != nil && utf8.RuneCountInString(*name) > maxDisplayNameRunes {
		return User{}, invalid(op, "display name too long")
	}

	hash, err := c.hasher.Hash(ctx, in.PIN)
	if err != nil {
		return User{}, fmt.Errorf("%s: hash pin: %w", op, err)
	}

	return c.store.UpsertUser(ctx, UpsertUserInput{
		Phone:       phone,
		PINHash:     hash,
		DisplayName: name,
		Now:         in.Now,
	})
}

// Verify returns the user for phone if pin matches the last registered PIN.
//
// Errors: ErrInvalidInput for missing fields, ErrNotFound for an unknown
// phone, ErrUnauthorized for a wrong PIN. Anything else is internal.
func (c *CredentialStore) Verify(ctx context.Context, phone, pin string) (User, error) {
	const op = "identity.Verify"

	if phone == "" || pin == "" {
		return User{}, invalid(op, "phone and pin are required")
	}
	norm, ok := NormalizePhone(phone)
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}

	ua, err := c.store.GetUserAuthByPhone(ctx, norm)
	if err != nil {
		return User{}, err
	}

	match, err := c.hasher.Verify(ctx, ua.PINHash, pin)
	if err != nil {
		if errors.Is(err, password.ErrInvalidHash) {
			return User{}, fmt.Errorf("%s: stored hash for user %s: %w", op, ua.User.ID, err)
		}
		return User{}, err
	}
	if !match {
		return User{}, OpError{Op: op, Kind: ErrUnauthorized, Msg: "pin mismatch"}
	}
	return ua.User, nil
}

// Authenticate implements Authenticator for phone + PIN credentials.
func (c *CredentialStore) Authenticate(ctx context.Context, cred Credential) (User, error) {
	return c.Verify(ctx, cred.Phone, cred.PIN)
}
