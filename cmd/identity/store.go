package identity

import (
	"context"
	"time"
)

// User is the public projection of a registered user. It never carries the PIN hash.
type User struct {
	ID          string
	Phone       string
	DisplayName *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserAuth pairs a user with its stored credential for verification.
type UserAuth struct {
	User    User
	PINHash string
}

// UpsertUserInput creates a user or replaces the credential of an existing one.
// A nil DisplayName keeps whatever name is already stored.
type UpsertUserInput struct {
	Phone       string
	PINHash     string
	DisplayName *string
	Now         time.Time
}

// Store is the user persistence boundary.
//
// UpsertUser must be atomic per phone: concurrent registrations of the same
// phone end with exactly one row.
type Store interface {
	UpsertUser(ctx context.Context, in UpsertUserInput) (User, error)
	GetUserAuthByPhone(ctx context.Context, phone string) (UserAuth, error)
	GetUserByPhone(ctx context.Context, phone string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
}
