package identity

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byPhone map[string]*memUser
	byID    map[string]*memUser
}

type memUser struct {
	user    User
	pinHash string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byPhone: make(map[string]*memUser),
		byID:    make(map[string]*memUser),
	}
}

// UpsertUser implements Store.
func (s *MemoryStore) UpsertUser(ctx context.Context, in UpsertUserInput) (User, error) {
	const op = "identity.MemoryStore.UpsertUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if in.Phone == "" || in.PINHash == "" {
		return User{}, invalid(op, "phone and pin hash are required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.byPhone[in.Phone]; ok {
		u.pinHash = in.PINHash
		if in.DisplayName != nil {
			name := *in.DisplayName
			u.user.DisplayName = &name
		}
		u.user.UpdatedAt = now
		return cloneUser(u.user), nil
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	u := &memUser{
		user: User{
			ID:        id,
			Phone:     in.Phone,
			CreatedAt: now,
			UpdatedAt: now,
		},
		pinHash: in.PINHash,
	}
	if in.DisplayName != nil {
		name := *in.DisplayName
		u.user.DisplayName = &name
	}
	s.byPhone[in.Phone] = u
	s.byID[id] = u

	return cloneUser(u.user), nil
}

// GetUserAuthByPhone implements Store.
func (s *MemoryStore) GetUserAuthByPhone(ctx context.Context, phone string) (UserAuth, error) {
	if err := ctx.Err(); err != nil {
		return UserAuth{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byPhone[phone]
	if !ok {
		return UserAuth{}, NotFoundError{Op: "identity.MemoryStore.GetUserAuthByPhone", Resource: "user"}
	}
	return UserAuth{User: cloneUser(u.user), PINHash: u.pinHash}, nil
}

// GetUserByPhone implements Store.
func (s *MemoryStore) GetUserByPhone(ctx context.Context, phone string) (User, error) {
	ua, err := s.GetUserAuthByPhone(ctx, phone)
	if err != nil {
		return User{}, err
	}
	return ua.User, nil
}

// GetUserByID implements Store.
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, NotFoundError{Op: "identity.MemoryStore.GetUserByID", Resource: "user"}
	}
	return cloneUser(u.user), nil
}

// ListUsers returns every user ordered by id.
func (s *MemoryStore) ListUsers(ctx context.Context) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]User, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, cloneUser(u.user))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneUser(u User) User {
	if u.DisplayName != nil {
		name := *u.DisplayName
		u.DisplayName = &name
	}
	return u
}
