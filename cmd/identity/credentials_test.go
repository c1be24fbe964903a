package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"japa/cmd/security/password"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testHasher() *password.Hasher {
	cfg := password.DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	cfg.MaxConcurrent = 4
	return password.NewHasher(cfg)
}

func strPtr(s string) *string { return &s }

func TestRegister_ValidationErrors(t *testing.T) {
	t.Parallel()

	cs := NewCredentialStore(NewMemoryStore(), testHasher())
	ctx := context.Background()

	cases := []RegisterInput{
		{Phone: "", PIN: "2468"},
		{Phone: "+15550001", PIN: ""},
		{Phone: "call me", PIN: "2468"},
		{Phone: "+15550001", PIN: "12"},
		{Phone: "+15550001", PIN: "abcd"},
	}
	for _, in := range cases {
		_, err := cs.Register(ctx, in)
		require.True(t, IsInvalidInput(err), "input %+v: got %v", in, err)
	}
}

func TestRegister_ReRegisterPreservesDisplayName(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	cs := NewCredentialStore(store, testHasher())
	ctx := context.Background()

	first, err := cs.Register(ctx, RegisterInput{Phone: "+15550001", PIN: "2468", DisplayName: strPtr("Radha")})
	require.NoError(t, err)
	require.Equal(t, "Radha", *first.DisplayName)

	before, err := store.GetUserAuthByPhone(ctx, "+15550001")
	require.NoError(t, err)

	second, err := cs.Register(ctx, RegisterInput{Phone: "+15550001", PIN: "1357", DisplayName: strPtr("   ")})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.DisplayName)
	require.Equal(t, "Radha", *second.DisplayName)

	after, err := store.GetUserAuthByPhone(ctx, "+15550001")
	require.NoError(t, err)
	require.NotEqual(t, before.PINHash, after.PINHash)

	third, err := cs.Register(ctx, RegisterInput{Phone: "+15550001", PIN: "1357", DisplayName: strPtr("Radha Devi")})
	require.NoError(t, err)
	require.Equal(t, "Radha Devi", *third.DisplayName)
}

func TestVerify_OnlyLastRegisteredPINSucceeds(t *testing.T) {
	t.Parallel()

	cs := NewCredentialStore(NewMemoryStore(), testHasher())
	ctx := context.Background()

	_, err := cs.Register(ctx, RegisterInput{Phone: "+15550001", PIN: "2468"})
	require.NoError(t, err)

	u, err := cs.Verify(ctx, "+15550001", "2468")
	require.NoError(t, err)
	require.Equal(t, "+15550001", u.Phone)

	_, err = cs.Verify(ctx, "+15550001", "1111")
	require.True(t, IsUnauthorized(err), "got %v", err)

	_, err = cs.Register(ctx, RegisterInput{Phone: "+15550001", PIN: "9999"})
	require.NoError(t, err)

	_, err = cs.Verify(ctx, "+15550001", "2468")
	require.True(t, IsUnauthorized(err), "old pin must stop working, got %v", err)

	_, err = cs.Verify(ctx, "+1 555-0001", "9999")
	require.NoError(t, err, "formatting differences resolve to the same phone")
}

func TestVerify_UnknownPhoneIsNotFound(t *testing.T) {
	t.Parallel()

	cs := NewCredentialStore(NewMemoryStore(), testHasher())

	_, err := cs.Verify(context.Background(), "+15559999", "2468")
	require.True(t, IsNotFound(err), "got %v", err)

	_, err = cs.Verify(context.Background(), "", "2468")
	require.True(t, IsInvalidInput(err), "got %v", err)
}

func TestVerify_LegacyBcryptHash(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	legacy, err := bcrypt.GenerateFromPassword([]byte("4242"), bcrypt.MinCost)
	require.NoError(t, err)

	_, err = store.UpsertUser(context.Background(), UpsertUserInput{Phone: "+919800000001", PINHash: string(legacy)})
	require.NoError(t, err)

	cs := NewCredentialStore(store, testHasher())
	_, err = cs.Verify(context.Background(), "+919800000001", "4242")
	require.NoError(t, err)
}

func TestRegister_ConcurrentSamePhoneYieldsOneUser(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	cs := NewCredentialStore(store, testHasher())
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := cs.Register(ctx, RegisterInput{Phone: "+15550002", PIN: "2468", Now: time.Now().UTC()})
			if err == nil {
				ids <- u.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	require.Len(t, seen, 1)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}
