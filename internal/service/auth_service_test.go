package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userhub/internal/blacklist"
	"userhub/internal/cache"
	"userhub/internal/models"
	"userhub/internal/repository"
	"userhub/internal/security"
)

// memStore is an in-memory UserStore with the same contract as the Postgres
// repository: sentinel errors, soft-delete filtering, unique emails.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]models.User
}

func newMemStore(seed ...models.User) *memStore {
	s := &memStore{users: make(map[int64]models.User)}
	for _, u := range seed {
		if u.ID > s.nextID {
			s.nextID = u.ID
		}
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.DeletedAt == nil && strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrEmailTaken
		}
	}

	s.nextID++
	user.ID = s.nextID
	user.IsActive = true
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *memStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.DeletedAt == nil && strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *memStore) GetByID(_ context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *memStore) Update(_ context.Context, id int64, patch repository.UserPatch) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return models.User{}, repository.ErrUserNotFound
	}

	if patch.Email != nil {
		for otherID, other := range s.users {
			if otherID != id && other.DeletedAt == nil && strings.EqualFold(other.Email, *patch.Email) {
				return models.User{}, repository.ErrEmailTaken
			}
		}
		u.Email = *patch.Email
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.AvatarURL != nil {
		u.AvatarURL = patch.AvatarURL
	}
	if patch.Bio != nil {
		u.Bio = patch.Bio
	}
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return u, nil
}

func (s *memStore) SoftDelete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return repository.ErrUserNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	s.users[id] = u
	return nil
}

func (s *memStore) IncrementTokenVersion(_ context.Context, id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return 0, repository.ErrUserNotFound
	}
	u.TokenVersion++
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return u.TokenVersion, nil
}

func (s *memStore) List(_ context.Context, filter repository.ListFilter) ([]models.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if u.DeletedAt != nil {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.Email != "" && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(filter.Email)) {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if filter.Offset >= total {
		return []models.User{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func newAuthFixture() (*AuthService, *memStore, *security.TokenCodec) {
	store := newMemStore()
	codec := security.NewTokenCodec("svc-secret", "userhub", 15*time.Minute, 24*time.Hour)
	auth := NewAuthService(store, codec, blacklist.New(nil, zerolog.Nop()), cache.NewStore(nil, zerolog.Nop()), zerolog.Nop())
	return auth, store, codec
}

func TestAuthService_RegisterAndAuthenticate(t *testing.T) {
	t.Parallel()

	auth, _, _ := newAuthFixture()
	ctx := context.Background()

	user, err := auth.Register(ctx, RegisterInput{
		Name:     "Alice",
		Email:    "  Alice@Example.COM ",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.UserRoleUser, user.Role)
	assert.Zero(t, user.TokenVersion)

	_, err = auth.Register(ctx, RegisterInput{Name: "Dup", Email: "alice@example.com", Password: "other-pass"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := auth.Authenticate(ctx, "ALICE@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = auth.Authenticate(ctx, "alice@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Authenticate(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RegisterRoleSelection(t *testing.T) {
	t.Parallel()

	auth, _, _ := newAuthFixture()
	ctx := context.Background()

	admin, err := auth.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "pass-1", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAdmin, admin.Role)

	fallback, err := auth.Register(ctx, RegisterInput{Name: "B", Email: "b@example.com", Password: "pass-2", Role: "owner"})
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleUser, fallback.Role)
}

func TestAuthService_Rotate(t *testing.T) {
	t.Parallel()

	auth, store, codec := newAuthFixture()
	ctx := context.Background()

	user, err := auth.Register(ctx, RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	t.Run("access token rejected", func(t *testing.T) {
		access, err := codec.IssueAccess(user, "")
		require.NoError(t, err)

		_, err = auth.Rotate(ctx, access, "")
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("unknown user", func(t *testing.T) {
		refresh, err := codec.IssueRefresh(models.User{ID: 404}, "")
		require.NoError(t, err)

		_, err = auth.Rotate(ctx, refresh, "")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("stale version", func(t *testing.T) {
		stale, err := codec.IssueRefresh(user, "")
		require.NoError(t, err)

		_, err = store.IncrementTokenVersion(ctx, user.ID)
		require.NoError(t, err)

		_, err = auth.Rotate(ctx, stale, "")
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})
}

func TestAuthService_RotateInvalidatesOldPair(t *testing.T) {
	t.Parallel()

	auth, store, codec := newAuthFixture()
	ctx := context.Background()

	user, err := auth.Register(ctx, RegisterInput{Name: "Carol", Email: "carol@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	oldRefresh, err := codec.IssueRefresh(user, "")
	require.NoError(t, err)

	pair, err := auth.Rotate(ctx, oldRefresh, "")
	require.NoError(t, err)

	// The new pair carries the bumped version.
	claims, err := codec.Parse(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.TokenVersion+1, claims.Version)

	current, err := store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, claims.Version, current.TokenVersion)

	// The rotated-away refresh token is dead.
	_, err = auth.Rotate(ctx, oldRefresh, "")
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// And the new one still works.
	_, err = auth.Rotate(ctx, pair.RefreshToken, "")
	assert.NoError(t, err)
}
