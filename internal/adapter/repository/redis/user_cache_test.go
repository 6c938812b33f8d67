package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/goexpense/internal/domain"
)

type countingUserRepo struct {
	users   map[string]*domain.User
	byIDs   int
	byEmail int
}

func newCountingUserRepo(users ...*domain.User) *countingUserRepo {
	r := &countingUserRepo{users: map[string]*domain.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *countingUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *countingUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.byIDs++
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *countingUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.byEmail++
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *countingUserRepo) List(context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

var mary = &domain.User{
	ID:        "u-mary",
	Email:     "mary@example.com",
	Name:      "Mary",
	Role:      domain.RoleManager,
	CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
}

func TestCachedUserRepository_ReadThrough(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	inner := newCountingUserRepo(mary)
	repo := NewCachedUserRepository(inner, NewCache(client), time.Minute)
	ctx := context.Background()

	first, err := repo.GetByID(ctx, mary.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, mary.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.byIDs, "second lookup should be served from cache")
	assert.Equal(t, mary.Role, second.Role)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

	// The id lookup primed the email key too.
	byEmail, err := repo.GetByEmail(ctx, mary.Email)
	require.NoError(t, err)
	assert.Equal(t, mary.ID, byEmail.ID)
	assert.Equal(t, 0, inner.byEmail)
}

func TestCachedUserRepository_MissesAreNotCached(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	inner := newCountingUserRepo()
	repo := NewCachedUserRepository(inner, NewCache(client), time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := repo.GetByID(ctx, "ghost")
		assert.True(t, errors.Is(err, domain.ErrUserNotFound))
	}
	assert.Equal(t, 2, inner.byIDs)
}

func TestCachedUserRepository_CreatePrimesAndInvalidateDrops(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	inner := newCountingUserRepo()
	repo := NewCachedUserRepository(inner, NewCache(client), time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, mary))
	_, err := repo.GetByID(ctx, mary.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, inner.byIDs)

	require.NoError(t, repo.Invalidate(ctx, mary))
	_, err = repo.GetByID(ctx, mary.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.byIDs)
}

func TestCachedUserRepository_FallsBackWhenRedisDown(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	inner := newCountingUserRepo(mary)
	repo := NewCachedUserRepository(inner, NewCache(client), time.Minute)
	mr.Close()

	user, err := repo.GetByID(context.Background(), mary.ID)
	require.NoError(t, err)
	assert.Equal(t, mary.ID, user.ID)
	assert.Equal(t, 1, inner.byIDs)
}

func TestCachedUserRepository_TTL(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	inner := newCountingUserRepo(mary)
	repo := NewCachedUserRepository(inner, NewCache(client), time.Minute)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, mary.ID)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = repo.GetByID(ctx, mary.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.byIDs)
}
