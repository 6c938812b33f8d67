package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

// CachedUserRepository is a read-through cache in front of the user directory.
// Misses and cache failures fall back to the wrapped repository; only found
// users are cached.
type CachedUserRepository struct {
	next   usecase.UserRepository
	cache  *Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedUserRepository wraps next with cache.
func NewCachedUserRepository(next usecase.UserRepository, cache *Cache, ttl time.Duration) *CachedUserRepository {
	return &CachedUserRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: zerolog.Nop(),
	}
}

// WithLogger sets the logger used for cache failures.
func (r *CachedUserRepository) WithLogger(logger zerolog.Logger) *CachedUserRepository {
	r.logger = logger.With().Str("component", "user_cache").Logger()
	return r
}

type cachedUser struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func idKey(id string) string       { return "user:id:" + id }
func emailKey(email string) string { return "user:email:" + email }

// Create stores the user and primes the cache.
func (r *CachedUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.next.Create(ctx, user); err != nil {
		return err
	}
	r.store(ctx, user)
	return nil
}

// GetByID retrieves a user by ID.
func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.lookup(ctx, idKey(id), func() (*domain.User, error) {
		return r.next.GetByID(ctx, id)
	})
}

// GetByEmail retrieves a user by email.
func (r *CachedUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.lookup(ctx, emailKey(email), func() (*domain.User, error) {
		return r.next.GetByEmail(ctx, email)
	})
}

// List is never cached.
func (r *CachedUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	return r.next.List(ctx)
}

// Invalidate drops the cached entries of user.
func (r *CachedUserRepository) Invalidate(ctx context.Context, user *domain.User) error {
	return r.cache.Delete(ctx, idKey(user.ID), emailKey(user.Email))
}

func (r *CachedUserRepository) lookup(ctx context.Context, key string, load func() (*domain.User, error)) (*domain.User, error) {
	raw, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var cu cachedUser
		if jsonErr := json.Unmarshal([]byte(raw), &cu); jsonErr == nil {
			return &domain.User{
				ID:        cu.ID,
				Email:     cu.Email,
				Name:      cu.Name,
				Role:      cu.Role,
				CreatedAt: cu.CreatedAt,
			}, nil
		}
		r.logger.Warn().Str("key", key).Msg("dropping undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		r.logger.Warn().Err(err).Str("key", key).Msg("user cache unavailable")
	}

	user, err := load()
	if err != nil {
		return nil, err
	}
	r.store(ctx, user)
	return user, nil
}

func (r *CachedUserRepository) store(ctx context.Context, user *domain.User) {
	raw, err := json.Marshal(cachedUser{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return
	}

	for _, key := range []string{idKey(user.ID), emailKey(user.Email)} {
		if err := r.cache.Set(ctx, key, string(raw), r.ttl); err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("failed to cache user")
			return
		}
	}
}
