// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"natours_backend/internal/feature/auth/domain/entity"
	"natours_backend/internal/feature/auth/usecase"
)

// CachingUserRepository decorates a UserRepository with Redis caching of
// active-user lookups by ID, the read done on every authenticated request.
// Updates write the fresh projection through, reads only fill an absent key.
type CachingUserRepository struct {
	inner     usecase.UserRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.UserRepository = (*CachingUserRepository)(nil)

// NewCachingUserRepository decorates a UserRepository with Redis caching.
// If ttl is 0, it defaults to 1 minute. If namespace is empty, it uses "users".
func NewCachingUserRepository(rdb *redis.Client, ttl time.Duration, inner usecase.UserRepository, namespace string) *CachingUserRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if namespace == "" {
		namespace = "users"
	}
	return &CachingUserRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// cachedUser is the projection kept in Redis: the profile plus what the
// stale-token check needs. Password and reset digests are never cached.
type cachedUser struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Email             string      `json:"email"`
	Photo             string      `json:"photo"`
	Role              entity.Role `json:"role"`
	PasswordChangedAt *time.Time  `json:"password_changed_at,omitempty"`
	Active            bool        `json:"active"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

func fromEntity(u *entity.User) cachedUser {
	return cachedUser{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Photo:             u.Photo,
		Role:              u.Role,
		PasswordChangedAt: u.PasswordChangedAt,
		Active:            u.Active,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (c cachedUser) toEntity() *entity.User {
	return &entity.User{
		ID:                c.ID,
		Name:              c.Name,
		Email:             c.Email,
		Photo:             c.Photo,
		Role:              c.Role,
		PasswordChangedAt: c.PasswordChangedAt,
		Active:            c.Active,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// Create writes through to the underlying repository.
func (c *CachingUserRepository) Create(ctx context.Context, u *entity.User) error {
	return c.inner.Create(ctx, u)
}

// Update writes through and replaces the cached entry with the new row.
// A failed cache write is returned as an error after the entry is dropped.
func (c *CachingUserRepository) Update(ctx context.Context, u *entity.User) error {
	if err := c.inner.Update(ctx, u); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}
	key := c.cacheKey(u.ID)
	b, err := json.Marshal(fromEntity(u))
	if err == nil {
		err = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	if err != nil {
		// 古いエントリを残さないよう削除も試みる
		_ = c.rdb.Del(ctx, key).Err()
		return oops.Code("user_cache_write_failed").With("user_id", u.ID).Wrap(err)
	}
	return nil
}

// FindByID checks the cache first for active-user lookups, then falls back to the database.
func (c *CachingUserRepository) FindByID(ctx context.Context, id string, includeInactive bool) (*entity.User, error) {
	// Bypass cache if Redis is not configured or inactive users are wanted
	if c.rdb == nil || includeInactive {
		return c.inner.FindByID(ctx, id, includeInactive)
	}

	key := c.cacheKey(id)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var cu cachedUser
		if err := json.Unmarshal(b, &cu); err == nil {
			if !cu.Active {
				return nil, usecase.ErrUserNotFound
			}
			return cu.toEntity(), nil
		}
		// Delete corrupted cache entry
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			slog.WarnContext(ctx, "failed to delete corrupted user cache entry", "user_id", id, "error", err)
		}
	}

	// 2) Fallback to database
	u, err := c.inner.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	// 3) Fill only an absent key; a concurrent Update wins over this read
	if b, err := json.Marshal(fromEntity(u)); err == nil {
		if err := c.rdb.SetNX(ctx, key, b, c.ttl).Err(); err != nil {
			slog.WarnContext(ctx, "failed to fill user cache", "user_id", id, "error", err)
		}
	}
	return u, nil
}

func (c *CachingUserRepository) FindByEmail(ctx context.Context, email string, includeInactive bool) (*entity.User, error) {
	return c.inner.FindByEmail(ctx, email, includeInactive)
}

func (c *CachingUserRepository) FindByResetTokenHash(ctx context.Context, hash string) (*entity.User, error) {
	return c.inner.FindByResetTokenHash(ctx, hash)
}

// ConsumeResetToken writes through. Reset fields are not part of the cached projection.
func (c *CachingUserRepository) ConsumeResetToken(ctx context.Context, id, hash string, now time.Time) error {
	return c.inner.ConsumeResetToken(ctx, id, hash, now)
}

func (c *CachingUserRepository) List(ctx context.Context) ([]entity.User, error) {
	return c.inner.List(ctx)
}

// cacheKey generates a cache key for a user id.
func (c *CachingUserRepository) cacheKey(id string) string {
	return fmt.Sprintf("%s:id:%s", c.namespace, safe(id))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
