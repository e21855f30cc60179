// Package di provides dependency injection factories for creating application components.
package di

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "natours_backend/internal/feature/auth/adapters"
	"natours_backend/internal/feature/auth/usecase"
	"natours_backend/internal/platform/cache"
	"natours_backend/internal/platform/mail"
)

// NewUserRepository creates the UserRepository implementation.
// If Redis is available, lookups by id are cached in front of the database.
func NewUserRepository(rdb *redis.Client, db *gorm.DB, ttl time.Duration) usecase.UserRepository {
	repo := authadapters.NewUserGorm(db)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingUserRepository(rdb, ttl, repo, "users")
}

// NewMailer returns an SMTP mailer, or one that only logs when no relay is configured.
func NewMailer(cfg mail.Config, logger *slog.Logger) usecase.Mailer {
	if cfg.Host == "" {
		slog.Warn("SMTP host not configured, reset links are logged instead of mailed")
		return mail.NewLogMailer(logger)
	}
	return mail.NewSMTPMailer(cfg)
}
