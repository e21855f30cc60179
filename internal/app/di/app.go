package di

import (
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"natours_backend/internal/app/config"
	"natours_backend/internal/app/router"
	authhandler "natours_backend/internal/feature/auth/transport/handler"
	"natours_backend/internal/feature/auth/usecase"
	jwtmw "natours_backend/internal/platform/jwt"
	"natours_backend/internal/platform/password"
	"natours_backend/internal/shared/ratelimiter"
)

// NewRouterDeps wires the credential store, token issuer and handlers for the router.
func NewRouterDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client, limiter *ratelimiter.RateLimiter, ready func() bool, logger *slog.Logger) router.Deps {
	// Repository
	userRepo := NewUserRepository(rdb, db, cfg.Redis.TTL)

	// Usecase
	hasher := password.NewBcryptHasher(cfg.Password.BcryptCost)
	store := usecase.NewCredentialStore(userRepo, hasher)
	tokens := jwtmw.NewIssuer(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	authUC := usecase.NewAuthUsecase(store, tokens)
	resetUC := usecase.NewResetUsecase(store, tokens, NewMailer(cfg.SMTP, logger), cfg.Reset.TTL)

	// Handler
	cookies := authhandler.CookieConfig{TTL: cfg.JWT.CookieExpiresIn, Secure: cfg.IsProduction()}

	return router.Deps{
		Auth:    authhandler.NewAuthHandler(authUC, resetUC, cookies),
		Users:   authhandler.NewUserHandler(store),
		Pages:   authhandler.NewPageHandler(),
		Tokens:  tokens,
		Finder:  store,
		Limiter: limiter,
		Ready:   ready,
	}
}
