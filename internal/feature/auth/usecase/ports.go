package usecase

import (
	"context"
	"time"

	"natours_backend/internal/feature/auth/domain/entity"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create persists a new user. A duplicate email yields ErrEmailAlreadyExists.
	Create(ctx context.Context, user *entity.User) error

	// Update writes every field of user. A duplicate email yields ErrEmailAlreadyExists.
	Update(ctx context.Context, user *entity.User) error

	// FindByID returns ErrUserNotFound when no user matches.
	// Inactive users are only returned when includeInactive is set; such
	// lookups always read the database, never a cache.
	FindByID(ctx context.Context, id string, includeInactive bool) (*entity.User, error)

	// FindByEmail returns ErrUserNotFound when no user matches.
	// Inactive users are only returned when includeInactive is set.
	FindByEmail(ctx context.Context, email string, includeInactive bool) (*entity.User, error)

	// FindByResetTokenHash looks up an active user by the digest of a reset secret.
	FindByResetTokenHash(ctx context.Context, hash string) (*entity.User, error)

	// ConsumeResetToken clears the reset fields of the active user id in one
	// conditional write, only while they still hold hash and expire after now.
	// ErrResetTokenUnavailable is returned when nothing matched.
	ConsumeResetToken(ctx context.Context, id, hash string, now time.Time) error

	// List returns every active user.
	List(ctx context.Context) ([]entity.User, error)
}

// PasswordHasher hashes and verifies plaintext passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenIssuer はJWTトークン生成のインターフェースを定義します。
type TokenIssuer interface {
	// Issue creates a signed token whose subject is userID.
	Issue(userID string) (string, error)
}

// Mailer delivers the reset link out of band.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, resetURL string) error
}
