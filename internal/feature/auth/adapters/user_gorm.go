// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"natours_backend/internal/feature/auth/domain/entity"
	"natours_backend/internal/feature/auth/usecase"
)

// userGorm はUserRepositoryインターフェースのGORM実装です。
// Postgres in production, SQLite locally and in tests.
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// activeOnly hides deactivated accounts from a query.
func activeOnly(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}

func (r *userGorm) scoped(ctx context.Context, includeInactive bool) *gorm.DB {
	tx := r.db.WithContext(ctx)
	if !includeInactive {
		tx = tx.Scopes(activeOnly)
	}
	return tx
}

// Create はユーザーをデータベースに追加します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user must not be nil")
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return translateWriteError(err)
	}
	return nil
}

// Update saves every column of u, including cleared reset fields.
func (r *userGorm) Update(ctx context.Context, u *entity.User) error {
	if u == nil || u.ID == "" {
		return errors.New("user must have an id")
	}
	if err := r.db.WithContext(ctx).Save(u).Error; err != nil {
		return translateWriteError(err)
	}
	return nil
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByID(ctx context.Context, id string, includeInactive bool) (*entity.User, error) {
	var u entity.User
	if err := r.scoped(ctx, includeInactive).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translateReadError(err)
	}
	return &u, nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
func (r *userGorm) FindByEmail(ctx context.Context, email string, includeInactive bool) (*entity.User, error) {
	var u entity.User
	if err := r.scoped(ctx, includeInactive).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translateReadError(err)
	}
	return &u, nil
}

// FindByResetTokenHash returns the active user holding hash.
func (r *userGorm) FindByResetTokenHash(ctx context.Context, hash string) (*entity.User, error) {
	if hash == "" {
		return nil, usecase.ErrUserNotFound
	}
	var u entity.User
	if err := r.scoped(ctx, false).Where("password_reset_token_hash = ?", hash).First(&u).Error; err != nil {
		return nil, translateReadError(err)
	}
	return &u, nil
}

// ConsumeResetToken は条件付きUPDATEでリセットトークンを無効化します。
// 同じシークレットで同時にリクエストされても、更新できるのは1件だけです。
func (r *userGorm) ConsumeResetToken(ctx context.Context, id, hash string, now time.Time) error {
	if id == "" || hash == "" {
		return usecase.ErrResetTokenUnavailable
	}
	res := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Scopes(activeOnly).
		Where("id = ? AND password_reset_token_hash = ? AND password_reset_expires > ?", id, hash, now.UTC()).
		Updates(map[string]any{
			"password_reset_token_hash": nil,
			"password_reset_expires":    nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return usecase.ErrResetTokenUnavailable
	}
	return nil
}

// List returns active users ordered by creation time.
func (r *userGorm) List(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	if err := r.scoped(ctx, false).Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func translateReadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.ErrUserNotFound
	}
	return err
}

// translateWriteError maps unique violations from either driver to ErrEmailAlreadyExists.
// Email is the only unique column besides the primary key.
func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return usecase.ErrEmailAlreadyExists
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return usecase.ErrEmailAlreadyExists
	}
	return err
}
