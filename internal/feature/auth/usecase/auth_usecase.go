package usecase

import (
	"context"
	"errors"
	"fmt"

	"natours_backend/internal/feature/auth/domain/entity"
	"natours_backend/internal/shared/apperr"
)

const (
	msgMissingCredentials = "Please provide email and password!"
	msgBadCredentials     = "Incorrect email or password"
	msgWrongPassword      = "Your current password is wrong."
)

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	store  *CredentialStore
	tokens TokenIssuer
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(store *CredentialStore, tokens TokenIssuer) *authUsecase {
	return &authUsecase{
		store:  store,
		tokens: tokens,
	}
}

// Signup registers a user and returns a session token for it.
func (u *authUsecase) Signup(ctx context.Context, in SignupInput) (*entity.User, string, error) {
	user, err := u.store.Create(ctx, in)
	if err != nil {
		return nil, "", err
	}
	token, err := u.issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login はユーザーを認証し、成功時にJWTトークンを返します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	if email == "" || password == "" {
		return nil, "", apperr.BadRequest(msgMissingCredentials)
	}

	user, err := u.store.FindByEmail(ctx, email, false)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, "", err
	}

	// Always compare, even for unknown emails
	if !u.store.CheckPassword(user, password) {
		return nil, "", apperr.Unauthenticated(msgBadCredentials)
	}

	token, err := u.issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// UpdatePassword changes the password of a logged-in user after checking the
// current one, and returns a fresh token since older ones are now stale.
func (u *authUsecase) UpdatePassword(ctx context.Context, user *entity.User, current, password, confirm string) (string, error) {
	// キャッシュ由来のユーザーにはパスワードハッシュが無いため、DBから読み直す
	stored, err := u.store.fresh(ctx, user.ID)
	if err != nil {
		return "", err
	}
	*user = *stored

	if !u.store.CheckPassword(user, current) {
		return "", apperr.Unauthenticated(msgWrongPassword)
	}
	if err := u.store.ChangePassword(ctx, user, password, confirm); err != nil {
		return "", err
	}
	return u.issue(user)
}

func (u *authUsecase) issue(user *entity.User) (string, error) {
	token, err := u.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}
