package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"

	"natours_backend/internal/feature/auth/domain/entity"
	"natours_backend/internal/platform/resettoken"
	"natours_backend/internal/shared/apperr"
)

// DefaultResetTTL is how long a reset secret stays usable.
const DefaultResetTTL = 10 * time.Minute

const (
	msgNoUserWithEmail = "There is no user with that email address."
	msgMailFailed      = "There was an error sending the email. Try again later!"
)

// ResetUsecase runs the forgot/reset password handshake.
type ResetUsecase struct {
	store  *CredentialStore
	tokens TokenIssuer
	mailer Mailer
	ttl    time.Duration
}

// NewResetUsecase creates the flow. A non-positive ttl falls back to DefaultResetTTL.
func NewResetUsecase(store *CredentialStore, tokens TokenIssuer, mailer Mailer, ttl time.Duration) *ResetUsecase {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	return &ResetUsecase{
		store:  store,
		tokens: tokens,
		mailer: mailer,
		ttl:    ttl,
	}
}

// IssueReset creates a reset secret for the active user with email and stores
// its digest. The plaintext secret is returned for delivery and never stored.
func (r *ResetUsecase) IssueReset(ctx context.Context, email string) (string, *entity.User, error) {
	user, err := r.store.FindByEmail(ctx, email, false)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, apperr.NotFound(msgNoUserWithEmail)
		}
		return "", nil, err
	}

	secret, hash, err := resettoken.Generate()
	if err != nil {
		return "", nil, oops.Code("reset_token_failed").Wrap(err)
	}
	if err := r.store.SetResetToken(ctx, user, hash, r.store.now().Add(r.ttl)); err != nil {
		return "", nil, err
	}
	return secret, user, nil
}

// RequestReset issues a secret and mails the link built by resetURL. When
// delivery fails the secret is revoked so no unusable window stays open.
func (r *ResetUsecase) RequestReset(ctx context.Context, email string, resetURL func(secret string) string) error {
	secret, user, err := r.IssueReset(ctx, email)
	if err != nil {
		return err
	}

	if err := r.mailer.SendPasswordReset(ctx, user.Email, user.Name, resetURL(secret)); err != nil {
		if clearErr := r.store.ClearResetToken(ctx, user); clearErr != nil {
			err = errors.Join(err, clearErr)
		}
		return apperr.Internal(msgMailFailed, oops.Code("reset_mail_failed").With("email", user.Email).Wrap(err))
	}
	return nil
}

// ResetPassword consumes secret, sets the new password and returns a fresh token.
// A secret works once and only inside its window.
func (r *ResetUsecase) ResetPassword(ctx context.Context, secret, password, confirm string) (*entity.User, string, error) {
	if secret == "" {
		return nil, "", apperr.ResetInvalid()
	}

	hash := resettoken.Hash(secret)
	user, err := r.store.FindByResetTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", apperr.ResetInvalid()
		}
		return nil, "", err
	}
	if !user.ResetValid(r.store.now()) {
		return nil, "", apperr.ResetInvalid()
	}

	// 入力エラーではシークレットを消費しない
	if err := validateFields(passwordFields{Password: password, PasswordConfirm: confirm}); err != nil {
		return nil, "", err
	}
	if err := r.store.ConsumeResetToken(ctx, user, hash); err != nil {
		return nil, "", err
	}

	if err := r.store.ChangePassword(ctx, user, password, confirm); err != nil {
		return nil, "", err
	}

	token, err := r.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", oops.Code("token_issue_failed").With("user_id", user.ID).Wrap(err)
	}
	return user, token, nil
}
