package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"natours_backend/internal/feature/auth/domain/entity"
	"natours_backend/internal/shared/apperr"
)

// dummyHash keeps login timing constant when the email is unknown.
const dummyHash = "$2a$12$C6UzMDM.H6dfI/f/IKcEeO5c1Vv1d1d9m3qK2b7xgUeXvS0nWeV1W"

// SignupInput is the registration payload. PasswordConfirm is checked and then discarded.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

// StoreOption configures a CredentialStore.
type StoreOption func(*CredentialStore)

// WithStoreClock overrides the time source used for password and reset timestamps.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *CredentialStore) { s.now = now }
}

// CredentialStore owns user records: normalization, validation, hashing and
// persistence happen here in that order.
type CredentialStore struct {
	users  UserRepository
	hasher PasswordHasher
	now    func() time.Time
	newID  func() string
}

// NewCredentialStore creates a store over the given repository and hasher.
func NewCredentialStore(users UserRepository, hasher PasswordHasher, opts ...StoreOption) *CredentialStore {
	s := &CredentialStore{
		users:  users,
		hasher: hasher,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new user with role user.
func (s *CredentialStore) Create(ctx context.Context, in SignupInput) (*entity.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	if err := validateFields(signupFields{
		Name:            name,
		Email:           email,
		Password:        in.Password,
		PasswordConfirm: in.PasswordConfirm,
	}); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("password_hash_failed").Wrap(err)
	}

	u := &entity.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		Photo:        entity.DefaultPhoto,
		Role:         entity.RoleUser,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, storeError(err, "user_create_failed", email)
	}
	return u, nil
}

// FindByID returns the user with id. An id that is not a UUID is an InvalidID error.
func (s *CredentialStore) FindByID(ctx context.Context, id string, includeInactive bool) (*entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.InvalidID("id", id)
	}
	u, err := s.users.FindByID(ctx, id, includeInactive)
	if err != nil {
		return nil, lookupError(err, "user_find_failed", "id", id)
	}
	return u, nil
}

// FindByEmail returns the user with the normalized email.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string, includeInactive bool) (*entity.User, error) {
	email = normalizeEmail(email)
	u, err := s.users.FindByEmail(ctx, email, includeInactive)
	if err != nil {
		return nil, lookupError(err, "user_find_failed", "email", email)
	}
	return u, nil
}

// FindByResetTokenHash returns the active user holding the reset digest.
func (s *CredentialStore) FindByResetTokenHash(ctx context.Context, hash string) (*entity.User, error) {
	u, err := s.users.FindByResetTokenHash(ctx, hash)
	if err != nil {
		return nil, lookupError(err, "user_find_failed", "reset", "hash")
	}
	return u, nil
}

// CheckPassword reports whether plaintext is u's password. A nil user is
// compared against a dummy hash so both paths cost the same.
func (s *CredentialStore) CheckPassword(u *entity.User, plaintext string) bool {
	hash := dummyHash
	if u != nil {
		hash = u.PasswordHash
	}
	ok := s.hasher.Verify(plaintext, hash)
	return ok && u != nil
}

// ChangePassword rehashes, stamps passwordChangedAt one second in the past so
// a token issued right after the change stays valid, and drops any reset secret.
func (s *CredentialStore) ChangePassword(ctx context.Context, u *entity.User, password, confirm string) error {
	if err := validateFields(passwordFields{Password: password, PasswordConfirm: confirm}); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return oops.Code("password_hash_failed").Wrap(err)
	}

	changedAt := s.now().Add(-time.Second)
	u.PasswordHash = hash
	u.PasswordChangedAt = &changedAt
	u.ClearReset()

	if err := s.users.Update(ctx, u); err != nil {
		return storeError(err, "user_update_failed", u.Email)
	}
	return nil
}

// SetResetToken records the digest of a reset secret valid until expires.
func (s *CredentialStore) SetResetToken(ctx context.Context, u *entity.User, hash string, expires time.Time) error {
	expires = expires.UTC()
	u.PasswordResetTokenHash = &hash
	u.PasswordResetExpires = &expires
	if err := s.users.Update(ctx, u); err != nil {
		return storeError(err, "user_update_failed", u.Email)
	}
	return nil
}

// ConsumeResetToken invalidates the reset secret with digest hash. Of several
// concurrent calls for the same secret exactly one succeeds; the others get ResetInvalid.
func (s *CredentialStore) ConsumeResetToken(ctx context.Context, u *entity.User, hash string) error {
	if err := s.users.ConsumeResetToken(ctx, u.ID, hash, s.now()); err != nil {
		if errors.Is(err, ErrResetTokenUnavailable) {
			return apperr.ResetInvalid()
		}
		return oops.Code("reset_consume_failed").With("user_id", u.ID).Wrap(err)
	}
	u.ClearReset()
	return nil
}

// ClearResetToken drops an outstanding reset secret.
func (s *CredentialStore) ClearResetToken(ctx context.Context, u *entity.User) error {
	u.ClearReset()
	if err := s.users.Update(ctx, u); err != nil {
		return storeError(err, "user_update_failed", u.Email)
	}
	return nil
}

// UpdateProfile changes name and email. Password fields are never touched here.
func (s *CredentialStore) UpdateProfile(ctx context.Context, u *entity.User, name, email string) error {
	current, err := s.fresh(ctx, u.ID)
	if err != nil {
		return err
	}
	updated := *current
	if name != "" {
		updated.Name = strings.TrimSpace(name)
	}
	if email != "" {
		updated.Email = normalizeEmail(email)
	}

	if err := validateFields(profileFields{Name: updated.Name, Email: updated.Email}); err != nil {
		return err
	}
	if err := s.users.Update(ctx, &updated); err != nil {
		return storeError(err, "user_update_failed", updated.Email)
	}
	*u = updated
	return nil
}

// Deactivate soft-deletes u. Default reads no longer return it.
func (s *CredentialStore) Deactivate(ctx context.Context, u *entity.User) error {
	current, err := s.fresh(ctx, u.ID)
	if err != nil {
		return err
	}
	current.Active = false
	if err := s.users.Update(ctx, current); err != nil {
		return storeError(err, "user_update_failed", current.Email)
	}
	*u = *current
	return nil
}

// List returns every active user.
func (s *CredentialStore) List(ctx context.Context) ([]entity.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, oops.Code("user_list_failed").Wrap(err)
	}
	return users, nil
}

// UpdateRole assigns role to the active user with id.
func (s *CredentialStore) UpdateRole(ctx context.Context, id string, role entity.Role) (*entity.User, error) {
	if err := validateFields(roleFields{Role: string(role)}); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.InvalidID("id", id)
	}
	u, err := s.fresh(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if err := s.users.Update(ctx, u); err != nil {
		return nil, storeError(err, "user_update_failed", u.Email)
	}
	return u, nil
}

// fresh reads the complete stored row of the active user id. Users handed to
// the store may come from the request cache, which does not carry credentials,
// so every read-modify-write starts here.
func (s *CredentialStore) fresh(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.users.FindByID(ctx, id, true)
	if err != nil {
		return nil, lookupError(err, "user_find_failed", "id", id)
	}
	if !u.Active {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// storeError maps repository write failures onto client-facing kinds.
func storeError(err error, code, email string) error {
	if errors.Is(err, ErrEmailAlreadyExists) {
		return apperr.DuplicateKey("email", email)
	}
	return oops.Code(code).With("email", email).Wrap(err)
}

// lookupError keeps ErrUserNotFound matchable and wraps everything else.
func lookupError(err error, code, key, value string) error {
	if errors.Is(err, ErrUserNotFound) {
		return err
	}
	return oops.Code(code).With(key, value).Wrap(err)
}
