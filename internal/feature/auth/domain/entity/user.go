// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// Role is a user's authorization role. Roles form a set, not a hierarchy.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// DefaultPhoto is assigned to users who never uploaded one.
const DefaultPhoto = "default.jpg"

// Roles lists every valid role.
var Roles = []Role{RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered user in the system.
// Credential and reset fields are never serialized.
type User struct {
	// ID is a UUID assigned at creation and never changed.
	ID string `gorm:"primaryKey;size:36" json:"id"`

	Name string `gorm:"size:25;not null" json:"name"`

	// Email is stored trimmed and lower-cased. It must be unique across all users.
	Email string `gorm:"uniqueIndex;size:254;not null" json:"email"`

	Photo string `gorm:"size:255;not null;default:default.jpg" json:"photo"`

	Role Role `gorm:"size:16;not null;default:user" json:"role"`

	// PasswordHash is the bcrypt hash of the password.
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	PasswordChangedAt *time.Time `json:"-"`

	// PasswordResetTokenHash is the sha256 digest of an outstanding reset secret.
	PasswordResetTokenHash *string    `gorm:"size:64;index" json:"-"`
	PasswordResetExpires   *time.Time `json:"-"`

	// Active is false once the account has been deactivated.
	Active bool `gorm:"not null;default:true" json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at issuedAt. Comparison is done in whole seconds like JWT iat.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}

// HasRole reports whether the user's role is among roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// ResetValid reports whether an outstanding reset window is still open at now.
func (u *User) ResetValid(now time.Time) bool {
	return u.PasswordResetTokenHash != nil &&
		u.PasswordResetExpires != nil &&
		now.Before(*u.PasswordResetExpires)
}

// ClearReset drops any outstanding reset secret.
func (u *User) ClearReset() {
	u.PasswordResetTokenHash = nil
	u.PasswordResetExpires = nil
}
