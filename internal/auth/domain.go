package auth

import (
	"errors"
	"time"
)

// Role is the closed set of authorization roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a stored role value onto the Role type.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	}
	return "", errors.New("auth: unknown role " + s)
}

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FullName     string
	AvatarURL    string
	IsActive     bool
	IsVerified   bool
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Snapshot is the safe-to-cache projection of a User. It never carries
// the password hash.
type Snapshot struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	IsActive   bool   `json:"is_active"`
	IsVerified bool   `json:"is_verified"`
	Role       Role   `json:"role"`
}

// SnapshotOf projects a User into its cacheable form.
func SnapshotOf(u *User) Snapshot {
	return Snapshot{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		AvatarURL:  u.AvatarURL,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		Role:       u.Role,
	}
}

var (
	// ErrInvalidCredentials indicates an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrEmailNotVerified indicates login before email verification.
	ErrEmailNotVerified = errors.New("auth: email not verified")
	// ErrAccountInactive indicates a deactivated account.
	ErrAccountInactive = errors.New("auth: account inactive")
	// ErrEmailExists indicates a duplicate registration.
	ErrEmailExists = errors.New("auth: email already registered")
	// ErrInvalidToken covers bad signatures and wrong-purpose tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrTokenExpired indicates a token past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenAlreadyUsed indicates a consumed single-use token.
	ErrTokenAlreadyUsed = errors.New("auth: token already used")
	// ErrNotFound indicates a missing user record.
	ErrNotFound = errors.New("auth: user not found")
)
