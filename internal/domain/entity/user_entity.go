package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Password holds the bcrypt hash, never the plaintext. RefreshToken is the
// single currently-valid refresh token for this user; any other token string
// is stale even if its signature is still good.
type User struct {
	ID           int64
	Email        string
	Password     string
	IsVerified   bool
	AvatarURL    string
	RefreshToken string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
