package repository

import (
	"context"

	"github.com/oksasatya/contacts-api/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// SetRefreshToken overwrites the stored refresh token unconditionally
	// (login path: old sessions are invalidated by the overwrite).
	SetRefreshToken(ctx context.Context, id int64, token string) error
	// RotateRefreshToken replaces old with next only if old is still the
	// stored value. ErrNotFound means the caller lost the rotation: the
	// presented token was already superseded.
	RotateRefreshToken(ctx context.Context, id int64, old, next string) error
	SetVerified(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateAvatar(ctx context.Context, id int64, avatarURL string) error
}
