package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/contacts-api/internal/domain/entity"
	"github.com/oksasatya/contacts-api/internal/domain/repository"
	"github.com/oksasatya/contacts-api/internal/infrastructure/cache"
	"github.com/oksasatya/contacts-api/pkg/helpers"
)

// UserService covers profile reads and avatar management.
type UserService struct {
	Users     repository.UserRepository
	Store     *cache.UserStore
	GCS       *storage.Client
	GCSBucket string
	Logger    *logrus.Logger
}

func NewUserService(users repository.UserRepository, store *cache.UserStore, gcs *storage.Client, bucket string, logger *logrus.Logger) *UserService {
	return &UserService{Users: users, Store: store, GCS: gcs, GCSBucket: bucket, Logger: logger}
}

// GetByID serves reads through the cache-aside store (admin lookup path).
func (s *UserService) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateAvatar uploads the image and stores the resulting public URL on the
// user row. Upload failures are logged with their cause and surfaced as a
// generic ErrUploadFailed.
func (s *UserService) UpdateAvatar(ctx context.Context, u *entity.User, r io.Reader, filename, contentType string) (*entity.User, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return nil, ErrUploadFailed
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", formatID(u.ID), uuid.NewString()+ext))

	url, err := helpers.UploadImageToGCS(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("avatar upload failed")
		}
		return nil, ErrUploadFailed
	}
	if err := s.Users.UpdateAvatar(ctx, u.ID, url); err != nil {
		return nil, err
	}
	updated := *u
	updated.AvatarURL = url
	return &updated, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
