package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/contacts-api/internal/domain/entity"
	"github.com/oksasatya/contacts-api/internal/domain/repository"
)

// DefaultUserTTL bounds how stale a cached user snapshot may be. Direct row
// mutations do not invalidate the entry; it ages out on its own.
const DefaultUserTTL = 3600 * time.Second

func userKey(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}

// UserStore is a cache-aside view over the user table. GetByID reads through
// the cache; GetByEmail always goes straight to persistence (login/signup
// paths only, not worth a second index in the cache).
type UserStore struct {
	repo   repository.UserRepository
	cache  Cache
	ttl    time.Duration
	logger *logrus.Logger
}

func NewUserStore(repo repository.UserRepository, c Cache, ttl time.Duration, logger *logrus.Logger) *UserStore {
	if ttl <= 0 {
		ttl = DefaultUserTTL
	}
	return &UserStore{repo: repo, cache: c, ttl: ttl, logger: logger}
}

// GetByID returns the user or repository.ErrNotFound. Cache failures are
// logged and fall through to persistence; absence is never cached, so every
// miss-and-not-found re-queries the table.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	key := userKey(id)
	if b, ok, err := s.cache.Get(ctx, key); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).WithField("key", key).Warn("user cache read failed")
		}
	} else if ok {
		u := &entity.User{}
		if err := json.Unmarshal(b, u); err == nil {
			return u, nil
		}
		if s.logger != nil {
			s.logger.WithField("key", key).Warn("user cache entry corrupt, falling back to db")
		}
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(u); err == nil {
		if err := s.cache.Set(ctx, key, b, s.ttl); err != nil && s.logger != nil {
			s.logger.WithError(err).WithField("key", key).Warn("user cache write failed")
		}
	}
	return u, nil
}

// GetByEmail bypasses the cache entirely.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.repo.GetByEmail(ctx, email)
}
