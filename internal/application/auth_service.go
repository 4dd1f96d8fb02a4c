package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/contacts-api/internal/domain/entity"
	"github.com/oksasatya/contacts-api/internal/domain/repository"
	"github.com/oksasatya/contacts-api/internal/infrastructure/cache"
	"github.com/oksasatya/contacts-api/pkg/helpers"
	"github.com/oksasatya/contacts-api/pkg/mailer"
	"github.com/oksasatya/contacts-api/pkg/token"
)

// EmailPublisher enqueues email jobs. *helpers.RabbitPublisher satisfies it;
// sends are fire-and-forget from the service's point of view.
type EmailPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// AuthService orchestrates signup, login, token refresh, current-user
// resolution, email verification and password reset. Per-request token state
// is reconstructed from claims; for refresh tokens the stored value on the
// user row is the source of truth.
type AuthService struct {
	Users  repository.UserRepository
	Store  *cache.UserStore
	Codec  *token.Codec
	Pub    EmailPublisher
	Logger *logrus.Logger

	VerifyEmailURL   string
	ResetPasswordURL string
}

func NewAuthService(users repository.UserRepository, store *cache.UserStore, codec *token.Codec,
	pub EmailPublisher, logger *logrus.Logger, verifyURL, resetURL string) *AuthService {
	return &AuthService{
		Users:            users,
		Store:            store,
		Codec:            codec,
		Pub:              pub,
		Logger:           logger,
		VerifyEmailURL:   verifyURL,
		ResetPasswordURL: resetURL,
	}
}

// TokenPair is the access/refresh pair returned by login and refresh.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// Signup registers an unverified user and triggers the verification email.
// The returned user carries the password hash; the handler layer never
// serializes it.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*entity.User, error) {
	if _, err := s.Store.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{Email: email, Password: hash, Role: entity.RoleUser}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.sendVerificationEmail(ctx, u.Email)
	return u, nil
}

// Login checks credentials before the verification flag so that an
// unauthenticated caller cannot probe whether an address is verified.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	u, err := s.Store.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if !u.IsVerified {
		return TokenPair{}, ErrEmailNotVerified
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	// Overwriting the stored token is the single point of rotation: any
	// previously issued refresh token is invalid from here on.
	if err := s.Users.SetRefreshToken(ctx, u.ID, pair.RefreshToken); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// Refresh exchanges a valid, current refresh token for a new pair. The swap
// is conditional on the presented token still being the stored one, so a
// superseded token, or the loser of two concurrent refreshes, fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.Codec.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	u, err := s.Store.GetByID(ctx, id)
	if err != nil || u == nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.Users.RotateRefreshToken(ctx, u.ID, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	return pair, nil
}

// CurrentUser resolves an access token to its user via the cache-aside store.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*entity.User, error) {
	claims, err := s.Codec.Verify(accessToken, token.KindAccess)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	u, err := s.Store.GetByID(ctx, id)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// RequireAdmin passes the user through when it carries the admin role.
func (s *AuthService) RequireAdmin(u *entity.User) (*entity.User, error) {
	if u == nil || !u.IsAdmin() {
		return nil, ErrForbidden
	}
	return u, nil
}

// ConfirmEmail flips the verification flag for the token's subject email.
// Confirming an already-verified address is a no-op success.
func (s *AuthService) ConfirmEmail(ctx context.Context, tokenStr string) (*entity.User, error) {
	claims, err := s.Codec.Verify(tokenStr, token.KindEmailVerification)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.Store.GetByEmail(ctx, claims.Subject)
	if err != nil || u == nil {
		return nil, ErrInvalidToken
	}
	if u.IsVerified {
		return u, nil
	}
	if err := s.Users.SetVerified(ctx, u.ID); err != nil {
		return nil, err
	}
	u.IsVerified = true
	return u, nil
}

// RequestPasswordReset issues a reset token and emails it when the address
// exists. The outcome is identical either way; enumeration through this
// endpoint must not be possible.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.Store.GetByEmail(ctx, email)
	if err != nil || u == nil {
		if err != nil && !errors.Is(err, repository.ErrNotFound) && s.Logger != nil {
			s.Logger.WithError(err).Warn("password reset lookup failed")
		}
		return nil
	}

	tok, _, err := s.Codec.Issue(u.Email, token.KindPasswordReset)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("issue password reset token failed")
		}
		return nil
	}
	s.publishEmail(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailer.TemplatePasswordReset,
		Data: map[string]any{
			"Link":      s.ResetPasswordURL + "?token=" + tok,
			"ExpiresIn": s.Codec.ResetTTL.String(),
		},
	})
	return nil
}

// ConfirmPasswordReset replaces the password hash for the token's subject.
// Outstanding access/refresh tokens are left untouched.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	claims, err := s.Codec.Verify(tokenStr, token.KindPasswordReset)
	if err != nil {
		return ErrInvalidToken
	}
	u, err := s.Store.GetByEmail(ctx, claims.Subject)
	if err != nil || u == nil {
		return ErrInvalidToken
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Users.UpdatePassword(ctx, u.ID, hash)
}

func (s *AuthService) issuePair(userID int64) (TokenPair, error) {
	sub := strconv.FormatInt(userID, 10)
	access, aexp, err := s.Codec.Issue(sub, token.KindAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.Codec.Issue(sub, token.KindRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *AuthService) sendVerificationEmail(ctx context.Context, email string) {
	tok, _, err := s.Codec.Issue(email, token.KindEmailVerification)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("email", email).Error("issue verification token failed")
		}
		return
	}
	s.publishEmail(ctx, mailer.EmailJob{
		To:       email,
		Template: mailer.TemplateVerifyEmail,
		Data: map[string]any{
			"Link":      s.VerifyEmailURL + "?token=" + tok,
			"ExpiresIn": s.Codec.VerifyTTL.String(),
		},
	})
}

func (s *AuthService) publishEmail(ctx context.Context, job mailer.EmailJob) {
	if s.Pub == nil {
		return
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("template", job.Template).Warn("failed to enqueue email job")
	}
}
