package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind discriminates what a token is allowed to be used for. A token of one
// kind is never accepted where another kind is expected.
type Kind string

const (
	KindAccess            Kind = "access"
	KindRefresh           Kind = "refresh"
	KindEmailVerification Kind = "email_verification"
	KindPasswordReset     Kind = "password_reset"
)

// ErrInvalidToken is the single error surface for every verification
// failure: bad signature, expired, malformed, or kind mismatch. Callers are
// deliberately unable to tell these apart.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed payload: subject, kind discriminator and the
// registered iat/exp timestamps.
type Claims struct {
	TokenType Kind `json:"token_type"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed, time-bounded claim sets with a shared
// secret. The algorithm is fixed to HS256; secret and lifetimes are injected
// at construction.
type Codec struct {
	secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	VerifyTTL  time.Duration
	ResetTTL   time.Duration
}

func New(secret string, accessTTL, refreshTTL, verifyTTL, resetTTL time.Duration) *Codec {
	return &Codec{
		secret:     []byte(secret),
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		VerifyTTL:  verifyTTL,
		ResetTTL:   resetTTL,
	}
}

// Issue signs a claim set for subject with the default lifetime of kind.
func (c *Codec) Issue(subject string, kind Kind) (string, time.Time, error) {
	return c.IssueWithTTL(subject, kind, c.lifetime(kind))
}

// IssueWithTTL signs a claim set with an explicit lifetime.
func (c *Codec) IssueWithTTL(subject string, kind Kind, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := &Claims{
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(c.secret)
	return s, exp, err
}

// Verify parses and validates tokenStr and checks the kind discriminator.
// Expiry is enforced by the jwt library during parsing.
func (c *Codec) Verify(tokenStr string, expected Kind) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != expected {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *Codec) lifetime(kind Kind) time.Duration {
	switch kind {
	case KindRefresh:
		return c.RefreshTTL
	case KindEmailVerification:
		return c.VerifyTTL
	case KindPasswordReset:
		return c.ResetTTL
	default:
		return c.AccessTTL
	}
}
