package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/contacts-api/internal/application"
	"github.com/oksasatya/contacts-api/internal/domain/entity"
	"github.com/oksasatya/contacts-api/pkg/response"
)

const CtxUserKey = "user"

// BearerToken extracts the token from the Authorization header, or returns ""
// when the header is missing or not a bearer scheme.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// Auth validates the bearer access token and injects the resolved user into
// the Gin context. It also sets userID for rate-limit keying.
func Auth(svc *application.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := BearerToken(c)
		if tok == "" {
			response.AbortError[any](c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		u, err := svc.CurrentUser(c.Request.Context(), tok)
		if err != nil {
			response.AbortError[any](c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}
		c.Set(CtxUserKey, u)
		c.Set("userID", strconv.FormatInt(u.ID, 10))
		c.Next()
	}
}

// RequireAdmin gates a route group to admin users. Must run after Auth.
func RequireAdmin(svc *application.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := svc.RequireAdmin(UserFromCtx(c)); err != nil {
			response.AbortError[any](c, http.StatusForbidden, "admin access required", nil)
			return
		}
		c.Next()
	}
}

// UserFromCtx returns the authenticated user set by Auth, or nil.
func UserFromCtx(c *gin.Context) *entity.User {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*entity.User)
	return u
}
