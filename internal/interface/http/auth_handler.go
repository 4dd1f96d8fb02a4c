package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/contacts-api/internal/application"
	"github.com/oksasatya/contacts-api/internal/domain/entity"
	"github.com/oksasatya/contacts-api/internal/infrastructure/postgres"
	"github.com/oksasatya/contacts-api/internal/interface/middleware"
	"github.com/oksasatya/contacts-api/pkg/response"
	"github.com/oksasatya/contacts-api/pkg/validation"
)

type AuthHandler struct {
	Svc    *application.AuthService
	Audit  *postgres.AuditRepository
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, audit *postgres.AuditRepository, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Audit: audit, Logger: logger}
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

// audit records an auth event; failures are logged, never surfaced.
func (h *AuthHandler) audit(c *gin.Context, userID int64, email, action string, metadata map[string]any) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.Insert(c.Request.Context(), postgres.AuditEntry{
		UserID:    userID,
		Email:     email,
		Action:    action,
		IP:        clientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
		Metadata:  metadata,
	})
	if err != nil && h.Logger != nil {
		h.Logger.WithError(err).WithField("action", action).Warn("audit insert failed")
	}
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrEmailNotVerified), errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, application.ErrEmailTaken), errors.Is(err, application.ErrContactExists):
		return http.StatusConflict
	case errors.Is(err, application.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrUserNotFound), errors.Is(err, application.ErrContactNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func userPayload(u *entity.User) gin.H {
	return gin.H{
		"id":          u.ID,
		"email":       u.Email,
		"is_verified": u.IsVerified,
		"avatar_url":  u.AvatarURL,
		"role":        u.Role,
		"created_at":  u.CreatedAt,
		"updated_at":  u.UpdatedAt,
	}
}

func tokenPayload(pair application.TokenPair) gin.H {
	return gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "bearer",
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

// Signup POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	h.audit(c, u.ID, u.Email, "signup", nil)
	response.Success(c, http.StatusCreated, userPayload(u), "account created, check your email to verify", nil)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.audit(c, 0, req.Email, "login_failed", nil)
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	h.audit(c, 0, req.Email, "login", nil)
	response.Success(c, http.StatusOK, tokenPayload(pair), "login successful", gin.H{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

// Refresh POST /api/auth/refresh. The refresh token travels in the
// Authorization header, same scheme as access tokens.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh := middleware.BearerToken(c)
	if refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, statusFor(err), "invalid refresh token", nil)
		return
	}
	response.Success(c, http.StatusOK, tokenPayload(pair), "token refreshed", gin.H{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

// ConfirmEmail GET /api/auth/confirm_email/:token
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	u, err := h.Svc.ConfirmEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	h.audit(c, u.ID, u.Email, "confirm_email", nil)
	response.Success[any](c, http.StatusOK, gin.H{"verified": true}, "email confirmed", nil)
}

type resetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestPasswordReset POST /api/auth/password_reset/request. The response is
// identical whether or not the address exists.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		response.Error[any](c, statusFor(err), "reset request failed", nil)
		return
	}
	h.audit(c, 0, req.Email, "password_reset_request", nil)
	response.Success[any](c, http.StatusOK, gin.H{"requested": true}, "if the address exists, a reset email is on its way", nil)
}

type resetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

// ConfirmPasswordReset POST /api/auth/password_reset/confirm
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ConfirmPasswordReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	h.audit(c, 0, "", "password_reset_confirm", map[string]any{"token": "redacted"})
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}
