package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/contacts-api/internal/application"
	"github.com/oksasatya/contacts-api/internal/container"
	handlers "github.com/oksasatya/contacts-api/internal/interface/http"
	"github.com/oksasatya/contacts-api/internal/interface/middleware"
)

// UserModule wires profile and admin routes.
// Protected: GET /api/users/me, PATCH /api/users/avatar
// Admin: GET /api/admin/users/:id
type UserModule struct {
	Handler *handlers.UserHandler
	Svc     *application.AuthService
}

func NewUserModule(h *handlers.UserHandler, svc *application.AuthService) *UserModule {
	return &UserModule{Handler: h, Svc: svc}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Svc))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/users/me", m.Handler.Me)
		auth.PATCH("/users/avatar", m.Handler.UpdateAvatar)
	}

	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin(m.Svc))
	{
		admin.GET("/users/:id", m.Handler.AdminGetUser)
	}
}
