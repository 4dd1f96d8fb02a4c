package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/contacts-api/internal/application"
	"github.com/oksasatya/contacts-api/internal/container"
	handlers "github.com/oksasatya/contacts-api/internal/interface/http"
	"github.com/oksasatya/contacts-api/internal/interface/middleware"
)

// ContactModule wires the owner-scoped address book under /api/contacts.
type ContactModule struct {
	Handler *handlers.ContactHandler
	Svc     *application.AuthService
}

func NewContactModule(h *handlers.ContactHandler, svc *application.AuthService) *ContactModule {
	return &ContactModule{Handler: h, Svc: svc}
}

func (m *ContactModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/contacts")
	auth.Use(middleware.Auth(m.Svc))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("", m.Handler.Create)
		auth.GET("", m.Handler.List)
		auth.GET("/search", m.Handler.Search)
		auth.GET("/birthdays", m.Handler.UpcomingBirthdays)
		auth.GET("/:id", m.Handler.Get)
		auth.PUT("/:id", m.Handler.Update)
		auth.DELETE("/:id", m.Handler.Delete)
	}
}
