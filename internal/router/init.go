package router

import (
	"github.com/oksasatya/contacts-api/internal/application"
	"github.com/oksasatya/contacts-api/internal/container"
	cacheinfra "github.com/oksasatya/contacts-api/internal/infrastructure/cache"
	pginfra "github.com/oksasatya/contacts-api/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/contacts-api/internal/interface/http"
	"github.com/oksasatya/contacts-api/internal/router/modules"
)

// InitModules wires repositories, services and handlers from the container
// singletons and registers every feature module with the router registry.
// It is called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	userRepo := pginfra.NewUserRepository(container.GetPGPool())
	contactRepo := pginfra.NewContactRepository(container.GetPGPool())
	audit := pginfra.NewAuditRepository(container.GetPGPool())

	store := cacheinfra.NewUserStore(
		userRepo,
		cacheinfra.NewRedisCache(container.GetRedis()),
		cfg.UserCacheTTL,
		logger,
	)

	var pub application.EmailPublisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}

	authSvc := application.NewAuthService(
		userRepo,
		store,
		container.GetCodec(),
		pub,
		logger,
		cfg.VerifyEmailURL,
		cfg.ResetPasswordURL,
	)
	userSvc := application.NewUserService(userRepo, store, container.GetGCS(), cfg.GCSBucket, logger)
	contactSvc := application.NewContactService(contactRepo, logger, container.GetES(), cfg.ESContactsIndex)

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(authSvc, audit, logger), authSvc))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(userSvc, logger), authSvc))
	r.Add(modules.NewContactModule(handlers.NewContactHandler(contactSvc, logger), authSvc))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
