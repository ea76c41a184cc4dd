package router

import (
	"time"

	appuser "github.com/oksasatya/go-entra-users/internal/application"
	"github.com/oksasatya/go-entra-users/internal/container"
	domainsvc "github.com/oksasatya/go-entra-users/internal/domain/service"
	"github.com/oksasatya/go-entra-users/internal/infrastructure/notify"
	pginfra "github.com/oksasatya/go-entra-users/internal/infrastructure/postgres"
	"github.com/oksasatya/go-entra-users/internal/infrastructure/search"
	handlers "github.com/oksasatya/go-entra-users/internal/interface/http"
	"github.com/oksasatya/go-entra-users/internal/interface/middleware"
	"github.com/oksasatya/go-entra-users/internal/router/modules"
)

type UserModuleDeps struct {
	Repo    *pginfra.UserRepository
	Service *appuser.Service
	Handler *handlers.UserHandler
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())

	var notifier appuser.Notifier
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		notifier = notify.NewWelcomePublisher(pub, cfg.AppName, cfg.SupportURL, cfg.LoginURL)
	}
	var index appuser.Indexer
	if es := container.GetES(); es != nil {
		index = search.NewUserIndex(es, cfg.ESUsersIndex)
	}

	service := appuser.NewService(
		domainsvc.NewUserService(repo),
		index,
		notifier,
		container.GetRedis(),
		cfg.UserCacheTTL,
		container.GetLogger(),
	)

	return UserModuleDeps{
		Repo:    repo,
		Service: service,
		Handler: handlers.NewUserHandler(service, container.GetLogger()),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	rdb := container.GetRedis()
	var validator middleware.TokenValidator
	if v := container.GetValidator(); v != nil {
		validator = v
	}

	ipLimiter := middleware.Limit(rdb, cfg.RateLimitPerMinute, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())

	userDeps := buildUserDeps()
	auth := middleware.Bearer(validator, logger)
	if !cfg.ProtectUserRoutes {
		auth = nil
		logger.Warn("user routes are not protected by bearer authentication")
	}
	r.Add(modules.NewUserModule(userDeps.Handler, auth,
		ipLimiter,
		middleware.Limit(rdb, cfg.UserRateLimitPerMinute, time.Minute, middleware.KeyByUserID(), nil),
	))

	r.Add(modules.NewAuthModule(
		handlers.NewAuthHandler(cfg.EntraRequiredScope, logger),
		validator,
		logger,
		cfg.DebugEndpointsEnabled,
		ipLimiter,
	))

	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(middleware.Limit(rdb, 120, time.Minute, middleware.KeyByIPAndPath(), nil)))
	}
}
