package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/go-entra-users/internal/interface/http"
	"github.com/oksasatya/go-entra-users/internal/interface/middleware"
)

type AuthModule struct {
	Handler      *handlers.AuthHandler
	Validator    middleware.TokenValidator
	Logger       *logrus.Logger
	DebugEnabled bool
	Limiter      gin.HandlerFunc
}

func NewAuthModule(h *handlers.AuthHandler, v middleware.TokenValidator, logger *logrus.Logger, debugEnabled bool, limiter gin.HandlerFunc) *AuthModule {
	return &AuthModule{Handler: h, Validator: v, Logger: logger, DebugEnabled: debugEnabled, Limiter: limiter}
}

func (m *AuthModule) Name() string { return "auth" }

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/auth")
	if m.Limiter != nil {
		g.Use(m.Limiter)
	}

	g.GET("/public", m.Handler.Public)
	g.GET("/me", middleware.Bearer(m.Validator, m.Logger), m.Handler.Me)

	// Diagnostics are anonymous-friendly: a token is read when present, never required.
	if m.DebugEnabled {
		optional := middleware.OptionalBearer(m.Validator, m.Logger)
		g.GET("/debug/headers", optional, m.Handler.DebugHeaders)
		g.GET("/debug/auth-test", optional, m.Handler.DebugAuthTest)
	}
}
