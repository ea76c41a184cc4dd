package modules

import (
	"expvar"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-entra-users/pkg/metrics"
)

type DebugModule struct {
	Limiter gin.HandlerFunc
}

func NewDebugModule(limiter gin.HandlerFunc) *DebugModule { return &DebugModule{Limiter: limiter} }

func (m *DebugModule) Name() string { return "debug" }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	handlers := []gin.HandlerFunc{}
	if m.Limiter != nil {
		handlers = append(handlers, m.Limiter)
	}
	rg.GET("/debug/vars", append(handlers, gin.WrapH(expvar.Handler()))...)
	rg.GET("/metrics", append(handlers, gin.WrapH(metrics.Handler()))...)
}
