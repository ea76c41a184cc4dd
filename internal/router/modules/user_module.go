package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-entra-users/internal/interface/http"
)

// UserModule wires the user CRUD handlers.
// Routes (under /api):
//
//	GET    /usuarios
//	GET    /usuarios/search?q=&size=
//	GET    /usuarios/:id
//	POST   /usuarios
//	PUT    /usuarios/:id
//	PUT    /usuarios          (id in body or ?id=)
//	DELETE /usuarios/:id
type UserModule struct {
	Handler *handlers.UserHandler
	// Auth guards every route when set.
	Auth     gin.HandlerFunc
	Limiters []gin.HandlerFunc
}

func NewUserModule(h *handlers.UserHandler, auth gin.HandlerFunc, limiters ...gin.HandlerFunc) *UserModule {
	return &UserModule{Handler: h, Auth: auth, Limiters: limiters}
}

func (m *UserModule) Name() string { return "users" }

func (m *UserModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/usuarios")
	if m.Auth != nil {
		g.Use(m.Auth)
	}
	g.Use(m.Limiters...)
	{
		g.GET("", m.Handler.List)
		g.GET("/search", m.Handler.Search)
		g.GET("/:id", m.Handler.Get)
		g.POST("", m.Handler.Insert)
		g.PUT("", m.Handler.Edit)
		g.PUT("/:id", m.Handler.Edit)
		g.DELETE("/:id", m.Handler.Delete)
	}
}
