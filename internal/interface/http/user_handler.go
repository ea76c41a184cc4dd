package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-entra-users/internal/application"
	"github.com/oksasatya/go-entra-users/internal/domain/entity"
	"github.com/oksasatya/go-entra-users/internal/domain/service"
	"github.com/oksasatya/go-entra-users/pkg/response"
	"github.com/oksasatya/go-entra-users/pkg/validation"
)

// UserService is the use-case surface the handler depends on; *application.Service implements it.
type UserService interface {
	Insert(ctx context.Context, req userapp.InsertUserRequest) (userapp.UserResponse, error)
	Edit(ctx context.Context, req userapp.EditUserRequest) (userapp.UserResponse, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (userapp.UserResponse, error)
	List(ctx context.Context) ([]userapp.UserResponse, error)
	Search(ctx context.Context, q string, size int) ([]userapp.UserResponse, error)
}

type UserHandler struct {
	Svc    UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list")
		return
	}
	response.OK(c, http.StatusOK, users, "users", map[string]any{"count": len(users)})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "get")
		return
	}
	response.OK(c, http.StatusOK, u, "user", nil)
}

func (h *UserHandler) Insert(c *gin.Context) {
	var req userapp.InsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Insert(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "insert")
		return
	}
	c.Header("Location", "/api/usuarios/"+strconv.FormatInt(u.ID, 10))
	response.OK(c, http.StatusCreated, u, "user created", nil)
}

// Edit serves PUT /usuarios/:id and PUT /usuarios. Without a path id the id comes from the body,
// then from the ?id= query parameter. A request without a body is bound from the query string.
func (h *UserHandler) Edit(c *gin.Context) {
	var req userapp.EditUserRequest
	bind := c.ShouldBindJSON
	if c.Request.ContentLength == 0 {
		bind = c.ShouldBindQuery
	}
	if err := bind(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	if c.Param("id") != "" {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if req.ID != 0 && req.ID != id {
			response.Fail(c, http.StatusBadRequest, "id in body does not match the path", map[string]string{"id": "mismatch"})
			return
		}
		req.ID = id
	} else if req.ID == 0 {
		if q := c.Query("id"); q != "" {
			id, err := strconv.ParseInt(q, 10, 64)
			if err != nil || id <= 0 {
				response.Fail(c, http.StatusBadRequest, "invalid id", map[string]string{"id": "must be a positive integer"})
				return
			}
			req.ID = id
		}
	}
	if req.ID <= 0 {
		response.Fail(c, http.StatusBadRequest, "invalid payload", map[string]string{"id": "is required"})
		return
	}

	u, err := h.Svc.Edit(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "edit")
		return
	}
	response.OK(c, http.StatusOK, u, "user updated", nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, "delete")
		return
	}
	c.Status(http.StatusNoContent)
}

// Search queries the search index: GET /usuarios/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Fail(c, http.StatusBadRequest, "missing query", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	users, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		h.fail(c, err, "search")
		return
	}
	response.OK(c, http.StatusOK, users, "search results", map[string]any{"count": len(users), "q": q})
}

// fail maps domain errors to status codes. Unexpected errors are logged and answered with a generic 500.
func (h *UserHandler) fail(c *gin.Context, err error, op string) {
	var ve *entity.ValidationError
	switch {
	case errors.As(err, &ve):
		response.Fail(c, http.StatusBadRequest, ve.Error(), map[string]string{ve.Field: ve.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, "user not found", nil)
	default:
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"op":         op,
			"request_id": c.GetString("request_id"),
		}).Error("user request failed")
		response.Fail(c, http.StatusInternalServerError, "internal server error", nil)
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, "invalid id", map[string]string{"id": "must be a positive integer"})
		return 0, false
	}
	return id, true
}

var _ UserService = (*userapp.Service)(nil)
