package credential

import (
	"context"
	"net/http"
	"time"

	"mentoring-svc/src/internal/models"
	"mentoring-svc/src/internal/response"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	CreateUser(c *gin.Context)
	ListUsers(c *gin.Context)
}

type handler struct {
	service Service
	timeout time.Duration
}

func NewHandler(service Service, timeout time.Duration) Handler {
	return &handler{service: service, timeout: timeout}
}

func (h *handler) CreateUser(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var req CreateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Invalid(c, models.NewValidationError("malformed user form"), nil)
		return
	}

	profile, err := h.service.Create(ctx, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": profile})
}

func (h *handler) ListUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	users, err := h.service.List(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, users)
}
