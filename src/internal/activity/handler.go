package activity

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"mentoring-svc/src/internal/middleware"
	"mentoring-svc/src/internal/models"
	"mentoring-svc/src/internal/response"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	Recent(c *gin.Context)
}

type handler struct {
	service Service
	timeout time.Duration
}

func NewHandler(service Service, timeout time.Duration) Handler {
	return &handler{service: service, timeout: timeout}
}

func (h *handler) Recent(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}

	entries, err := h.service.Recent(ctx, middleware.Username(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	if entries == nil {
		entries = []*models.ActivityEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
}

// Entry builds an audit entry carrying the request's client details.
func Entry(c *gin.Context, username, action string) *models.ActivityEntry {
	return &models.ActivityEntry{
		Username:  username,
		Action:    action,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
