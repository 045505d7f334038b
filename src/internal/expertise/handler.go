package expertise

import (
	"context"
	"time"

	"mentoring-svc/src/internal/activity"
	"mentoring-svc/src/internal/middleware"
	"mentoring-svc/src/internal/models"
	"mentoring-svc/src/internal/response"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	Get(c *gin.Context)
	Submit(c *gin.Context)
}

type handler struct {
	service  Service
	activity activity.Service
	timeout  time.Duration
}

func NewHandler(service Service, activityService activity.Service, timeout time.Duration) Handler {
	return &handler{service: service, activity: activityService, timeout: timeout}
}

// Get returns the catalog alongside the user's current selection.
func (h *handler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	catalog, err := h.service.Catalog(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	current, err := h.service.ForUser(ctx, middleware.Username(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"catalog":     catalog,
		"year_groups": YearGroups,
		"current":     current,
	})
}

func (h *handler) Submit(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var req SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Invalid(c, models.NewValidationError("malformed expertise form"), nil)
		return
	}

	username := middleware.Username(c)
	if err := h.service.Replace(ctx, username, &req); err != nil {
		response.Error(c, err)
		return
	}

	h.activity.Record(ctx, activity.Entry(c, username, models.ActionExpertiseUpdated))

	current, err := h.service.ForUser(ctx, username)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, current)
}
