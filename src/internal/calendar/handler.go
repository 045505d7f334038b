package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mentoring-svc/src/internal/middleware"
	"mentoring-svc/src/internal/models"
	"mentoring-svc/src/internal/response"

	"github.com/gin-gonic/gin"
)

const feedSuffix = ".ics"

type Handler interface {
	Link(c *gin.Context)
	Feed(c *gin.Context)
}

type handler struct {
	service  Service
	hostLink string
	timeout  time.Duration
}

func NewHandler(service Service, hostLink string, timeout time.Duration) Handler {
	return &handler{service: service, hostLink: strings.TrimRight(hostLink, "/"), timeout: timeout}
}

// Link hands the user a subscription URL for their feed.
func (h *handler) Link(c *gin.Context) {
	username := middleware.Username(c)
	token, err := h.service.FeedToken(username)
	if err != nil {
		response.Error(c, err)
		return
	}

	link := fmt.Sprintf("%s/calendar/%s%s?token=%s",
		h.hostLink, url.PathEscape(username), feedSuffix, url.QueryEscape(token))
	response.OK(c, gin.H{"url": link})
}

// Feed serves /calendar/<username>.ics to whoever holds that user's feed token.
func (h *handler) Feed(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	file := c.Param("file")
	if !strings.HasSuffix(file, feedSuffix) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no such calendar"})
		return
	}

	username, err := h.service.ParseFeedToken(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if strings.TrimSuffix(file, feedSuffix) != username {
		response.Error(c, models.ErrAuthentication)
		return
	}

	body, err := h.service.Feed(ctx, username)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
