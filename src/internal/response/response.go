package response

import (
	"context"
	"errors"
	"net/http"

	"mentoring-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const LoginPath = "/login"

// Error writes the JSON error for err and aborts the chain.
// Invariant violations and unknown errors are logged and reported generically.
func Error(c *gin.Context, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error()})
		return
	}

	switch {
	case errors.Is(err, models.ErrAuthentication):
		Unauthorized(c)
	case errors.Is(err, models.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access forbidden"})
	case errors.Is(err, models.ErrMeetingUnavailable), errors.Is(err, models.ErrMeetingNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUserNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, models.ErrSlotTaken), errors.Is(err, models.ErrOwnMeeting):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDuplicateRecord):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "record already exists"})
	case errors.Is(err, models.ErrIdentityProvider):
		logrus.WithError(err).Warn("Identity provider unavailable")
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "login provider unavailable, try again later"})
	case errors.Is(err, context.DeadlineExceeded):
		logrus.WithError(err).WithField("path", c.FullPath()).Warn("Request timed out")
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		var inv *models.InvariantError
		if errors.As(err, &inv) {
			logrus.WithError(err).WithField("path", c.FullPath()).Error("Invariant violated")
		} else {
			logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Unauthorized points the client at the login prompt.
func Unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": models.ErrAuthentication.Error(),
		"login": LoginPath,
	})
}

// Invalid redisplays a form with a validation message.
func Invalid(c *gin.Context, err error, form any) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"error": err.Error(),
		"form":  form,
	})
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
