package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"mentoring-svc/src/internal/models"
	"mentoring-svc/src/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const usernameKey = "username"

// SessionResolver is the part of the session manager the middleware needs.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// AdminChecker decides whether a user may use admin endpoints.
type AdminChecker interface {
	IsAdmin(username string) bool
}

// AuthMiddleware gates routes on the session cookie.
type AuthMiddleware struct {
	sessions   SessionResolver
	admins     AdminChecker
	cookieName string
	timeout    time.Duration
}

func NewAuthMiddleware(sessions SessionResolver, admins AdminChecker, cookieName string, timeout time.Duration) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:   sessions,
		admins:     admins,
		cookieName: cookieName,
		timeout:    timeout,
	}
}

// RequireSession resolves the session cookie and stores the username on the context.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			return
		}
		c.Next()
	}
}

// RequireAdmin must run after RequireSession.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authorizeAdmin(c) {
			return
		}
		c.Next()
	}
}

// RequireAdminOrLoopback lets requests made directly from this host through
// without a session and otherwise requires an admin session.
func (m *AuthMiddleware) RequireAdminOrLoopback() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isLocal(c) {
			c.Next()
			return
		}
		if !m.authenticate(c) || !m.authorizeAdmin(c) {
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	token, err := c.Cookie(m.cookieName)
	if err != nil || token == "" {
		logrus.WithField("path", c.Request.URL.Path).Debug("Request without session cookie")
		response.Unauthorized(c)
		return false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), m.timeout)
	defer cancel()

	username, err := m.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrAuthentication) {
			logrus.WithField("path", c.Request.URL.Path).Debug("Session rejected")
			response.Unauthorized(c)
			return false
		}
		response.Error(c, err)
		return false
	}

	c.Set(usernameKey, username)
	logrus.WithField("username", username).Debug("User authenticated successfully")
	return true
}

func (m *AuthMiddleware) authorizeAdmin(c *gin.Context) bool {
	username := Username(c)
	if username == "" {
		logrus.Error("Username not found in context - ensure RequireSession runs first")
		response.Unauthorized(c)
		return false
	}

	if !m.admins.IsAdmin(username) {
		logrus.WithField("username", username).Warn("User attempted to access admin endpoint without admin privileges")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access forbidden - admin privileges required"})
		return false
	}
	return true
}

// Username returns the authenticated user, or "" outside RequireSession.
func Username(c *gin.Context) string {
	return c.GetString(usernameKey)
}

// forwardingHeaders mark a request relayed by a proxy.
var forwardingHeaders = []string{"X-Forwarded-For", "X-Real-IP", "Forwarded"}

// isLocal is true only for requests made directly from this host. A request
// relayed by a proxy on this host is not local, whatever the proxy claims.
func isLocal(c *gin.Context) bool {
	peer := net.ParseIP(c.RemoteIP())
	if peer == nil || !peer.IsLoopback() {
		return false
	}
	for _, h := range forwardingHeaders {
		if c.GetHeader(h) != "" {
			return false
		}
	}
	return true
}
