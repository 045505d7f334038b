package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"mentoring-svc/src/clients"
	"mentoring-svc/src/internal/activity"
	"mentoring-svc/src/internal/credential"
	"mentoring-svc/src/internal/middleware"
	"mentoring-svc/src/internal/models"
	"mentoring-svc/src/internal/response"
	"mentoring-svc/src/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	ModeLogin    = "login"
	ModeExternal = "external"
)

type Handler interface {
	LoginForm(c *gin.Context)
	Login(c *gin.Context)
	Logout(c *gin.Context)
	ImpersonateForm(c *gin.Context)
	Impersonate(c *gin.Context)
}

// IdentityProvider checks credentials against the school's external login.
type IdentityProvider interface {
	Authenticate(ctx context.Context, username, password string) (*clients.Identity, error)
}

type LoginRequest struct {
	Mode     string `form:"mode" json:"mode"`
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

type handler struct {
	credentials credential.Service
	sessions    session.Service
	identity    IdentityProvider
	activity    activity.Service
	cookie      middleware.CookieSettings
	timeout     time.Duration
}

// NewHandler builds the login handler. identity may be nil, which disables external login.
func NewHandler(credentials credential.Service, sessions session.Service, identity IdentityProvider,
	activityService activity.Service, cookie middleware.CookieSettings, timeout time.Duration) Handler {
	return &handler{
		credentials: credentials,
		sessions:    sessions,
		identity:    identity,
		activity:    activityService,
		cookie:      cookie,
		timeout:     timeout,
	}
}

func (h *handler) LoginForm(c *gin.Context) {
	modes := []string{ModeLogin}
	if h.identity != nil {
		modes = append(modes, ModeExternal)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"modes": modes}})
}

func (h *handler) Login(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Invalid(c, models.NewValidationError("malformed login form"), nil)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Mode == "" {
		req.Mode = ModeLogin
	}
	if req.Username == "" || req.Password == "" {
		response.Invalid(c, models.NewValidationError("username and password are required"), gin.H{"username": req.Username, "mode": req.Mode})
		return
	}

	action := models.ActionLogin
	switch req.Mode {
	case ModeLogin:
		if err := h.credentials.Verify(ctx, req.Username, req.Password); err != nil {
			h.loginFailed(c, err, req)
			return
		}
	case ModeExternal:
		if h.identity == nil {
			response.Invalid(c, models.NewValidationError("external login is not enabled"), gin.H{"mode": req.Mode})
			return
		}
		id, err := h.identity.Authenticate(ctx, req.Username, req.Password)
		if err != nil {
			h.loginFailed(c, err, req)
			return
		}
		err = h.credentials.UpsertFromExternalIdentity(ctx, credential.ExternalIdentity{
			Username:   req.Username,
			Password:   req.Password,
			LastName:   id.LastName,
			FirstName:  id.FirstName,
			MiddleName: id.MiddleName,
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		action = models.ActionLoginExternal
	default:
		response.Invalid(c, models.NewValidationError("unknown login mode"), gin.H{"mode": req.Mode})
		return
	}

	h.startSession(ctx, c, req.Username, action)
}

func (h *handler) loginFailed(c *gin.Context, err error, req LoginRequest) {
	if errors.Is(err, models.ErrAuthentication) {
		logrus.WithFields(logrus.Fields{"username": req.Username, "mode": req.Mode}).Info("Login failed")
	}
	response.Error(c, err)
}

func (h *handler) startSession(ctx context.Context, c *gin.Context, username, action string) {
	token, err := h.sessions.Issue(ctx, username)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cookie.Set(c, token)
	h.activity.Record(ctx, activity.Entry(c, username, action))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"username": username},
		"message": "Logged in",
	})
}

func (h *handler) Logout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	username := middleware.Username(c)
	if err := h.sessions.Revoke(ctx, username); err != nil {
		response.Error(c, err)
		return
	}

	h.cookie.Clear(c)
	h.activity.Record(ctx, activity.Entry(c, username, models.ActionLogout))

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

func (h *handler) ImpersonateForm(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	users, err := h.credentials.List(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"users": users}})
}

func (h *handler) Impersonate(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	target := strings.TrimSpace(c.PostForm("username"))
	if target == "" {
		response.Invalid(c, models.NewValidationError("username is required"), nil)
		return
	}

	actor := middleware.Username(c)
	if actor == "" {
		actor = "localhost"
	}

	logrus.WithFields(logrus.Fields{
		"actor":     actor,
		"target":    target,
		"client_ip": c.ClientIP(),
	}).Warn("Impersonating user")

	token, err := h.sessions.Issue(ctx, target)
	if err != nil {
		response.Error(c, err)
		return
	}

	entry := activity.Entry(c, target, models.ActionImpersonate)
	entry.Actor = actor
	h.activity.Record(ctx, entry)

	h.cookie.Set(c, token)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"username": target}})
}
