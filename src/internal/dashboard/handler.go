package dashboard

import (
	"context"
	"time"

	"mentoring-svc/src/internal/credential"
	"mentoring-svc/src/internal/expertise"
	"mentoring-svc/src/internal/meeting"
	"mentoring-svc/src/internal/middleware"
	"mentoring-svc/src/internal/models"
	"mentoring-svc/src/internal/response"

	"github.com/gin-gonic/gin"
)

const (
	ActionDeregister = "deregister_meeting"
	ActionRegister   = "register_meeting"
	ActionExpertise  = "expertise"
)

type Handler interface {
	Index(c *gin.Context)
	Dispatch(c *gin.Context)
}

// Overview is everything the landing page shows.
type Overview struct {
	Profile   *credential.Profile  `json:"profile"`
	Meetings  *meeting.Overview    `json:"meetings"`
	Expertise *expertise.Expertise `json:"expertise"`
}

type handler struct {
	credentials credential.Service
	meetings    meeting.Service
	expertise   expertise.Service

	meetingHandler   meeting.Handler
	expertiseHandler expertise.Handler

	timeout time.Duration
}

func NewHandler(credentials credential.Service, meetings meeting.Service, expertiseService expertise.Service,
	meetingHandler meeting.Handler, expertiseHandler expertise.Handler, timeout time.Duration) Handler {
	return &handler{
		credentials:      credentials,
		meetings:         meetings,
		expertise:        expertiseService,
		meetingHandler:   meetingHandler,
		expertiseHandler: expertiseHandler,
		timeout:          timeout,
	}
}

func (h *handler) Index(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	username := middleware.Username(c)

	profile, err := h.credentials.Profile(ctx, username)
	if err != nil {
		response.Error(c, err)
		return
	}
	overview, err := h.meetings.ListFor(ctx, username)
	if err != nil {
		response.Error(c, err)
		return
	}
	exp, err := h.expertise.ForUser(ctx, username)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, &Overview{Profile: profile, Meetings: overview, Expertise: exp})
}

// Dispatch routes the landing page's forms by their "action" field.
func (h *handler) Dispatch(c *gin.Context) {
	switch c.PostForm("action") {
	case ActionDeregister:
		h.meetingHandler.Deregister(c)
	case ActionRegister:
		h.meetingHandler.Register(c)
	case ActionExpertise:
		h.expertiseHandler.Submit(c)
	default:
		response.Invalid(c, models.NewValidationError("unknown action"), gin.H{"action": c.PostForm("action")})
	}
}
