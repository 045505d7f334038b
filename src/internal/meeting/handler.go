package meeting

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mentoring-svc/src/internal/activity"
	"mentoring-svc/src/internal/expertise"
	"mentoring-svc/src/internal/middleware"
	"mentoring-svc/src/internal/models"
	"mentoring-svc/src/internal/response"

	"github.com/gin-gonic/gin"
)

const (
	ModeConfirm   = "confirm"
	ModeConfirmed = "confirmed"
)

type Handler interface {
	EnlistForm(c *gin.Context)
	Enlist(c *gin.Context)
	Available(c *gin.Context)
	Register(c *gin.Context)
	Deregister(c *gin.Context)
	View(c *gin.Context)
}

// ExpertiseLookup supplies mentor subjects for the register page.
type ExpertiseLookup interface {
	ForUser(ctx context.Context, username string) (*expertise.Expertise, error)
}

// AvailableMeeting is an open slot together with what its mentor teaches.
type AvailableMeeting struct {
	*Listing
	Subjects  []expertise.Subject `json:"subjects"`
	YearGroup string              `json:"year_group,omitempty"`
}

type handler struct {
	service   Service
	expertise ExpertiseLookup
	activity  activity.Service
	location  *time.Location
	timeout   time.Duration
}

func NewHandler(service Service, expertiseLookup ExpertiseLookup, activityService activity.Service,
	location *time.Location, timeout time.Duration) Handler {
	if location == nil {
		location = time.UTC
	}
	return &handler{
		service:   service,
		expertise: expertiseLookup,
		activity:  activityService,
		location:  location,
		timeout:   timeout,
	}
}

func (h *handler) EnlistForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"layout":   formLayout,
			"timezone": h.location.String(),
			"modes":    []string{ModeConfirm, ModeConfirmed},
		},
	})
}

// Enlist validates the form in confirm mode and creates the meeting in confirmed mode.
func (h *handler) Enlist(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var form EnlistForm
	if err := c.ShouldBind(&form); err != nil {
		response.Invalid(c, models.NewValidationError("malformed enlist form"), nil)
		return
	}
	form.Notes = strings.TrimSpace(form.Notes)

	start, end, err := form.Window(h.location)
	if err != nil {
		response.Invalid(c, err, form)
		return
	}

	username := middleware.Username(c)

	switch form.Mode {
	case ModeConfirm, "":
		if err := h.service.ValidateWindow(start, end); err != nil {
			response.Invalid(c, err, form)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"mode":  ModeConfirmed,
				"start": start,
				"end":   end,
				"notes": form.Notes,
			},
		})
	case ModeConfirmed:
		id, err := h.service.Create(ctx, username, start, end, form.Notes)
		if err != nil {
			var verr *models.ValidationError
			if errors.As(err, &verr) {
				response.Invalid(c, err, form)
				return
			}
			response.Error(c, err)
			return
		}

		entry := activity.Entry(c, username, models.ActionMeetingCreated)
		entry.MeetingID = id
		h.activity.Record(ctx, entry)

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"data":    gin.H{"id": id},
			"message": "Meeting created",
		})
	default:
		response.Invalid(c, models.NewValidationError("unknown enlist mode"), form)
	}
}

func (h *handler) Available(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	listings, err := h.service.ListAvailable(ctx, middleware.Username(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	mentors := make(map[string]*expertise.Expertise)
	available := make([]*AvailableMeeting, 0, len(listings))
	for _, l := range listings {
		mentor := l.Counterpart.Username
		exp, seen := mentors[mentor]
		if !seen {
			exp, err = h.expertise.ForUser(ctx, mentor)
			if errors.Is(err, models.ErrUserNotFound) {
				exp, err = &expertise.Expertise{Subjects: []expertise.Subject{}}, nil
			}
			if err != nil {
				response.Error(c, err)
				return
			}
			mentors[mentor] = exp
		}
		available = append(available, &AvailableMeeting{
			Listing:   l,
			Subjects:  exp.Subjects,
			YearGroup: exp.YearGroup,
		})
	}

	response.OK(c, available)
}

func (h *handler) Register(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	mid, ok := meetingID(c)
	if !ok {
		response.Error(c, models.ErrMeetingUnavailable)
		return
	}

	username := middleware.Username(c)
	if err := h.service.Register(ctx, mid, username); err != nil {
		response.Error(c, err)
		return
	}

	entry := activity.Entry(c, username, models.ActionMeetingRegistered)
	entry.MeetingID = mid
	h.activity.Record(ctx, entry)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Registered for meeting"})
}

func (h *handler) Deregister(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	mid, ok := meetingID(c)
	if !ok {
		response.Error(c, models.ErrMeetingUnavailable)
		return
	}

	username := middleware.Username(c)
	reason := strings.TrimSpace(c.PostForm("reason"))
	if err := h.service.Deregister(ctx, mid, username, reason); err != nil {
		response.Error(c, err)
		return
	}

	entry := activity.Entry(c, username, models.ActionMeetingDeregistered)
	entry.MeetingID = mid
	if reason != "" {
		entry.Metadata = map[string]string{"reason": reason}
	}
	h.activity.Record(ctx, entry)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Left meeting"})
}

func (h *handler) View(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	mid, ok := meetingID(c)
	if !ok {
		response.Error(c, models.ErrMeetingUnavailable)
		return
	}

	view, err := h.service.View(ctx, mid, middleware.Username(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// meetingID reads the meeting id from the path, falling back to the "mid" form field.
// A malformed id reads like an unknown one.
func meetingID(c *gin.Context) (int64, bool) {
	raw := c.Param("mid")
	if raw == "" {
		raw = c.PostForm("mid")
	}
	mid, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || mid <= 0 {
		return 0, false
	}
	return mid, true
}
