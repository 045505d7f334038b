package meeting

import (
	"strings"
	"time"

	"mentoring-svc/src/internal/models"
)

const formLayout = "2006-01-02 15:04"

// EnlistForm is the enlistment form. Date may be empty when Start and End carry full timestamps.
type EnlistForm struct {
	Mode  string `form:"mode" json:"mode"`
	Date  string `form:"date" json:"date"`
	Start string `form:"start" json:"start"`
	End   string `form:"end" json:"end"`
	Notes string `form:"notes" json:"notes"`
}

// Window parses the form into instants in loc.
func (f *EnlistForm) Window(loc *time.Location) (time.Time, time.Time, error) {
	if strings.TrimSpace(f.Start) == "" || strings.TrimSpace(f.End) == "" {
		return time.Time{}, time.Time{}, models.NewValidationError("start and end times are required")
	}

	start, err := parseFormTime(f.Date, f.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseFormTime(f.Date, f.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func parseFormTime(date, clock string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(clock)
	if d := strings.TrimSpace(date); d != "" {
		value = d + " " + value
	}

	t, err := time.ParseInLocation(formLayout, value, loc)
	if err != nil {
		return time.Time{}, models.NewValidationError("times must look like 2006-01-02 15:04")
	}
	return t, nil
}
