package meeting

import (
	"strings"
	"time"

	"mentoring-svc/src/internal/credential"
)

// UnfilledLabel stands in for the mentee of a meeting nobody registered for.
const UnfilledLabel = "(unfilled)"

const (
	RoleMentor      = "mentor"
	RoleMentee      = "mentee"
	RoleProspective = "prospective"
)

type Meeting struct {
	ID     int64
	Mentor string
	Mentee string // empty while the slot is open
	Start  time.Time
	End    time.Time
	Notes  string
}

type Party struct {
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name"`
}

// Listing is a meeting as seen by one of its parties.
type Listing struct {
	ID          int64     `json:"id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Notes       string    `json:"notes"`
	Counterpart Party     `json:"counterpart"`
	Unfilled    bool      `json:"unfilled,omitempty"`
}

type Overview struct {
	AsMentor []*Listing `json:"as_mentor"`
	AsMentee []*Listing `json:"as_mentee"`
}

type View struct {
	ID     int64     `json:"id"`
	Role   string    `json:"role"`
	Mentor Party     `json:"mentor"`
	Mentee Party     `json:"mentee"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Notes  string    `json:"notes"`
}

func party(username, last, first, middle string) Party {
	if username == "" {
		return Party{DisplayName: UnfilledLabel}
	}
	name := credential.DisplayName(last, first, middle)
	if strings.TrimSpace(name) == "" {
		name = username
	}
	return Party{Username: username, DisplayName: name}
}
