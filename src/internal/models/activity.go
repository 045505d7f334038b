package models

import "time"

// ActivityEntry is one audit log record.
type ActivityEntry struct {
	Username  string            `json:"username" bson:"username"`
	Actor     string            `json:"actor,omitempty" bson:"actor,omitempty"`
	Action    string            `json:"action" bson:"action"`
	MeetingID int64             `json:"meeting_id,omitempty" bson:"meeting_id,omitempty"`
	IPAddress string            `json:"ip_address,omitempty" bson:"ip_address,omitempty"`
	UserAgent string            `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp" bson:"timestamp"`
}

const (
	ActionLogin               = "login"
	ActionLoginExternal       = "login_external"
	ActionLogout              = "logout"
	ActionImpersonate         = "impersonate"
	ActionMeetingCreated      = "meeting_created"
	ActionMeetingRegistered   = "meeting_registered"
	ActionMeetingDeregistered = "meeting_deregistered"
	ActionExpertiseUpdated    = "expertise_updated"
)
