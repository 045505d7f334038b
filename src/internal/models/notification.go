package models

import "time"

// Notification is published to the counterpart of a meeting when the other side acts on it.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	MeetingID int64     `json:"meeting_id"`
	Recipient string    `json:"recipient"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason,omitempty"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	NotifyMeetingCancelled = "meeting_cancelled"
	NotifyMenteeRegistered = "mentee_registered"
	NotifyMenteeLeft       = "mentee_left"
)
