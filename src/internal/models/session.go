package models

import "time"

// Session is the token currently bound to a user, as stored on the user row and in the cache.
type Session struct {
	Token    string    `json:"token"`
	Username string    `json:"username"`
	IssuedAt time.Time `json:"issued_at"`
}
