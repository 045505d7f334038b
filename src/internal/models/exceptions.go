package models

import "errors"

var (
	ErrRedisConnection = errors.New("redis connection error")
	ErrRedisGet        = errors.New("redis get error")
	ErrRedisSet        = errors.New("redis set error")
	ErrRedisDelete     = errors.New("redis delete error")
)

var (
	// ErrAuthentication covers bad credentials and missing, unknown or expired session tokens.
	// It never says which of those it was.
	ErrAuthentication = errors.New("invalid credentials")
	ErrUserNotFound   = errors.New("user not found")
	ErrForbidden      = errors.New("forbidden")
)

var (
	ErrMeetingNotFound = errors.New("meeting not found")
	// ErrMeetingUnavailable is returned when a meeting does not exist or the
	// requester has no role on it.
	ErrMeetingUnavailable = errors.New("meeting does not exist or you do not have permission")
	ErrSlotTaken          = errors.New("slot no longer available")
	ErrOwnMeeting         = errors.New("cannot register for your own meeting")
)

var (
	ErrDatabaseConnection = errors.New("database connection error")
	ErrDatabaseQuery      = errors.New("database query error")
	ErrDatabaseInsert     = errors.New("database insert error")
	ErrDatabaseUpdate     = errors.New("database update error")
	ErrDatabaseDelete     = errors.New("database delete error")
	ErrDuplicateRecord    = errors.New("duplicate record")
)

var (
	ErrIdentityProvider = errors.New("identity provider error")
	ErrPublish          = errors.New("notification publish error")
)
