package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mentoring-svc/src/internal/meeting"

	ics "github.com/arran4/golang-ical"
)

const placeholderSummary = "Mentoring placeholder"

type Service interface {
	Feed(ctx context.Context, username string) (string, error)
	FeedToken(username string) (string, error)
	ParseFeedToken(token string) (string, error)
}

// MeetingLister is the part of the meeting registry the feed reads.
type MeetingLister interface {
	ListFor(ctx context.Context, username string) (*meeting.Overview, error)
}

type Options struct {
	MailDomain     string
	MeetingBaseURL string
	// LegacyOffset is subtracted from every emitted time. Zero emits the real instants.
	LegacyOffset time.Duration
	SigningKey   []byte
	TokenTTL     time.Duration
	Now          func() time.Time
}

type calendarService struct {
	meetings MeetingLister
	opts     Options
}

func NewService(meetings MeetingLister, opts Options) Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.TokenTTL = defaultTTL(opts.TokenTTL)
	opts.MeetingBaseURL = strings.TrimRight(opts.MeetingBaseURL, "/")
	return &calendarService{meetings: meetings, opts: opts}
}

func (s *calendarService) Feed(ctx context.Context, username string) (string, error) {
	overview, err := s.meetings.ListFor(ctx, username)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//mentoring-svc//meetings//EN")

	stamp := s.opts.Now()
	for _, l := range overview.AsMentor {
		s.addEvent(cal, l, username, meeting.RoleMentor, stamp)
	}
	for _, l := range overview.AsMentee {
		s.addEvent(cal, l, username, meeting.RoleMentee, stamp)
	}

	return cal.Serialize(), nil
}

func (s *calendarService) addEvent(cal *ics.Calendar, l *meeting.Listing, username, role string, stamp time.Time) {
	url := fmt.Sprintf("%s/%d", s.opts.MeetingBaseURL, l.ID)

	summary := l.Counterpart.DisplayName
	organizer := l.Counterpart.Username
	if l.Unfilled || organizer == "" {
		summary = placeholderSummary
		organizer = username
	}

	description := fmt.Sprintf("You are the %s.\n%s", role, url)
	if l.Notes != "" {
		description += "\n\n" + l.Notes
	}

	event := cal.AddEvent(fmt.Sprintf("meeting-%d@%s", l.ID, s.opts.MailDomain))
	event.SetDtStampTime(stamp)
	event.SetStartAt(l.Start.Add(-s.opts.LegacyOffset))
	event.SetEndAt(l.End.Add(-s.opts.LegacyOffset))
	event.SetSummary(summary)
	event.SetDescription(description)
	event.SetURL(url)
	event.SetOrganizer(fmt.Sprintf("mailto:%s@%s", organizer, s.opts.MailDomain))
}
