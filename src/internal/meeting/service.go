package meeting

import (
	"context"
	"errors"
	"time"

	"mentoring-svc/src/internal/models"
	"mentoring-svc/src/internal/notification"

	"github.com/sirupsen/logrus"
)

type Service interface {
	// ValidateWindow applies the checks Create applies, without writing anything.
	ValidateWindow(start, end time.Time) error
	Create(ctx context.Context, mentor string, start, end time.Time, notes string) (int64, error)
	Register(ctx context.Context, mid int64, username string) error
	Deregister(ctx context.Context, mid int64, requester, reason string) error
	ListFor(ctx context.Context, username string) (*Overview, error)
	ListAvailable(ctx context.Context, username string) ([]*Listing, error)
	View(ctx context.Context, mid int64, username string) (*View, error)
}

type Options struct {
	// ShowExpired lists meetings that already ended as available.
	ShowExpired bool
	Now         func() time.Time
}

type meetingService struct {
	repo      Repository
	publisher notification.Publisher
	users     UserDirectory
	opts      Options
}

// UserDirectory resolves display names for View.
type UserDirectory interface {
	DisplayName(ctx context.Context, username string) (string, error)
}

func NewService(repo Repository, publisher notification.Publisher, users UserDirectory, opts Options) Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if publisher == nil {
		publisher = notification.NewNoop()
	}
	return &meetingService{repo: repo, publisher: publisher, users: users, opts: opts}
}

func (s *meetingService) ValidateWindow(start, end time.Time) error {
	if !end.After(start) {
		return models.NewValidationError("the meeting must end after it starts")
	}
	if !end.After(s.opts.Now()) {
		return models.NewValidationError("the meeting must end in the future")
	}
	return nil
}

func (s *meetingService) Create(ctx context.Context, mentor string, start, end time.Time, notes string) (int64, error) {
	if err := s.ValidateWindow(start, end); err != nil {
		return 0, err
	}

	id, err := s.repo.Insert(ctx, &Meeting{Mentor: mentor, Start: start, End: end, Notes: notes})
	if err != nil {
		logrus.WithError(err).WithField("mentor", mentor).Error("Failed to create meeting")
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"meeting_id": id,
		"mentor":     mentor,
		"start":      start,
		"end":        end,
	}).Info("Meeting created")
	return id, nil
}

func (s *meetingService) Register(ctx context.Context, mid int64, username string) error {
	n, err := s.repo.ClaimMentee(ctx, mid, username)
	if err != nil {
		return err
	}

	switch {
	case n == 1:
		logrus.WithFields(logrus.Fields{"meeting_id": mid, "mentee": username}).Info("Mentee registered")
		s.notifyRegistered(ctx, mid, username)
		return nil
	case n > 1:
		return models.RowCountError("register meeting", n)
	}

	// The claim failed; work out why for the caller.
	m, err := s.repo.Get(ctx, mid)
	if err != nil {
		return err
	}
	if m.Mentor == username {
		return models.ErrOwnMeeting
	}
	return models.ErrSlotTaken
}

func (s *meetingService) Deregister(ctx context.Context, mid int64, requester, reason string) error {
	m, err := s.repo.Get(ctx, mid)
	if err != nil {
		if errors.Is(err, models.ErrMeetingNotFound) {
			return models.ErrMeetingUnavailable
		}
		return err
	}

	switch {
	case m.Mentor == requester:
		mentees, err := s.repo.DeleteByMentor(ctx, mid, requester)
		if err != nil {
			return err
		}
		switch len(mentees) {
		case 0:
			return models.ErrMeetingUnavailable
		case 1:
		default:
			return models.RowCountError("delete meeting", int64(len(mentees)))
		}

		logrus.WithFields(logrus.Fields{"meeting_id": mid, "mentor": requester}).Info("Meeting cancelled by mentor")
		if mentees[0] != "" {
			s.notify(ctx, models.NotifyMeetingCancelled, m, mentees[0], requester, reason)
		}
		return nil

	case m.Mentee != "" && m.Mentee == requester:
		n, err := s.repo.ClearMentee(ctx, mid, requester)
		if err != nil {
			return err
		}
		switch {
		case n == 0:
			return models.ErrMeetingUnavailable
		case n > 1:
			return models.RowCountError("vacate meeting", n)
		}

		logrus.WithFields(logrus.Fields{"meeting_id": mid, "mentee": requester}).Info("Mentee left meeting")
		s.notify(ctx, models.NotifyMenteeLeft, m, m.Mentor, requester, reason)
		return nil
	}

	return models.ErrMeetingUnavailable
}

func (s *meetingService) ListFor(ctx context.Context, username string) (*Overview, error) {
	asMentor, err := s.repo.ListByMentor(ctx, username)
	if err != nil {
		return nil, err
	}
	asMentee, err := s.repo.ListByMentee(ctx, username)
	if err != nil {
		return nil, err
	}
	return &Overview{AsMentor: asMentor, AsMentee: asMentee}, nil
}

func (s *meetingService) ListAvailable(ctx context.Context, username string) ([]*Listing, error) {
	var endsAfter time.Time
	if !s.opts.ShowExpired {
		endsAfter = s.opts.Now()
	}
	return s.repo.ListOpen(ctx, username, endsAfter)
}

func (s *meetingService) View(ctx context.Context, mid int64, username string) (*View, error) {
	m, err := s.repo.Get(ctx, mid)
	if err != nil {
		if errors.Is(err, models.ErrMeetingNotFound) {
			return nil, models.ErrMeetingUnavailable
		}
		return nil, err
	}

	var role string
	switch {
	case m.Mentor == username:
		role = RoleMentor
	case m.Mentee == username:
		role = RoleMentee
	case m.Mentee == "":
		role = RoleProspective
	default:
		return nil, models.ErrMeetingUnavailable
	}

	return &View{
		ID:     m.ID,
		Role:   role,
		Mentor: s.party(ctx, m.Mentor),
		Mentee: s.party(ctx, m.Mentee),
		Start:  m.Start,
		End:    m.End,
		Notes:  m.Notes,
	}, nil
}

func (s *meetingService) party(ctx context.Context, username string) Party {
	if username == "" {
		return Party{DisplayName: UnfilledLabel}
	}
	if s.users == nil {
		return Party{Username: username, DisplayName: username}
	}
	name, err := s.users.DisplayName(ctx, username)
	if err != nil || name == "" {
		return Party{Username: username, DisplayName: username}
	}
	return Party{Username: username, DisplayName: name}
}

func (s *meetingService) notifyRegistered(ctx context.Context, mid int64, mentee string) {
	m, err := s.repo.Get(ctx, mid)
	if err != nil {
		logrus.WithError(err).WithField("meeting_id", mid).Warn("Registered meeting vanished before notifying mentor")
		return
	}
	s.notify(ctx, models.NotifyMenteeRegistered, m, m.Mentor, mentee, "")
}

func (s *meetingService) notify(ctx context.Context, kind string, m *Meeting, recipient, actor, reason string) {
	err := s.publisher.Publish(ctx, &models.Notification{
		Kind:      kind,
		MeetingID: m.ID,
		Recipient: recipient,
		Actor:     actor,
		Reason:    reason,
		Start:     m.Start.UTC(),
		End:       m.End.UTC(),
	})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"meeting_id": m.ID,
			"kind":       kind,
			"recipient":  recipient,
		}).Warn("Notification not delivered")
	}
}
