package activity

import (
	"context"
	"time"

	"mentoring-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

const maxRecent = 100

// Service keeps the audit trail. Recording is best effort: a failure is
// logged and never fails the operation being audited.
type Service interface {
	Record(ctx context.Context, entry *models.ActivityEntry)
	Recent(ctx context.Context, username string, limit int) ([]*models.ActivityEntry, error)
}

type activityService struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &activityService{repo: repo, now: time.Now}
}

func (s *activityService) Record(ctx context.Context, entry *models.ActivityEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"username": entry.Username,
			"action":   entry.Action,
		}).Warn("Failed to record activity")
	}
}

func (s *activityService) Recent(ctx context.Context, username string, limit int) ([]*models.ActivityEntry, error) {
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}
	return s.repo.FindRecent(ctx, username, int64(limit))
}
