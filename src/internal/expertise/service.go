package expertise

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"mentoring-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

type Service interface {
	Catalog(ctx context.Context) ([]Subject, error)
	SyncCatalog(ctx context.Context, subjects []Subject) error
	ForUser(ctx context.Context, username string) (*Expertise, error)
	// Replace makes the submitted subjects the user's whole expertise set.
	Replace(ctx context.Context, username string, req *SubmitRequest) error
}

type expertiseService struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &expertiseService{repo: repo}
}

func (s *expertiseService) Catalog(ctx context.Context) ([]Subject, error) {
	return s.repo.Catalog(ctx)
}

func (s *expertiseService) SyncCatalog(ctx context.Context, subjects []Subject) error {
	for _, subj := range subjects {
		if strings.TrimSpace(subj.ID) == "" || strings.TrimSpace(subj.Name) == "" {
			return fmt.Errorf("subject catalog entry %q has an empty id or name", subj.ID)
		}
	}
	if err := s.repo.UpsertSubjects(ctx, subjects); err != nil {
		return err
	}
	logrus.WithField("subjects", len(subjects)).Info("Subject catalog synced")
	return nil
}

func (s *expertiseService) ForUser(ctx context.Context, username string) (*Expertise, error) {
	return s.repo.ForUser(ctx, username)
}

func (s *expertiseService) Replace(ctx context.Context, username string, req *SubmitRequest) error {
	year, ok := NormalizeYearGroup(strings.TrimSpace(req.YearGroup))
	if !ok {
		return models.NewValidationError(fmt.Sprintf("unknown year group %q", req.YearGroup))
	}

	catalog, err := s.repo.Catalog(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(catalog))
	for _, subj := range catalog {
		known[subj.ID] = true
	}

	seen := map[string]bool{}
	ids := make([]string, 0, len(req.Subjects))
	for _, id := range req.Subjects {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		if !known[id] {
			return models.NewValidationError(fmt.Sprintf("unknown subject %q", id))
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if err := s.repo.Replace(ctx, username, ids, year); err != nil {
		logrus.WithError(err).WithField("username", username).Error("Failed to replace expertise")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"username":   username,
		"subjects":   ids,
		"year_group": year,
	}).Info("Expertise updated")
	return nil
}
