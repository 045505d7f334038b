package credential

import (
	"context"
	"errors"
	"strings"
	"sync"

	"mentoring-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

type Service interface {
	// Verify returns models.ErrAuthentication for an unknown user and for a
	// wrong password alike. Both paths run one bcrypt comparison.
	Verify(ctx context.Context, username, password string) error
	UpsertFromExternalIdentity(ctx context.Context, identity ExternalIdentity) error
	Create(ctx context.Context, req *CreateUserRequest) (*Profile, error)
	Profile(ctx context.Context, username string) (*Profile, error)
	DisplayName(ctx context.Context, username string) (string, error)
	List(ctx context.Context) ([]*Profile, error)
}

type credentialService struct {
	repo Repository
	cost int

	dummyOnce sync.Once
	dummyHash string
}

func NewService(repo Repository, cost int) Service {
	if cost <= 0 {
		cost = DefaultCost
	}
	return &credentialService{repo: repo, cost: cost}
}

func (s *credentialService) Verify(ctx context.Context, username, password string) error {
	user, err := s.repo.Get(ctx, username)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		// Spend the same time as a real comparison.
		checkPassword(password, s.dummy())
		logrus.WithField("username", username).Debug("Login attempt for unknown user")
		return models.ErrAuthentication
	case err != nil:
		return err
	}

	if !checkPassword(password, user.PasswordHash) {
		logrus.WithField("username", username).Debug("Login attempt with wrong password")
		return models.ErrAuthentication
	}
	return nil
}

func (s *credentialService) UpsertFromExternalIdentity(ctx context.Context, identity ExternalIdentity) error {
	username := strings.TrimSpace(identity.Username)
	if username == "" {
		return models.NewValidationError("username is required")
	}

	hash, err := hashPassword(identity.Password, s.cost)
	if err != nil {
		return models.NewValidationError(err.Error())
	}

	err = s.repo.UpsertExternal(ctx, &User{
		Username:     username,
		PasswordHash: hash,
		LastName:     identity.LastName,
		FirstName:    identity.FirstName,
		MiddleName:   identity.MiddleName,
	})
	if err != nil {
		logrus.WithError(err).WithField("username", username).Error("Failed to upsert external identity")
		return err
	}

	logrus.WithField("username", username).Info("External identity stored")
	return nil
}

func (s *credentialService) Create(ctx context.Context, req *CreateUserRequest) (*Profile, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, models.NewValidationError("username is required")
	}
	if req.Password == "" {
		return nil, models.NewValidationError("password is required")
	}

	hash, err := hashPassword(req.Password, s.cost)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	user := &User{
		Username:     username,
		PasswordHash: hash,
		LastName:     strings.TrimSpace(req.LastName),
		FirstName:    strings.TrimSpace(req.FirstName),
		MiddleName:   strings.TrimSpace(req.MiddleName),
	}
	if err := s.repo.Insert(ctx, user); err != nil {
		return nil, err
	}

	logrus.WithField("username", username).Info("User created")
	return user.ToProfile(), nil
}

func (s *credentialService) Profile(ctx context.Context, username string) (*Profile, error) {
	user, err := s.repo.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	return user.ToProfile(), nil
}

func (s *credentialService) DisplayName(ctx context.Context, username string) (string, error) {
	p, err := s.Profile(ctx, username)
	if err != nil {
		return "", err
	}
	return p.DisplayName, nil
}

func (s *credentialService) List(ctx context.Context) ([]*Profile, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]*Profile, len(users))
	for i, u := range users {
		profiles[i] = u.ToProfile()
	}
	return profiles, nil
}

func (s *credentialService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := hashPassword("not-a-real-password", s.cost)
		if err != nil {
			logrus.WithError(err).Error("Failed to build dummy hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
