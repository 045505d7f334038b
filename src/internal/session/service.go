package session

import (
	"context"
	"time"

	"mentoring-svc/src/internal/cache"
	"mentoring-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

// Service issues and resolves bearer session tokens.
//
// A user holds at most one token: Issue overwrites the previous one, which
// stops resolving immediately. A token resolves while
// issuedAt <= now < issuedAt+Lifetime; use does not extend it.
type Service interface {
	Issue(ctx context.Context, username string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, username string) error
	Lifetime() time.Duration
}

type Options struct {
	Lifetime   time.Duration
	TokenBytes int
	Now        func() time.Time
}

type sessionService struct {
	repo       Repository
	cache      cache.Service
	lifetime   time.Duration
	tokenBytes int
	now        func() time.Time
}

func NewService(repo Repository, cacheService cache.Service, opts Options) Service {
	if opts.Lifetime <= 0 {
		opts.Lifetime = 24 * time.Hour
	}
	if opts.TokenBytes <= 0 {
		opts.TokenBytes = 32
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if cacheService == nil {
		cacheService = cache.NewNoop()
	}

	return &sessionService{
		repo:       repo,
		cache:      cacheService,
		lifetime:   opts.Lifetime,
		tokenBytes: opts.TokenBytes,
		now:        opts.Now,
	}
}

func (s *sessionService) Lifetime() time.Duration {
	return s.lifetime
}

func (s *sessionService) Issue(ctx context.Context, username string) (string, error) {
	token, err := generateToken(s.tokenBytes)
	if err != nil {
		logrus.WithError(err).Error("Failed to generate session token")
		return "", err
	}

	previous, err := s.repo.Store(ctx, username, token, s.now())
	if err != nil {
		logrus.WithError(err).WithField("username", username).Warn("Failed to issue session")
		return "", err
	}

	if previous != "" {
		if err := s.cache.DeleteSession(ctx, previous); err != nil {
			logrus.WithError(err).WithField("username", username).Warn("Previous session still cached")
		}
	}

	logrus.WithField("username", username).Info("Session issued")
	return token, nil
}

func (s *sessionService) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", models.ErrAuthentication
	}
	now := s.now()

	cached, err := s.cache.GetSession(ctx, token)
	if err == nil && cached != nil && cached.Token == token {
		return s.resolveCached(ctx, cached, now)
	}

	sess, err := s.repo.Lookup(ctx, token)
	if err != nil {
		return "", err
	}

	if !s.valid(sess.IssuedAt, now) {
		logrus.WithFields(logrus.Fields{
			"username":  sess.Username,
			"issued_at": sess.IssuedAt,
		}).Debug("Session expired")
		return "", models.ErrAuthentication
	}

	remaining := sess.IssuedAt.Add(s.lifetime).Sub(now)
	if err := s.cache.CacheSession(ctx, sess, remaining); err != nil {
		logrus.WithError(err).Debug("Session not cached")
	}

	return sess.Username, nil
}

// resolveCached trusts the cached issue time but re-checks the binding, since a
// Resolve racing an Issue can write the superseded token back into the cache.
func (s *sessionService) resolveCached(ctx context.Context, cached *models.Session, now time.Time) (string, error) {
	if !s.valid(cached.IssuedAt, now) {
		_ = s.cache.DeleteSession(ctx, cached.Token)
		return "", models.ErrAuthentication
	}

	current, err := s.repo.Current(ctx, cached.Username, cached.Token)
	if err != nil {
		return "", err
	}
	if !current {
		logrus.WithField("username", cached.Username).Debug("Cached session was superseded")
		_ = s.cache.DeleteSession(ctx, cached.Token)
		return "", models.ErrAuthentication
	}

	return cached.Username, nil
}

func (s *sessionService) Revoke(ctx context.Context, username string) error {
	previous, err := s.repo.Clear(ctx, username)
	if err != nil {
		return err
	}

	if previous != "" {
		if err := s.cache.DeleteSession(ctx, previous); err != nil {
			logrus.WithError(err).WithField("username", username).Warn("Revoked session still cached")
		}
	}

	logrus.WithField("username", username).Info("Session revoked")
	return nil
}

func (s *sessionService) valid(issuedAt, now time.Time) bool {
	return !issuedAt.After(now) && now.Sub(issuedAt) < s.lifetime
}
