package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mentoring-svc/src/internal/config"
	"mentoring-svc/src/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Service caches resolved sessions so that hot requests skip the store.
// A miss is (nil, nil).
type Service interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	CacheSession(ctx context.Context, session *models.Session, validFor time.Duration) error
	DeleteSession(ctx context.Context, token string) error
}

type cacheService struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewCacheService(client *redis.Client, cfg *config.Configuration) Service {
	return &cacheService{
		client: client,
		cfg:    &cfg.Cache,
	}
}

// Key hashes the token so raw bearer tokens never appear in redis.
func Key(prefix, token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

func (c *cacheService) GetSession(ctx context.Context, token string) (*models.Session, error) {
	key := Key(c.cfg.SessionKeyPrefix, token)

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.WithField("key", key).Debug("Session not found in cache")
			return nil, nil
		}
		logrus.WithError(err).WithField("key", key).Error("Failed to get session from cache")
		return nil, models.ErrRedisGet
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to unmarshal session from cache")
		return nil, models.ErrRedisGet
	}

	return &session, nil
}

// CacheSession stores the session for at most the configured cache window,
// and never past validFor.
func (c *cacheService) CacheSession(ctx context.Context, session *models.Session, validFor time.Duration) error {
	ttl := time.Duration(c.cfg.SessionExpirationMinutes) * time.Minute
	if validFor < ttl {
		ttl = validFor
	}
	if ttl <= 0 {
		logrus.WithField("username", session.Username).Debug("Session about to expire, not caching")
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		logrus.WithError(err).WithField("username", session.Username).Error("Failed to marshal session for cache")
		return models.ErrRedisSet
	}

	key := Key(c.cfg.SessionKeyPrefix, session.Token)
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logrus.WithError(err).WithField("username", session.Username).Error("Failed to cache session")
		return models.ErrRedisSet
	}

	return nil
}

func (c *cacheService) DeleteSession(ctx context.Context, token string) error {
	key := Key(c.cfg.SessionKeyPrefix, token)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to delete session from cache")
		return models.ErrRedisDelete
	}
	return nil
}

type noopService struct{}

// NewNoop is used when redis is not configured; every lookup misses.
func NewNoop() Service {
	return noopService{}
}

func (noopService) GetSession(context.Context, string) (*models.Session, error) { return nil, nil }

func (noopService) CacheSession(context.Context, *models.Session, time.Duration) error { return nil }

func (noopService) DeleteSession(context.Context, string) error { return nil }
