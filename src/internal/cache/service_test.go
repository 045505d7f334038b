package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"mentoring-svc/src/internal/config"
	"mentoring-svc/src/internal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedService(t *testing.T) (Service, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	svc := NewCacheService(client, &config.Configuration{
		Cache: config.CacheConfig{SessionExpirationMinutes: 10, SessionKeyPrefix: "session"},
	})
	return svc, mock
}

func TestKey_HidesToken(t *testing.T) {
	key := Key("session", "secret-token")

	assert.True(t, strings.HasPrefix(key, "session:"))
	assert.NotContains(t, key, "secret-token")
	assert.Len(t, key, len("session:")+64)
	assert.Equal(t, key, Key("session", "secret-token"))
	assert.NotEqual(t, key, Key("session", "other-token"))
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	svc := NewNoop()

	require.NoError(t, svc.CacheSession(ctx, &models.Session{Token: "t", Username: "u"}, time.Hour))
	got, err := svc.GetSession(ctx, "t")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, svc.DeleteSession(ctx, "t"))
}

func TestGetSession(t *testing.T) {
	ctx := context.Background()
	svc, mock := newMockedService(t)
	key := Key("session", "tok")
	issued := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	data, err := json.Marshal(&models.Session{Token: "tok", Username: "alice", IssuedAt: issued})
	require.NoError(t, err)

	mock.ExpectGet(key).SetVal(string(data))
	got, err := svc.GetSession(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, issued.Equal(got.IssuedAt))

	mock.ExpectGet(key).RedisNil()
	got, err = svc.GetSession(ctx, "tok")
	require.NoError(t, err)
	assert.Nil(t, got)

	mock.ExpectGet(key).SetErr(errors.New("connection reset"))
	_, err = svc.GetSession(ctx, "tok")
	assert.ErrorIs(t, err, models.ErrRedisGet)

	mock.ExpectGet(key).SetVal("{not json")
	_, err = svc.GetSession(ctx, "tok")
	assert.ErrorIs(t, err, models.ErrRedisGet)
}

func TestCacheSession_TTLNeverOutlivesSession(t *testing.T) {
	ctx := context.Background()
	session := &models.Session{Token: "tok", Username: "alice", IssuedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	data, err := json.Marshal(session)
	require.NoError(t, err)
	key := Key("session", "tok")

	tests := []struct {
		name     string
		validFor time.Duration
		ttl      time.Duration
	}{
		{name: "configured window", validFor: 2 * time.Hour, ttl: 10 * time.Minute},
		{name: "capped by remaining validity", validFor: 3 * time.Minute, ttl: 3 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newMockedService(t)
			mock.ExpectSet(key, data, tt.ttl).SetVal("OK")
			require.NoError(t, svc.CacheSession(ctx, session, tt.validFor))
		})
	}

	t.Run("expired sessions are not written", func(t *testing.T) {
		svc, _ := newMockedService(t)
		require.NoError(t, svc.CacheSession(ctx, session, 0))
		require.NoError(t, svc.CacheSession(ctx, session, -time.Second))
	})

	t.Run("write failure", func(t *testing.T) {
		svc, mock := newMockedService(t)
		mock.ExpectSet(key, data, 10*time.Minute).SetErr(errors.New("oom"))
		assert.ErrorIs(t, svc.CacheSession(ctx, session, time.Hour), models.ErrRedisSet)
	})
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	svc, mock := newMockedService(t)
	key := Key("session", "tok")

	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, svc.DeleteSession(ctx, "tok"))

	mock.ExpectDel(key).SetErr(errors.New("readonly"))
	assert.ErrorIs(t, svc.DeleteSession(ctx, "tok"), models.ErrRedisDelete)
}
