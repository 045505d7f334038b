package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"mentoring-svc/src/internal/config"
	"mentoring-svc/src/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/streadway/amqp"
)

type recordingChannel struct {
	exchange string
	key      string
	msgs     []amqp.Publishing
	err      error
}

func (c *recordingChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange = exchange
	c.key = key
	c.msgs = append(c.msgs, msg)
	return c.err
}

func TestPublish(t *testing.T) {
	ch := &recordingChannel{}
	cfg := &config.RabbitMQConfig{Exchange: "mentoring", RoutingKey: "meeting.notification"}
	p := NewPublisher(ch, cfg)

	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), &models.Notification{
		Kind:      models.NotifyMeetingCancelled,
		MeetingID: 7,
		Recipient: "bob",
		Actor:     "alice",
		Reason:    "sick",
		Start:     start,
		End:       start.Add(time.Hour),
	})
	require.NoError(t, err)

	require.Len(t, ch.msgs, 1)
	msg := ch.msgs[0]
	assert.Equal(t, "mentoring", ch.exchange)
	assert.Equal(t, "meeting.notification.meeting_cancelled", ch.key)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.NotEmpty(t, msg.MessageId)

	var got models.Notification
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, msg.MessageId, got.ID)
	assert.Equal(t, int64(7), got.MeetingID)
	assert.Equal(t, "bob", got.Recipient)
	assert.Equal(t, "sick", got.Reason)
	assert.True(t, got.Start.Equal(start))
}

func TestPublish_ChannelError(t *testing.T) {
	ch := &recordingChannel{err: errors.New("channel closed")}
	p := NewPublisher(ch, &config.RabbitMQConfig{})

	err := p.Publish(context.Background(), &models.Notification{Kind: models.NotifyMenteeLeft})
	assert.ErrorIs(t, err, models.ErrPublish)
}

func TestPublish_CancelledContext(t *testing.T) {
	ch := &recordingChannel{}
	p := NewPublisher(ch, &config.RabbitMQConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, &models.Notification{Kind: models.NotifyMenteeLeft})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ch.msgs)
}
