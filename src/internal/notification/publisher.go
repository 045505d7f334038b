package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mentoring-svc/src/internal/config"
	"mentoring-svc/src/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

type Publisher interface {
	Publish(ctx context.Context, n *models.Notification) error
}

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type amqpPublisher struct {
	channel Channel
	cfg     *config.RabbitMQConfig
	now     func() time.Time
}

func NewPublisher(channel Channel, cfg *config.RabbitMQConfig) Publisher {
	return &amqpPublisher{channel: channel, cfg: cfg, now: time.Now}
}

func (p *amqpPublisher) Publish(ctx context.Context, n *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = p.now()
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	routingKey := p.cfg.RoutingKey + "." + n.Kind
	err = p.channel.Publish(
		p.cfg.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    n.ID,
			Body:         body,
			Timestamp:    n.Timestamp,
		},
	)
	if err != nil {
		logrus.WithError(err).WithField("meeting_id", n.MeetingID).Error("Failed to publish notification")
		return fmt.Errorf("%w: %v", models.ErrPublish, err)
	}

	logrus.WithFields(logrus.Fields{
		"kind":        n.Kind,
		"meeting_id":  n.MeetingID,
		"recipient":   n.Recipient,
		"exchange":    p.cfg.Exchange,
		"routing_key": routingKey,
	}).Debug("Notification published")

	return nil
}

type noopPublisher struct{}

// NewNoop drops every notification. Used when RabbitMQ is not configured.
func NewNoop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(_ context.Context, n *models.Notification) error {
	logrus.WithFields(logrus.Fields{
		"kind":       n.Kind,
		"meeting_id": n.MeetingID,
		"recipient":  n.Recipient,
	}).Debug("Notification dropped, no broker configured")
	return nil
}
