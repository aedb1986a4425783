package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.EventPublisher = (*RabbitMQEventPublisher)(nil)

// RabbitMQEventPublisher publishes game events (unlocks, completions) to a
// durable queue for downstream consumers. Publishing is best-effort from the
// caller's point of view: the state change has already committed.
type RabbitMQEventPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQEventPublisher opens a channel and declares the events queue.
func NewRabbitMQEventPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*RabbitMQEventPublisher, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	_, err = channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = channel.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	return &RabbitMQEventPublisher{
		channel:   channel,
		queueName: queueName,
		logger:    logger.Named("GameEventPublisher"),
	}, nil
}

// PublishGameEvent marshals the event and publishes it persistently.
func (p *RabbitMQEventPublisher) PublishGameEvent(ctx context.Context, event models.GameEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal game event: %w", err)
	}
	err = p.channel.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish game event",
			zap.String("type", string(event.Type)), zap.Stringer("userID", event.UserID), zap.Error(err))
		return fmt.Errorf("failed to publish game event: %w", err)
	}
	p.logger.Debug("Published game event",
		zap.String("type", string(event.Type)), zap.Stringer("userID", event.UserID))
	return nil
}

// Close releases the channel.
func (p *RabbitMQEventPublisher) Close() error {
	return p.channel.Close()
}
