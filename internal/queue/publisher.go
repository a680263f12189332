package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/elys-network/lstvault/internal/engine"
	"github.com/elys-network/lstvault/internal/logger"
)

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends every committed transaction to a durable queue as JSON.
type Publisher struct {
	conn   *amqp.Connection
	ch     Channel
	queue  string
	logger zerolog.Logger
}

var _ engine.EventSink = (*Publisher)(nil)

// Dial connects to url and declares queue.
func Dial(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	p := NewPublisher(ch, queue)
	p.conn = conn
	p.logger.Info().Str("queue", queue).Msg("Connected to the broker")
	return p, nil
}

// NewPublisher publishes on an already opened channel.
func NewPublisher(ch Channel, queue string) *Publisher {
	return &Publisher{
		ch:     ch,
		queue:  queue,
		logger: logger.GetForComponent("queue"),
	}
}

func (p *Publisher) Publish(ctx context.Context, record engine.TxRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode transaction %s: %w", record.TxID, err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    record.TxID,
		Timestamp:    record.Time,
		Type:         record.Action,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish transaction %s to queue %s: %w", record.TxID, p.queue, err)
	}
	p.logger.Debug().Str("tx_id", record.TxID).Str("queue", p.queue).Msg("Transaction published")
	return nil
}

func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
