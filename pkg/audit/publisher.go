package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redisctl/im-redis/internal/middleware"
	"github.com/redisctl/im-redis/pkg/model"
)

// NewAMQPPublisher connects to RabbitMQ and declares the durable topic exchange audits are
// published to.
func NewAMQPPublisher(logger *slog.Logger, url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Properties: amqp.Table{"connection_name": "im-redis-audit"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %v", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %v", err)
	}

	err = channel.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %v", exchange, err)
	}

	return &AMQPPublisher{
		logger:   logger,
		conn:     conn,
		channel:  channel,
		exchange: exchange,
	}, nil
}

type AMQPPublisher struct {
	logger   *slog.Logger
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// RoutingKey of an audit is audit.<event>.
func RoutingKey(event model.AuditEvent) string {
	return "audit." + string(event)
}

func (p *AMQPPublisher) Publish(ctx context.Context, audit model.Audit) error {
	body, err := json.Marshal(audit)
	if err != nil {
		return fmt.Errorf("failed to marshal audit: %v", err)
	}

	correlationID, _ := middleware.GetCorrelationID(ctx)
	return p.channel.PublishWithContext(ctx, p.exchange, RoutingKey(audit.Event), false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: correlationID,
		Timestamp:     time.Now(),
		Body:          body,
	})
}

func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}
