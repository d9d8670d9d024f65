// Package broker publishes change-feed events to an external message
// broker so other services can follow sessions, carts and orders.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const Exchange = "restaurant_events"

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
	Close() error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                       { return nil }

// RoutingKey maps a change-feed entity and action to a topic key such as
// "orders.update" or "sessions.insert".
func RoutingKey(entity, action string) string {
	prefix := entity
	switch entity {
	case "table_sessions":
		prefix = "sessions"
	case "cart_items":
		prefix = "cart"
	}
	return prefix + "." + strings.ToLower(action)
}

type RabbitPublisher struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel

	// amqp091 channels are not safe for concurrent publishing
	mu sync.Mutex
}

var _ Publisher = (*RabbitPublisher)(nil)

// NewRabbitPublisher dials url and declares the durable topic exchange.
func NewRabbitPublisher(url string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // args
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &RabbitPublisher{Conn: conn, Ch: ch}, nil
}

func (r *RabbitPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", routingKey, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	err = r.Ch.PublishWithContext(
		ctx,
		Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s message: %w", routingKey, err)
	}
	return nil
}

func (r *RabbitPublisher) Close() error {
	if err := r.Ch.Close(); err != nil {
		r.Conn.Close()
		return err
	}
	return r.Conn.Close()
}
