package mq

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "events"

	// trace id travels in this AMQP header
	TraceHeader = "x-trace-id"
)

// NewConnection dials RabbitMQ; name shows up as the connection name in the management UI.
func NewConnection(url, name string) (*amqp091.Connection, error) {
	props := amqp091.NewConnectionProperties()
	props.SetClientConnectionName(name)

	conn, err := amqp091.DialConfig(url, amqp091.Config{
		Heartbeat:  10 * time.Second,
		Locale:     "en_US",
		Properties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ as %s: %w", name, err)
	}
	return conn, nil
}

// DeclareExchange declares the events exchange.
func DeclareExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

func traceFromHeaders(h amqp091.Table) string {
	if h == nil {
		return ""
	}
	if v, ok := h[TraceHeader].(string); ok {
		return v
	}
	return ""
}
