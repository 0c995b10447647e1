package mq

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	DLQExchangeName = "events.dlq"
	// dlqMessageTTL 死信保留一周，之后由 broker 丢弃
	dlqMessageTTL = 7 * 24 * time.Hour
)

// dlqName is the dead letter queue paired with a work queue.
func dlqName(queue string) string {
	return queue + ".dlq"
}

// dlqArgs routes rejected messages of queue to the DLQ exchange under the queue's own name,
// so each work queue only sees its own dead letters. The original routing key survives in
// the x-death header.
func dlqArgs(queue string) amqp091.Table {
	return amqp091.Table{
		"x-dead-letter-exchange":    DLQExchangeName,
		"x-dead-letter-routing-key": queue,
	}
}

// declareDeadLetter declares the DLQ exchange and "<queue>.dlq", and returns the arguments
// the work queue must be declared with.
func declareDeadLetter(ch *amqp091.Channel, queue string) (amqp091.Table, error) {
	if err := ch.ExchangeDeclare(
		DLQExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("failed to declare dlq exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		dlqName(queue),
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp091.Table{"x-message-ttl": dlqMessageTTL.Milliseconds()},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare dlq queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, queue, DLQExchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind dlq queue: %w", err)
	}
	return dlqArgs(queue), nil
}
