package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"lifeboard/pkg/metrics"
	"lifeboard/pkg/otel"
	"lifeboard/pkg/trace"
	"lifeboard/pkg/util"
)

// MessageHandler processes one delivery. Returning an error triggers the retry policy.
type MessageHandler func(ctx context.Context, routingKey string, data json.RawMessage) error

// RetryCounter counts attempts per message across redeliveries.
type RetryCounter interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type Consumer struct {
	channel     *amqp091.Channel
	queue       amqp091.Queue
	routingKeys []string
	handler     MessageHandler
	conn        *amqp091.Connection
	logger      *zap.Logger
	retries     RetryCounter
	maxRetries  int64
}

// NewConsumer declares a durable queue bound to every routing key, dead-lettering to events.dlq.
func NewConsumer(url, queueName string, routingKeys []string, logger *zap.Logger) (*Consumer, error) {
	conn, err := NewConnection(url, "lifeboard-consumer-"+queueName)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	fail := func(format string, err error) (*Consumer, error) {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf(format, err)
	}

	if err := DeclareExchange(ch); err != nil {
		return fail("failed to declare exchange: %w", err)
	}
	args, err := declareDeadLetter(ch, queueName)
	if err != nil {
		return fail("%w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		args,
	)
	if err != nil {
		return fail("failed to declare queue: %w", err)
	}

	for _, key := range routingKeys {
		if err := ch.QueueBind(q.Name, key, ExchangeName, false, nil); err != nil {
			return fail("failed to bind queue: %w", err)
		}
	}

	if err := ch.Qos(16, 0, false); err != nil {
		return fail("failed to set qos: %w", err)
	}

	logger.Info("Consumer initialized",
		zap.Strings("routing_keys", routingKeys),
		zap.String("queue", queueName),
		zap.String("exchange", ExchangeName),
	)

	return &Consumer{
		conn:        conn,
		channel:     ch,
		queue:       q,
		routingKeys: routingKeys,
		logger:      logger,
		maxRetries:  3,
	}, nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

// WithRetries enables bounded requeueing of retryable failures.
func (c *Consumer) WithRetries(counter RetryCounter, max int64) *Consumer {
	c.retries = counter
	c.maxRetries = max
	return c
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// StartConsuming blocks until ctx is cancelled or the channel closes.
func (c *Consumer) StartConsuming(ctx context.Context) error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	deliveries, err := c.channel.Consume(
		c.queue.Name,
		"worker",
		false, // 手动ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started consuming messages",
		zap.String("queue", c.queue.Name),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handle(ctx, msg)
		}
	}
}

// handle 保证每条消息都会被 ack 或 nack
func (c *Consumer) handle(parent context.Context, msg amqp091.Delivery) {
	ctx, span := otel.MQConsumeSpan(parent, c.queue.Name, msg.RoutingKey, msg.Headers)
	defer span.End()
	if traceID := traceFromHeaders(msg.Headers); traceID != "" {
		ctx = trace.WithContext(ctx, traceID)
	}
	log := c.logger.With(
		zap.String("routing_key", msg.RoutingKey),
		zap.String("message_id", msg.MessageId),
		zap.String("trace_id", trace.FromContext(ctx)),
	)
	start := time.Now()
	defer func() {
		metrics.RecordMQConsumeLatency(msg.RoutingKey, c.queue.Name, time.Since(start))
	}()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Handler panic recovered", zap.Any("panic", r))
			// panic 不重试，直接进死信
			if err := msg.Nack(false, false); err != nil {
				log.Error("Failed to nack message after panic", zap.Error(err))
			}
		}
	}()

	err := c.handler(ctx, msg.RoutingKey, msg.Body)
	if err == nil {
		if c.retries != nil && msg.MessageId != "" {
			_ = c.retries.Reset(ctx, util.FormatRetryKey(c.queue.Name, msg.MessageId))
		}
		if err := msg.Ack(false); err != nil {
			log.Error("Failed to ack message", zap.Error(err))
		}
		return
	}

	span.RecordError(err)
	requeue := c.shouldRequeue(ctx, msg, err)
	log.Error("Handler error", zap.Error(err), zap.Bool("requeue", requeue))
	if err := msg.Nack(false, requeue); err != nil {
		log.Error("Failed to nack message", zap.Error(err))
	}
}

func (c *Consumer) shouldRequeue(ctx context.Context, msg amqp091.Delivery, err error) bool {
	retryable, kind := util.IsRetryableError(err)
	if !retryable {
		c.logger.Warn("Non-retryable error, dead-lettering",
			zap.String("message_id", msg.MessageId),
			zap.String("error_type", kind),
		)
		return false
	}
	if c.retries == nil || msg.MessageId == "" {
		return !msg.Redelivered
	}
	n, cerr := c.retries.IncrementAndGet(ctx, util.FormatRetryKey(c.queue.Name, msg.MessageId))
	if cerr != nil {
		return !msg.Redelivered
	}
	return util.ShouldRetry(n, c.maxRetries, true)
}
