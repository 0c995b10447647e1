package mq

import (
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestTraceFromHeaders(t *testing.T) {
	assert.Equal(t, "", traceFromHeaders(nil))
	assert.Equal(t, "", traceFromHeaders(amqp091.Table{TraceHeader: 42}))
	assert.Equal(t, "abc", traceFromHeaders(amqp091.Table{TraceHeader: "abc"}))
}

func TestDLQArgs(t *testing.T) {
	args := dlqArgs("activity.q")
	assert.Equal(t, DLQExchangeName, args["x-dead-letter-exchange"])
	assert.Equal(t, "activity.q", args["x-dead-letter-routing-key"])
	assert.Equal(t, "activity.q.dlq", dlqName("activity.q"))
}
