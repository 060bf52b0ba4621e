package mailqueue

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryCount(t *testing.T) {
	assert.Equal(t, 0, RetryCount(nil))
	assert.Equal(t, 0, RetryCount(amqp.Table{retryHeader: "x"}))
	assert.Equal(t, 2, RetryCount(amqp.Table{retryHeader: int32(2)}))
	assert.Equal(t, 3, RetryCount(amqp.Table{retryHeader: int64(3)}))
}

func TestRetryPublishing(t *testing.T) {
	d := amqp.Delivery{
		ContentType: "application/json",
		Body:        []byte(`{"type":"create_user"}`),
		Headers:     amqp.Table{"trace": "abc"},
	}

	for attempt := 1; attempt <= 3; attempt++ {
		msg, ok := RetryPublishing(d, 3)
		require.True(t, ok, "attempt %d", attempt)
		assert.Equal(t, int32(attempt), msg.Headers[retryHeader])
		assert.Equal(t, "abc", msg.Headers["trace"])
		assert.Equal(t, d.Body, msg.Body)
		assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

		// 重试队列过期后消息带着新的头部回到邮件队列
		d.Headers = msg.Headers
	}

	_, ok := RetryPublishing(d, 3)
	assert.False(t, ok)

	// 原消息的头部不会被修改
	assert.Equal(t, int32(3), d.Headers[retryHeader])
}
