package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript 首次计数时设置过期时间，INCR 和 PEXPIRE 在同一次调用内完成
var incrScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// RetryCounter counts delivery attempts per message across consumer restarts.
type RetryCounter struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRetryCounter(rdb redis.Cmdable, ttl time.Duration) *RetryCounter {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RetryCounter{rdb: rdb, ttl: ttl}
}

// IncrementAndGet bumps the attempt count for key; the first attempt starts the TTL.
func (r *RetryCounter) IncrementAndGet(ctx context.Context, key string) (int64, error) {
	n, err := incrScript.Run(ctx, r.rdb, []string{key}, r.ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("retry counter %s: %w", key, err)
	}
	return n, nil
}

// Reset forgets key after the message was finally acked or dead-lettered.
func (r *RetryCounter) Reset(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

// FormatRetryKey 生成 retry:<queue>:<message id>
func FormatRetryKey(queue, messageID string) string {
	return fmt.Sprintf("retry:%s:%s", queue, messageID)
}
