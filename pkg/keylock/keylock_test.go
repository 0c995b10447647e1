package keylock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSerializesSameKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "k")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, l.Len())
}

func TestLocalDifferentKeysDoNotContend(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := l.Lock(ctx, "b")
		if err == nil {
			unlockB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestLocalHonorsContext(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Equal(t, 0, l.Len())
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisRejectsHeldKey(t *testing.T) {
	mr, rdb := newRedis(t)
	l := NewRedis(rdb, "lock:", time.Minute, nil)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:k"))

	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, ErrBusy)

	unlock()
	assert.False(t, mr.Exists("lock:k"))

	unlock2, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	unlock2()
}

func TestRedisUnlockKeepsForeignToken(t *testing.T) {
	mr, rdb := newRedis(t)
	l := NewRedis(rdb, "lock:", time.Second, nil)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	// the TTL lapsed and another instance took the key
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("lock:k", "someone-else"))

	unlock()
	v, err := mr.Get("lock:k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}

func TestStackReleasesOnFailure(t *testing.T) {
	_, rdb := newRedis(t)
	local := NewLocal()
	remote := NewRedis(rdb, "lock:", time.Minute, nil)
	ctx := context.Background()

	held, err := remote.Lock(ctx, "k")
	require.NoError(t, err)

	_, err = Stack{local, remote}.Lock(ctx, "k")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 0, local.Len())

	held()
	unlock, err := Stack{local, remote}.Lock(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, local.Len())
	unlock()
	assert.Equal(t, 0, local.Len())
}
