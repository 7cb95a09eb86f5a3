package locker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "group:7", GroupKey(7))
	assert.Equal(t, "progress:3:12", ProgressKey(3, 12))
}

func TestMemory_SerializesSameKey(t *testing.T) {
	l := NewMemory()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "group:1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Zero(t, l.size(), "entries are dropped once released")
}

func TestMemory_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewMemory()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "group:1")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "group:2")
	require.NoError(t, err)
	unlockB()
}

func TestMemory_HonoursContext(t *testing.T) {
	l := NewMemory()

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Zero(t, l.size())
}

func TestMemory_UnlockIsIdempotent(t *testing.T) {
	l := NewMemory()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	unlock()
	unlock()

	again, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	again()
}
