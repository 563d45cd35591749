package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLockSerializesSameKey(t *testing.T) {
	l := New()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "A.cls")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.Len())
}

func TestLockDifferentKeys(t *testing.T) {
	l := New()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "A.cls")
	require.NoError(t, err)
	unlockB, err := l.Lock(ctx, "B.cls")
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())

	unlockA()
	unlockB()
	assert.Equal(t, 0, l.Len())
}

func TestLockCancelled(t *testing.T) {
	l := New()
	unlock, err := l.Lock(context.Background(), "A.cls")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "A.cls")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.Len())

	unlock()
	// Repeated calls to unlock are ignored.
	unlock()
	assert.Equal(t, 0, l.Len())
}
