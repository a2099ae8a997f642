package coursechat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueueRunsInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := newTaskQueue(ctx)

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 50; i++ {
		i := i
		require.True(t, q.push(func(context.Context) {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	require.True(t, q.await(ctx, func(context.Context) {}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestTaskQueueCancelDropsPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := newTaskQueue(ctx)

	block := make(chan struct{})
	ran := make(chan struct{}, 1)
	q.push(func(context.Context) { <-block })
	q.push(func(context.Context) { ran <- struct{}{} })

	cancel()
	close(block)

	select {
	case <-q.done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	select {
	case <-ran:
		t.Fatal("queued task ran after cancel")
	default:
	}
	assert.False(t, q.push(func(context.Context) {}))
	assert.False(t, q.await(context.Background(), func(context.Context) {}))
}

func TestTaskQueueAwaitHonorsCallerContext(t *testing.T) {
	qctx, qcancel := context.WithCancel(context.Background())
	defer qcancel()
	q := newTaskQueue(qctx)

	block := make(chan struct{})
	defer close(block)
	q.push(func(context.Context) { <-block })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, q.await(ctx, func(context.Context) {}))
}
