package coursechat

import (
	"context"
	"sync"
)

type task func(ctx context.Context)

// taskQueue runs tasks one at a time, in push order, on a single worker
// goroutine. Cancelling the context stops the worker and drops queued tasks.
type taskQueue struct {
	mu      sync.Mutex
	pending []task
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

func newTaskQueue(ctx context.Context) *taskQueue {
	q := &taskQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go q.run(ctx)
	return q
}

func (q *taskQueue) push(t task) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.pending = append(q.pending, t)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

func (q *taskQueue) run(ctx context.Context) {
	defer close(q.done)
	defer q.close()
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
				continue
			}
		}
		next := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		next(ctx)
	}
}

func (q *taskQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.pending = nil
	q.mu.Unlock()
}

// await pushes t and blocks until it has run, ctx is done, or the worker
// stops. It reports false when t did not complete.
func (q *taskQueue) await(ctx context.Context, t task) bool {
	finished := make(chan struct{})
	if !q.push(func(wctx context.Context) {
		defer close(finished)
		t(wctx)
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-ctx.Done():
		return false
	case <-q.done:
		select {
		case <-finished:
			return true
		default:
			return false
		}
	}
}
