package bus

import (
	"context"
	"sync"
)

const DefaultBufferSize = 100

// Queue is an ordered hand-off between one producer and one consumer.
type Queue[T any] struct {
	items chan T

	done      chan struct{}
	closeOnce sync.Once
}

func NewQueue[T any](size int) *Queue[T] {
	if size <= 0 {
		size = DefaultBufferSize
	}

	return &Queue[T]{
		items: make(chan T, size),
		done:  make(chan struct{}),
	}
}

// Publish enqueues item, blocking while the queue is full. It returns false
// once the queue is closed or ctx is done.
func (q *Queue[T]) Publish(ctx context.Context, item T) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return false
	case <-q.done:
		return false
	default:
	}

	select {
	case <-ctx.Done():
		return false
	case <-q.done:
		return false
	case q.items <- item:
		return true
	}
}

// Consume returns the next item in arrival order. Items already queued are
// still returned after Close; ok is false once the queue is closed and empty
// or ctx is done.
func (q *Queue[T]) Consume(ctx context.Context) (T, bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	var zero T

	select {
	case <-ctx.Done():
		return zero, false
	case item := <-q.items:
		return item, true
	default:
	}

	select {
	case <-ctx.Done():
		return zero, false
	case item := <-q.items:
		return item, true
	case <-q.done:
		select {
		case item := <-q.items:
			return item, true
		default:
			return zero, false
		}
	}
}

// Len reports the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Close stops accepting new items. It is safe to call more than once.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}
