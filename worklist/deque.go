package worklist

import (
	"context"
	"sync"
)

// Deque is an unbounded double-ended queue safe for concurrent use.
//
// PopFront blocks until an item is available, which makes the deque the
// hand-off point between the inbound listener (producer) and the retry
// worker (consumer). The wake channel is a single-slot signal, so the
// blocking pop supports one consumer, matching the single-lane design.
type Deque[T any] struct {
	mu    sync.Mutex
	items []T
	wake  chan struct{}
}

// NewDeque creates an empty Deque.
func NewDeque[T any]() *Deque[T] {
	return &Deque[T]{
		wake: make(chan struct{}, 1),
	}
}

// PushBack appends an item to the tail of the queue.
func (q *Deque[T]) PushBack(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	q.signal()
}

// PushFront inserts an item at the head of the queue, ahead of every item
// already enqueued. Used to give failed items retry priority.
func (q *Deque[T]) PushFront(item T) {
	q.mu.Lock()
	q.items = append(q.items, item) // grow by one slot
	copy(q.items[1:], q.items)
	q.items[0] = item
	q.mu.Unlock()

	q.signal()
}

// PopFront removes and returns the item at the head of the queue, blocking
// until an item becomes available or ctx is cancelled.
func (q *Deque[T]) PopFront(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-q.wake:
		}
	}
}

// Len returns the number of items currently queued. Observability only; the
// value may be stale by the time the caller acts on it.
func (q *Deque[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// signal nudges a blocked PopFront without ever blocking the producer.
func (q *Deque[T]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
