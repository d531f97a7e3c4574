package transport

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO with a single consumer. Once failed it hands
// out what is left and then the error.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	err   error
	ready chan struct{}
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{}, 1)}
}

func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	if q.err != nil {
		err := q.err
		q.mu.Unlock()
		return err
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.signal()
	return nil
}

// Fail records the terminal error. Only the first call counts.
func (q *Queue[T]) Fail(err error) {
	q.mu.Lock()
	if q.err == nil {
		q.err = err
	}
	q.mu.Unlock()
	q.signal()
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *Queue[T]) TryPop() (T, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) > 0 {
		v := q.items[0]
		q.items[0] = zero
		q.items = q.items[1:]
		return v, true, nil
	}
	return zero, false, q.err
}

func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		v, ok, err := q.TryPop()
		if ok || err != nil {
			return v, err
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-q.ready:
		}
	}
}
