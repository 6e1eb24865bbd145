// Package handoff is a single-producer, single-consumer queue where the
// producer may not run ahead of the consumer: every Put after the first
// waits until the consumer has taken the previous item.
package handoff

import (
	"errors"
	"sync"

	"go.uber.org/atomic"
)

var ErrClosed = errors.New("handoff: queue closed")

type Stats struct {
	Put   uint64
	Taken uint64
}

type Queue[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	slot   T
	full   bool
	closed bool

	put   atomic.Uint64
	taken atomic.Uint64
}

func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put blocks until the previous item was taken, then publishes v.
func (q *Queue[T]) Put(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.full && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return ErrClosed
	}

	q.slot = v
	q.full = true
	q.put.Inc()

	// Both sides wait on the same cond with different predicates.
	q.cond.Broadcast()
	return nil
}

// Take blocks while the queue is empty. The item pending at Close is
// still delivered; after that Take returns ErrClosed.
func (q *Queue[T]) Take() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.full && !q.closed {
		q.cond.Wait()
	}

	var zero T
	if !q.full {
		return zero, ErrClosed
	}

	v := q.slot
	q.slot = zero
	q.full = false
	q.taken.Inc()

	q.cond.Broadcast()
	return v, nil
}

// Close wakes every waiter. It is safe to call more than once.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.cond.Broadcast()
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return 1
	}
	return 0
}

func (q *Queue[T]) Stats() Stats {
	return Stats{
		Put:   q.put.Load(),
		Taken: q.taken.Load(),
	}
}
