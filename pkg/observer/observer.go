// Package observer implements a subscriber registry with isolated delivery:
// a panicking subscriber is logged and skipped, never aborting the fan-out to
// the remaining subscribers.
package observer

import (
	"sync"

	"go.uber.org/zap"
)

// List holds an ordered set of subscribers for snapshot values of type T.
// Delivery is synchronous and happens on the caller's goroutine.
type List[T any] struct {
	mu     sync.Mutex
	nextID int
	order  []int
	subs   map[int]func(T)
	log    *zap.Logger
}

func NewList[T any](log *zap.Logger) *List[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &List[T]{
		subs: make(map[int]func(T)),
		log:  log,
	}
}

// Subscribe registers fn and returns a function that removes it again.
// Unsubscribing twice is a no-op.
func (l *List[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.subs[id] = fn
	l.order = append(l.order, id)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

// Len reports the current subscriber count.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

// Notify delivers v to every subscriber in registration order. A subscriber
// panic is recovered and logged; delivery continues with the next subscriber.
func (l *List[T]) Notify(v T) {
	l.mu.Lock()
	fns := make([]func(T), 0, len(l.subs))
	for _, id := range l.order {
		if fn, ok := l.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	// Compact lazily so unsubscribes do not leave the order slice growing
	// without bound.
	if len(l.order) > 2*len(l.subs) {
		kept := l.order[:0]
		for _, id := range l.order {
			if _, ok := l.subs[id]; ok {
				kept = append(kept, id)
			}
		}
		l.order = kept
	}
	l.mu.Unlock()

	for _, fn := range fns {
		l.deliver(fn, v)
	}
}

func (l *List[T]) deliver(fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("observer panicked", zap.Any("panic", r))
		}
	}()
	fn(v)
}
