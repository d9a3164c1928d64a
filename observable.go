package nanitws

import (
	"context"
	"sync"
)

// Observable holds a single current value with a single writer and any number of
// readers. Subscribers receive the current value first and then every distinct value
// set afterwards, in order. Slow subscribers are queued, never skipped.
type Observable[T any] struct {
	mu     sync.Mutex
	value  T
	equal  func(a, b T) bool
	subs   map[uint64]*subscription[T]
	nextID uint64
}

type subscription[T any] struct {
	mu     sync.Mutex
	queue  []T
	notify chan struct{}
}

func newObservable[T any](initial T, equal func(a, b T) bool) *Observable[T] {
	return &Observable[T]{
		value: initial,
		equal: equal,
		subs:  make(map[uint64]*subscription[T]),
	}
}

// Get returns the current value.
func (o *Observable[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// set stores v and fans it out. Equal consecutive values are dropped. It reports
// whether the value changed.
func (o *Observable[T]) set(v T) bool {
	return o.update(func(T) T { return v })
}

// update applies fn to the current value atomically and publishes the result.
func (o *Observable[T]) update(fn func(T) T) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	v := fn(o.value)
	if o.equal != nil && o.equal(o.value, v) {
		return false
	}
	o.value = v

	for _, s := range o.subs {
		s.push(v)
	}
	return true
}

// Subscribe streams the current value and all later changes until ctx is done, then
// closes the returned channel.
func (o *Observable[T]) Subscribe(ctx context.Context) <-chan T {
	out := make(chan T)
	s := &subscription[T]{notify: make(chan struct{}, 1)}

	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = s
	s.push(o.value)
	o.mu.Unlock()

	go func() {
		defer close(out)
		defer func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		}()

		for {
			for _, v := range s.drain() {
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-s.notify:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Subscribers returns the number of live subscriptions.
func (o *Observable[T]) Subscribers() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

func (s *subscription[T]) push(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscription[T]) drain() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.queue
	s.queue = nil
	return q
}
