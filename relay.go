package nanitws

import "sync"

// relay hands values from a producer that must never block to a single consumer, in
// push order. Pushing after finish is not allowed.
type relay[T any] struct {
	queue    *subscription[T]
	finished chan struct{}
	once     sync.Once
}

func newRelay[T any]() *relay[T] {
	return &relay[T]{
		queue:    &subscription[T]{notify: make(chan struct{}, 1)},
		finished: make(chan struct{}),
	}
}

func (r *relay[T]) push(v T) {
	r.queue.push(v)
}

// finish lets run return once everything pushed so far was delivered.
func (r *relay[T]) finish() {
	r.once.Do(func() { close(r.finished) })
}

// run calls deliver for every pushed value until finish was called and the queue is
// empty. It stops early when deliver returns false.
func (r *relay[T]) run(deliver func(T) bool) {
	for {
		for _, v := range r.queue.drain() {
			if !deliver(v) {
				return
			}
		}

		select {
		case <-r.queue.notify:
		case <-r.finished:
			for _, v := range r.queue.drain() {
				if !deliver(v) {
					return
				}
			}
			return
		}
	}
}
