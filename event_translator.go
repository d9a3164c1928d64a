package nanitws

import (
	"context"
	"sync"
	"sync/atomic"
)

// Translator drives one Connection per subscription and turns its notifications into
// RawEvents. A Translator serves a single consumer at a time.
type Translator struct {
	factory ConnectionFactory
	cfg     Config
	logger  logger
	active  atomic.Bool
}

// Subscription is the consumer side of a running translation.
type Subscription struct {
	events <-chan RawEvent
	done   chan struct{}
	cancel context.CancelFunc

	mu     sync.Mutex
	reason string
	err    error
}

func NewTranslator(logger logger, cfg Config, factory ConnectionFactory) *Translator {
	return &Translator{
		factory: factory,
		cfg:     cfg.withDefaults(),
		logger:  logger.WithField("component", "translator"),
	}
}

// Subscribe emits EventConnecting, opens a connection to ep and streams its events.
// The events channel is closed after a terminal event or once ctx is done; in both
// cases the connection is closed before Done is signalled.
func (t *Translator) Subscribe(ctx context.Context, ep Endpoint) (*Subscription, error) {
	if !t.active.CompareAndSwap(false, true) {
		return nil, ErrAlreadySubscribed
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan RawEvent)
	sub := &Subscription{
		events: out,
		done:   make(chan struct{}),
		cancel: cancel,
		reason: reasonClientClosing,
	}

	go t.run(ctx, ep, out, sub)

	return sub, nil
}

// Active reports whether a subscription is running.
func (t *Translator) Active() bool {
	return t.active.Load()
}

func (t *Translator) run(ctx context.Context, ep Endpoint, out chan<- RawEvent, sub *Subscription) {
	log := t.logger.WithField("host", ep.Addr())

	defer close(sub.done)
	defer t.active.Store(false)
	defer close(out)
	defer sub.cancel()

	sink := make(chan Notification, t.cfg.EventBuffer)
	conn := t.factory(ep, sink)

	// ended is set when the transport itself finished the sequence.
	var ended bool

	defer func() {
		if !ended {
			sub.setErr(ErrCancelled)
		}
		reason := sub.closeReason()
		log.Debugf("closing transport: %s", reason)
		conn.Close(NormalClosure, reason)
	}()

	if !send(ctx, out, EventConnecting{}) {
		return
	}

	u := ep.URL()
	log.Infof("opening connection to %s", u.String())

	if err := conn.Open(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warnf("cannot open connection: %s", err)
		ended = send(ctx, out, failedEvent(err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-sink:
			if ctx.Err() != nil {
				return
			}
			if !send(ctx, out, translate(n)) {
				return
			}
			if n.Type.IsTerminal() {
				log.Infof("connection terminated: %s", n)
				ended = true
				return
			}
		}
	}
}

func send(ctx context.Context, out chan<- RawEvent, ev RawEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Events is the ordered event stream.
func (s *Subscription) Events() <-chan RawEvent {
	return s.events
}

// Done is closed once the connection has been closed and no event can follow.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Cancel stops the subscription with the default "Client closing" reason and waits
// for the connection to be closed.
func (s *Subscription) Cancel() {
	s.Stop(reasonClientClosing)
}

// Stop cancels the subscription, closing the connection with reason, and waits for the
// teardown to finish. Later calls only wait.
func (s *Subscription) Stop(reason string) {
	s.setReason(reason)
	s.cancel()
	<-s.done
}

func (s *Subscription) setReason(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
	default:
		s.reason = reason
	}
}

// Err returns ErrCancelled when the subscription was stopped by its owner before the
// transport ended it. It is meaningful once Done is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Subscription) closeReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}
