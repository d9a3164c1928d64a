package nanitws

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Result is an element of the ConnectAndListen stream: a decoded record, or the
// transport error that ended the stream.
type Result struct {
	Record BirthdayRecord
	Err    error
}

func (r Result) Ok() bool { return r.Err == nil }

// Manager owns at most one live connection. It applies the state table to the event
// stream and publishes the connection status and the last decoded record.
type Manager struct {
	codec      Codec
	logger     logger
	translator *Translator

	status *Observable[ConnectionStatus]
	cache  *Observable[*BirthdayRecord]

	mu      sync.Mutex
	current *listener
}

type listener struct {
	sub      *Subscription
	endpoint Endpoint
	cancel   context.CancelFunc
	results  *relay[Result]
	// superseded is set when a newer ConnectAndListen replaces this listener.
	superseded atomic.Bool
	done       chan struct{}
	delivered  chan struct{}
}

func NewManager(logger logger, cfg Config, factory ConnectionFactory) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		codec:      NewCodec(cfg.Location),
		logger:     logger.WithField("component", "manager"),
		translator: NewTranslator(logger, cfg, factory),
		status:     newObservable(StatusIdle(), func(a, b ConnectionStatus) bool { return a == b }),
		cache:      newObservable[*BirthdayRecord](nil, sameRecord),
	}
}

// NewWebsocketManager builds a Manager backed by websocket connections, with active
// keep-alive when cfg.PingInterval is positive.
func NewWebsocketManager(logger logger, cfg Config) *Manager {
	cfg = cfg.withDefaults()
	factory := NewWebsocketFactory(
		logger,
		cfg,
		nil,
		NewOpenConnectionParamsRepo(logger, EndpointParams),
		ErrorAdapters{},
	)
	factory = NewActiveKeepAliveFactory(logger, factory, cfg.PingInterval, nil)
	return NewManager(logger, cfg, factory)
}

// ConnectAndListen connects to ep and streams successfully decoded records. A running
// listener is cancelled, and its connection closed, before the new one starts. If the
// connection fails the last element carries a *TransportError. The channel is closed
// once the connection has ended and every queued result was read, or when ctx is done.
// Status and cache never wait on the reader: unread results are queued.
func (m *Manager) ConnectAndListen(ctx context.Context, ep Endpoint) (<-chan Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked(reasonClientClosing, true)

	ctx, cancel := context.WithCancel(ctx)

	sub, err := m.translator.Subscribe(ctx, ep)
	if err != nil {
		cancel()
		return nil, err
	}

	l := &listener{
		sub:       sub,
		endpoint:  ep,
		cancel:    cancel,
		results:   newRelay[Result](),
		done:      make(chan struct{}),
		delivered: make(chan struct{}),
	}
	m.current = l

	results := make(chan Result)
	go m.deliver(ctx, l, results)
	go m.listen(ctx, l)

	return results, nil
}

// Disconnect cancels the running listener, waits until its connection is closed, clears
// the cache and resets the status to Idle. It is idempotent.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked(reasonManualDisconnect, false)

	m.cache.set(nil)
	m.status.set(StatusIdle())
}

// ObserveStatus streams the current status and every later change until ctx is done.
func (m *Manager) ObserveStatus(ctx context.Context) <-chan ConnectionStatus {
	return m.status.Subscribe(ctx)
}

// ObserveCache streams the cached record (nil when empty) and every later change.
func (m *Manager) ObserveCache(ctx context.Context) <-chan *BirthdayRecord {
	return m.cache.Subscribe(ctx)
}

func (m *Manager) Status() ConnectionStatus {
	return m.status.Get()
}

// Cached returns the cached record, if any.
func (m *Manager) Cached() (BirthdayRecord, bool) {
	r := m.cache.Get()
	if r == nil {
		return BirthdayRecord{}, false
	}
	return *r, true
}

// Listening reports whether a listener is running.
func (m *Manager) Listening() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return false
	}
	select {
	case <-m.current.done:
		return false
	default:
		return true
	}
}

// stopLocked cancels the current listener and waits for it. Unless superseded, the
// listener publishes Idle and clears the cache before it is done.
func (m *Manager) stopLocked(reason string, superseded bool) {
	if m.current == nil {
		return
	}
	l := m.current
	m.current = nil

	l.superseded.Store(superseded)
	l.sub.setReason(reason)
	l.cancel()
	<-l.sub.Done()
	<-l.done
	<-l.delivered
}

func (m *Manager) listen(ctx context.Context, l *listener) {
	defer close(l.done)
	defer l.results.finish()

	log := m.logger.WithField("host", l.endpoint.Addr())

	var (
		terminal error
		dropped  bool
	)

	for ev := range l.sub.Events() {
		if ctx.Err() != nil {
			// Cancelled: keep draining until the translator has closed the connection.
			dropped = true
			continue
		}

		tr := m.apply(ev)

		switch tr.Cache {
		case CacheSet:
			log.Infof("birthday received for %s", tr.Record.Name)
			l.results.push(Result{Record: tr.Record})
		case CacheClear, CacheKeep:
		}

		if tr.Err != nil {
			log.Warnf("dropping message: %s", tr.Err)
		}

		if failed, ok := ev.(EventFailed); ok {
			terminal = transportErrorOf(failed, l.endpoint)
		}
	}

	<-l.sub.Done()

	if dropped || errors.Is(l.sub.Err(), ErrCancelled) {
		log.Debugf("listener stopped: %s", l.sub.closeReason())
		if !l.superseded.Load() {
			m.apply(EventClosed{Code: NormalClosure})
		}
		return
	}

	if terminal != nil {
		l.results.push(Result{Err: terminal})
	}
}

// deliver forwards queued results to the caller until the listener has finished and
// the queue is empty, or ctx is done.
func (m *Manager) deliver(ctx context.Context, l *listener, results chan<- Result) {
	defer close(l.delivered)
	defer close(results)
	defer l.cancel()

	l.results.run(func(r Result) bool {
		select {
		case results <- r:
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// apply runs the state table and publishes its effects.
func (m *Manager) apply(ev RawEvent) Transition {
	tr := Apply(ev, m.codec)

	switch tr.Cache {
	case CacheSet:
		record := tr.Record
		m.cache.set(&record)
	case CacheClear:
		m.cache.set(nil)
	case CacheKeep:
	}

	m.status.set(tr.Status)
	return tr
}

func transportErrorOf(ev EventFailed, ep Endpoint) error {
	var te *TransportError
	if errors.As(ev.Cause, &te) {
		return te
	}
	cause := ev.Cause
	if cause == nil {
		cause = errors.New(ev.Message)
	}
	return WrapTransportError(cause, ep.URL())
}

func sameRecord(a, b *BirthdayRecord) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
