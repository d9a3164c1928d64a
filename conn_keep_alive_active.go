package nanitws

import (
	"context"
	"sync"
	"time"
)

type KeepAlivePayloadFactory func() []byte

// activeKeepAliveConnection is a Connection that sends periodic pings once opened. The
// peer's pongs refresh the read deadline of the wrapped connection.
type activeKeepAliveConnection struct {
	Connection
	pingInterval   time.Duration
	payloadFactory KeepAlivePayloadFactory
	logger         logger

	closeOnce sync.Once
	closeC    chan struct{}
	wg        sync.WaitGroup
}

// Open opens the wrapped connection and starts the ping routine. The routine is bound
// to the connection, not to ctx: ctx only bounds the dial.
func (h *activeKeepAliveConnection) Open(ctx context.Context) error {
	if err := h.Connection.Open(ctx); err != nil {
		return err
	}

	h.wg.Add(1)
	go h.run()

	return nil
}

// Close stops the ping routine and closes the wrapped connection.
func (h *activeKeepAliveConnection) Close(code int, reason string) {
	h.closeOnce.Do(func() {
		close(h.closeC)
	})
	h.wg.Wait()
	h.Connection.Close(code, reason)
}

func (h *activeKeepAliveConnection) run() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	inner := h.Connection.CloseChan()

	for {
		select {
		case <-h.closeC:
			return
		case <-inner:
			return
		case <-ticker.C:
			if err := h.Connection.Ping(h.payloadFactory()); err != nil {
				h.logger.Warnf("keep-alive ping failed: %s", err)
			}
		}
	}
}

func newActiveKeepAliveConnection(
	logger logger,
	conn Connection,
	interval time.Duration,
	payloadFactory KeepAlivePayloadFactory,
) *activeKeepAliveConnection {
	if payloadFactory == nil {
		payloadFactory = func() []byte { return nil }
	}
	return &activeKeepAliveConnection{
		Connection:     conn,
		logger:         logger,
		pingInterval:   interval,
		payloadFactory: payloadFactory,
		closeC:         make(chan struct{}),
	}
}

// NewActiveKeepAliveFactory wraps factory so every connection it builds pings the peer
// every interval. A non-positive interval returns factory unchanged.
func NewActiveKeepAliveFactory(
	logger logger,
	factory ConnectionFactory,
	interval time.Duration,
	payloadFactory KeepAlivePayloadFactory,
) ConnectionFactory {
	if interval <= 0 {
		return factory
	}
	return func(ep Endpoint, sink chan<- Notification) Connection {
		return newActiveKeepAliveConnection(
			logger.WithField("subtype", "activeKeepAliveConnection"),
			factory(ep, sink),
			interval,
			payloadFactory,
		)
	}
}
