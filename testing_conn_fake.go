package nanitws

import (
	"context"
	"sync"
)

// fakeConnection is a scripted Connection. Tests push notifications into the sink it was
// built with and inspect how it was closed.
type fakeConnection struct {
	endpoint Endpoint
	sink     chan<- Notification

	OpenFunc func(ctx context.Context) error

	mu          sync.Mutex
	opened      bool
	closed      bool
	closeCode   int
	closeReason string
	pings       [][]byte

	closeC    CloseChan
	closeOnce sync.Once
}

func newFakeConnection(ep Endpoint, sink chan<- Notification) *fakeConnection {
	return &fakeConnection{
		endpoint: ep,
		sink:     sink,
		closeC:   make(CloseChan),
	}
}

// Open runs OpenFunc and, on success, emits NotifyOpened.
func (f *fakeConnection) Open(ctx context.Context) error {
	if f.OpenFunc != nil {
		if err := f.OpenFunc(ctx); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.opened = true
	f.mu.Unlock()

	f.Push(newOpenedNotification())
	return nil
}

// Push delivers n unless the connection was closed first. It reports whether n was
// delivered.
func (f *fakeConnection) Push(n Notification) bool {
	select {
	case <-f.closeC:
		return false
	default:
	}
	select {
	case f.sink <- n:
		return true
	case <-f.closeC:
		return false
	}
}

func (f *fakeConnection) Ping(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.opened {
		return ErrNotOpen
	}
	f.pings = append(f.pings, data)
	return nil
}

func (f *fakeConnection) Close(code int, reason string) {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.closeCode = code
		f.closeReason = reason
		f.mu.Unlock()
		close(f.closeC)
	})
}

func (f *fakeConnection) CloseChan() CloseChan {
	return f.closeC
}

func (f *fakeConnection) CloseErr() error {
	return nil
}

// Closed reports whether Close was called and with which code and reason.
func (f *fakeConnection) Closed() (bool, int, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed, f.closeCode, f.closeReason
}

// fakeTransport is a ConnectionFactory that keeps every connection it built.
type fakeTransport struct {
	OpenFunc func(ctx context.Context) error

	mu    sync.Mutex
	conns []*fakeConnection
	built chan *fakeConnection
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{built: make(chan *fakeConnection, 16)}
}

func (t *fakeTransport) Factory() ConnectionFactory {
	return func(ep Endpoint, sink chan<- Notification) Connection {
		conn := newFakeConnection(ep, sink)
		conn.OpenFunc = t.OpenFunc

		t.mu.Lock()
		t.conns = append(t.conns, conn)
		t.mu.Unlock()

		select {
		case t.built <- conn:
		default:
		}
		return conn
	}
}

// Built yields connections as the factory creates them.
func (t *fakeTransport) Built() <-chan *fakeConnection {
	return t.built
}

func (t *fakeTransport) Conns() []*fakeConnection {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*fakeConnection, len(t.conns))
	copy(out, t.conns)
	return out
}
