package nanitws

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"
)

type (
	openConnectionParamsRepo interface {
		Get(ctx context.Context, ep Endpoint) (OpenConnectionParams, error)
	}

	ErrAdapter func(*websocket.Conn, *http.Response, error) error

	ErrorAdapters struct {
		OnDial ErrAdapter
	}

	// WsConnection is the websocket Connection. One read goroutine feeds the sink; close
	// and control frames may be written from any goroutine.
	WsConnection struct {
		endpoint                 Endpoint
		cfg                      Config
		errAdapters              ErrorAdapters
		openConnectionParamsRepo openConnectionParamsRepo
		logger                   logger
		dialer                   *websocket.Dialer

		mu       sync.Mutex
		conn     *websocket.Conn
		url      url.URL
		readDone chan struct{}

		opened     atomic.Bool
		terminated atomic.Bool

		closeChan       CloseChan
		closeOnce       sync.Once
		closeReason     error
		closeReasonOnce sync.Once

		sink chan<- Notification
	}
)

func NewWebsocketConnection(
	ep Endpoint,
	cfg Config,
	dialer *websocket.Dialer,
	openParamsRepo openConnectionParamsRepo,
	logger logger,
	sink chan<- Notification,
	errorHandlers ErrorAdapters,
) *WsConnection {
	cfg = cfg.withDefaults()
	if dialer == nil {
		dialer = newDialer(cfg)
	}
	return &WsConnection{
		endpoint:                 ep,
		cfg:                      cfg,
		errAdapters:              errorHandlers,
		dialer:                   dialer,
		openConnectionParamsRepo: openParamsRepo,
		sink:                     sink,
		closeChan:                make(CloseChan),
		url:                      ep.URL(),
		logger: logger.
			WithField("net", "ws_connection").
			WithField("host", ep.Addr()),
	}
}

func NewWebsocketFactory(
	logger logger,
	cfg Config,
	dialer *websocket.Dialer,
	openConnectionParamsRepo openConnectionParamsRepo,
	errorHandlers ErrorAdapters,
) ConnectionFactory {
	return func(ep Endpoint, sink chan<- Notification) Connection {
		return NewWebsocketConnection(
			ep,
			cfg,
			dialer,
			openConnectionParamsRepo,
			logger,
			sink,
			errorHandlers,
		)
	}
}

func newDialer(cfg Config) *websocket.Dialer {
	return &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.DialTimeout,
	}
}

// Open dials the endpoint and starts the read goroutine. NotifyOpened is delivered
// before Open returns.
func (w *WsConnection) Open(ctx context.Context) error {
	if !w.opened.CompareAndSwap(false, true) {
		return errors.Wrap(ErrCannotConnect, "connection already opened")
	}

	select {
	case <-w.closeChan:
		return WrapTransportError(ErrConnectionClosed, w.url)
	default:
	}

	p, err := w.openConnectionParamsRepo.Get(ctx, w.endpoint)
	if err != nil {
		w.logger.Errorf("cannot get connection params due to %s", err)
		return WrapTransportError(err, w.url)
	}
	w.url = p.URL

	conn, resp, err := w.dialer.DialContext(ctx, p.URL.String(), p.Header)

	if err = w.handleDialError(conn, resp, err); err != nil {
		w.logger.Errorf("connection err to %s: %s", p.URL.String(), err)
		if conn != nil {
			_ = conn.Close()
		}
		return WrapTransportError(err, p.URL)
	}

	w.mu.Lock()
	select {
	case <-w.closeChan:
		// Close raced the handshake.
		w.mu.Unlock()
		_ = conn.Close()
		return WrapTransportError(ErrConnectionClosed, p.URL)
	default:
	}
	w.conn = conn
	w.readDone = make(chan struct{})
	w.mu.Unlock()

	w.logger.Debugf("success opening connection to %s", p.URL.String())

	conn.SetPingHandler(func(appData string) error {
		w.logger.Debugln("<= [PING]")
		w.refreshReadDeadline(conn)
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), w.writeDeadline())
		if err == websocket.ErrCloseSent {
			return nil
		}
		if e, ok := err.(net.Error); ok && e.Timeout() {
			return nil
		}
		return err
	})

	conn.SetPongHandler(func(string) error {
		w.logger.Debugln("<= [PONG]")
		w.refreshReadDeadline(conn)
		return nil
	})

	conn.SetCloseHandler(func(code int, text string) error {
		w.logger.Debugf("<= [CLOSE] %d %s", code, text)
		w.emit(newClosingNotification(code, text))
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, ""),
			w.writeDeadline(),
		)
		return nil
	})

	w.emit(newOpenedNotification())

	go w.read(conn, w.readDone)

	return nil
}

// Ping writes a ping control frame.
func (w *WsConnection) Ping(data []byte) error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		return ErrNotOpen
	}

	w.logger.Debugln("=> [PING]")
	err := conn.WriteControl(websocket.PingMessage, data, w.writeDeadline())
	if e, ok := err.(net.Error); ok && e.Timeout() {
		err = nil
	}
	return err
}

// Close sends a close frame and releases the socket. It waits for the read goroutine to
// exit, so once Close returns no notification is in flight.
func (w *WsConnection) Close(code int, reason string) {
	w.closeOnce.Do(func() {
		w.logger.Infof("closing connection from our side: %d %s", code, reason)
		w.setCloseReason(nil)
		w.release(code, reason, true)
	})

	w.mu.Lock()
	done := w.readDone
	w.mu.Unlock()

	if done != nil {
		<-done
	}
}

// CloseChan returns a channel that will be closed when the websocket connection is released.
func (w *WsConnection) CloseChan() CloseChan {
	return w.closeChan
}

// CloseErr returns an error that explains why the websocket connection was closed.
// If the connection closed normally, CloseErr returns nil.
func (w *WsConnection) CloseErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeReason
}

func (w *WsConnection) read(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	defer w.safeRelease()

	for {
		w.refreshReadDeadline(conn)

		messageType, bts, err := conn.ReadMessage()
		if err != nil {
			w.handleReadError(err)
			return
		}

		switch messageType {
		case websocket.TextMessage:
			w.logger.Debugf("<= [DATA] %s", string(bts))
			w.emit(newTextNotification(string(bts)))
		default:
			w.logger.Debugf("<= [BIN] dropping %d bytes", len(bts))
		}
	}
}

func (w *WsConnection) handleReadError(err error) {
	select {
	case <-w.closeChan:
		// Local close: the read error is the consequence of our own Close.
		return
	default:
	}

	var ce *websocket.CloseError
	if errors.As(err, &ce) && ce.Code != websocket.CloseAbnormalClosure {
		w.logger.Infof("connection closed by peer: %d %s", ce.Code, ce.Text)
		if ce.Code != websocket.CloseNormalClosure && ce.Code != websocket.CloseGoingAway {
			w.setCloseReason(errors.Wrapf(ErrConnectionClosed, "close code %d: %s", ce.Code, ce.Text))
		} else {
			w.setCloseReason(nil)
		}
		w.emit(newClosedNotification(ce.Code, ce.Text))
		return
	}

	w.logger.Errorf("error occurred on websocket read: %s", err)

	reason := WrapTransportError(
		errors.Wrap(ErrConnectionClosed, "error occurred on websocket read: "+err.Error()),
		w.url,
	)
	w.setCloseReason(reason)
	w.emit(newFailedNotification(reason))
}

// emit delivers n to the sink unless the connection already produced a terminal
// notification or was released locally.
func (w *WsConnection) emit(n Notification) {
	if w.terminated.Load() {
		return
	}
	if n.Type.IsTerminal() && !w.terminated.CompareAndSwap(false, true) {
		return
	}

	select {
	case <-w.closeChan:
		return
	default:
	}

	select {
	case w.sink <- n:
	case <-w.closeChan:
	}
}

func (w *WsConnection) safeRelease() {
	w.closeOnce.Do(func() {
		w.release(NormalClosure, "", false)
	})
}

func (w *WsConnection) release(code int, reason string, sendFrame bool) {
	w.mu.Lock()
	conn := w.conn
	close(w.closeChan)
	w.mu.Unlock()

	if conn == nil {
		return
	}

	if sendFrame {
		err := conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			w.writeDeadline(),
		)
		if err != nil && err != websocket.ErrCloseSent {
			w.logger.Debugf("cannot write close frame: %s", err)
		}
	}

	_ = conn.Close()
}

func (w *WsConnection) setCloseReason(err error) {
	w.closeReasonOnce.Do(func() {
		w.mu.Lock()
		w.closeReason = err
		w.mu.Unlock()
	})
}

func (w *WsConnection) writeDeadline() time.Time {
	return time.Now().Add(w.cfg.WriteTimeout)
}

func (w *WsConnection) refreshReadDeadline(conn *websocket.Conn) {
	if w.cfg.ReadTimeout <= 0 {
		return
	}
	_ = conn.SetReadDeadline(time.Now().Add(w.cfg.ReadTimeout))
}

func (w *WsConnection) handleDialError(conn *websocket.Conn, resp *http.Response, err error) error {
	if w.errAdapters.OnDial != nil {
		return w.errAdapters.OnDial(conn, resp, err)
	}

	// 1. Check HTTP errors first
	var msg string

	if resp != nil {
		if resp.Body != nil {
			bts, err := io.ReadAll(resp.Body)
			if err == nil {
				msg = string(bts)
			}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return errors.Wrap(ErrRateLimit, msg)
		}
	}

	// 2. Network errors
	if err != nil {
		return errors.Wrap(ErrCannotConnect, err.Error())
	}

	return nil
}
