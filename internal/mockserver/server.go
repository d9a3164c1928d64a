// Package mockserver is a small birthday server for local runs and integration tests.
// Every client connecting to /nanit receives the configured payload.
package mockserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const Path = "/nanit"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// CloseRecord is a close frame received from a client.
type CloseRecord struct {
	Code int
	Text string
}

type Server struct {
	cfg    Config
	logger *slog.Logger
	router chi.Router

	httpServer *http.Server
	listener   net.Listener

	connections atomic.Int64
	closes      chan CloseRecord

	// mu orders handler registration in wg against Shutdown.
	mu       sync.Mutex
	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger.With("component", "mockserver"),
		closes: make(chan CloseRecord, 64),
		quit:   make(chan struct{}),
	}

	r := chi.NewRouter()
	r.Get(Path, s.handleBirthday)
	r.Get("/healthz", s.handleHealth)
	s.router = r

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves in the background. Port 0 picks a
// free port; see Addr.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "cannot listen on %s", addr)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve failed", "error", err)
		}
	}()

	s.logger.Info("listening", "addr", ln.Addr().String(), "path", Path)
	return nil
}

// Addr returns the bound host and port.
func (s *Server) Addr() (string, int) {
	tcp := s.listener.Addr().(*net.TCPAddr)
	return tcp.IP.String(), tcp.Port
}

// Connections returns how many websocket clients were accepted.
func (s *Server) Connections() int64 {
	return s.connections.Load()
}

// Closes yields close frames sent by clients.
func (s *Server) Closes() <-chan CloseRecord {
	return s.closes
}

// Shutdown drops live websocket connections and stops the http server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.quitOnce.Do(func() { close(s.quit) })
	s.mu.Unlock()

	s.wg.Wait()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"connections": s.connections.Load(),
	})
}

func (s *Server) handleBirthday(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if !s.track() {
		s.logger.Info("rejecting client, shutting down", "remote", r.RemoteAddr)
		return
	}
	defer s.wg.Done()

	s.connections.Add(1)
	log := s.logger.With("remote", r.RemoteAddr)
	log.Info("client connected")

	readDone := make(chan struct{})
	go s.read(conn, readDone, log)

	if !s.stream(conn, readDone, log) {
		return
	}

	select {
	case <-readDone:
	case <-s.quit:
	}
}

// track registers a handler with wg unless Shutdown has started.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quit:
		return false
	default:
	}
	s.wg.Add(1)
	return true
}

// stream writes the configured frames. It reports false when the connection is gone.
func (s *Server) stream(conn *websocket.Conn, readDone <-chan struct{}, log *slog.Logger) bool {
	st := s.cfg.Stream

	if !s.sleep(st.Delay, readDone) {
		return false
	}

	frame, err := s.frame()
	if err != nil {
		log.Error("cannot encode payload", "error", err)
		return false
	}

	for i := 0; i < st.Repeat; i++ {
		if i > 0 && !s.sleep(st.Interval, readDone) {
			return false
		}
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			log.Warn("write failed", "error", err)
			return false
		}
		log.Debug("frame sent", "frame", string(frame))
	}

	if st.CloseAfterSend {
		msg := websocket.FormatCloseMessage(st.CloseCode, st.CloseReason)
		if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
			log.Warn("close write failed", "error", err)
			return false
		}
		select {
		case <-readDone:
		case <-time.After(time.Second):
		}
		return false
	}

	return true
}

func (s *Server) read(conn *websocket.Conn, done chan<- struct{}, log *slog.Logger) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				log.Info("client closed", "code", ce.Code, "text", ce.Text)
				select {
				case s.closes <- CloseRecord{Code: ce.Code, Text: ce.Text}:
				default:
				}
			}
			return
		}
	}
}

func (s *Server) frame() ([]byte, error) {
	p := s.cfg.Payload
	if p.Raw != "" {
		return []byte(p.Raw), nil
	}
	return json.Marshal(map[string]any{
		"name":  p.Name,
		"dob":   p.DOB,
		"theme": p.Theme,
	})
}

func (s *Server) sleep(d time.Duration, readDone <-chan struct{}) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-readDone:
		return false
	case <-s.quit:
		return false
	}
}
