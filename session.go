package nanitws

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

type SessionPhase int

const (
	PhaseIdle SessionPhase = iota
	PhaseConnecting
	PhaseConnected
)

func (p SessionPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	}
	return "unknown"
}

// SessionState is what a connection screen renders.
type SessionState struct {
	Phase            SessionPhase
	StatusMessage    string
	ErrorMessage     string
	ReceivedBirthday bool
}

func initialSessionState() SessionState {
	return SessionState{Phase: PhaseIdle, StatusMessage: "Ready to connect"}
}

type SessionEventType int

const (
	// SessionCompleted fires once per session, on the first decoded record.
	SessionCompleted SessionEventType = iota + 1
	// SessionEnded fires when the connection ends without a Disconnect call.
	SessionEnded
)

type SessionEvent struct {
	Type      SessionEventType
	SessionID uuid.UUID
	Record    BirthdayRecord
	// Err is the transport error that ended the session, if any.
	Err error
}

// Session is the Client implementation. It owns one Manager and supervises one listening
// run per Connect call.
type Session struct {
	manager *Manager
	logger  logger
	emitter *EventEmitterCallback[SessionEventType, SessionEvent]
	state   *Observable[SessionState]

	mu  sync.Mutex
	run *sessionRun
}

var _ Client = (*Session)(nil)

type sessionRun struct {
	id            uuid.UUID
	endpoint      Endpoint
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	completed     atomic.Bool
	disconnecting atomic.Bool
	// events are emitted in order by one goroutine per run.
	events *relay[SessionEvent]
}

func NewSession(logger logger, manager *Manager) *Session {
	return &Session{
		manager: manager,
		logger:  logger.WithField("component", "session"),
		emitter: NewEventEmitter[SessionEventType, SessionEvent](),
		state:   newObservable(initialSessionState(), func(a, b SessionState) bool { return a == b }),
	}
}

func NewSessionFactory(logger logger, cfg Config) ClientFactory {
	return func() Client {
		return NewSession(logger, NewWebsocketManager(logger, cfg))
	}
}

func (s *Session) Connect(ctx context.Context, host string, port int) error {
	ep, err := ValidateConnectRequest(ConnectRequest{Host: host, Port: port})
	if err != nil {
		s.state.update(func(cur SessionState) SessionState {
			cur.ErrorMessage = err.(*ValidationError).Reason
			return cur
		})
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	run := &sessionRun{id: uuid.New(), endpoint: ep, events: newRelay[SessionEvent]()}
	log := s.logger.WithField("session", run.id.String())

	s.state.set(SessionState{
		Phase:         PhaseConnecting,
		StatusMessage: fmt.Sprintf("Connecting to %s...", ep.Addr()),
	})

	ctx, cancel := context.WithCancel(ctx)
	run.cancel = cancel

	// Subscribe before connecting so no transition is missed. The first element is the
	// pre-connect status and is skipped.
	statuses := s.manager.ObserveStatus(ctx)

	results, err := s.manager.ConnectAndListen(ctx, ep)
	if err != nil {
		cancel()
		s.state.set(SessionState{
			Phase:         PhaseIdle,
			StatusMessage: "Connection failed",
			ErrorMessage:  "Connection failed: " + err.Error(),
		})
		return err
	}

	u := ep.URL()
	log.Infof("session started against %s", u.String())

	// The dispatcher is outside wg so handlers may call Disconnect.
	go run.events.run(func(ev SessionEvent) bool {
		s.emitter.Emit(ev.Type, ev)
		return true
	})

	run.wg.Add(2)
	go s.observeStatus(run, statuses)
	go s.observeResults(ctx, run, results, log)

	s.run = run
	return nil
}

// Disconnect closes the connection with a manual-disconnect reason, stops both
// supervised goroutines and resets the state. Safe with no active session.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		s.run.disconnecting.Store(true)
	}

	s.manager.Disconnect()
	s.stopLocked()

	s.state.set(SessionState{Phase: PhaseIdle, StatusMessage: "Disconnected"})
}

func (s *Session) Close() {
	s.Disconnect()
	s.emitter.Close()
}

func (s *Session) On(t SessionEventType, handler SessionEventHandler) {
	s.emitter.On(t, callback[SessionEvent](handler))
}

// OnComplete registers fn for the first record of every session.
func (s *Session) OnComplete(fn func(BirthdayRecord)) {
	s.On(SessionCompleted, func(ev SessionEvent) { fn(ev.Record) })
}

func (s *Session) ObserveStatus(ctx context.Context) <-chan ConnectionStatus {
	return s.manager.ObserveStatus(ctx)
}

func (s *Session) ObserveCache(ctx context.Context) <-chan *BirthdayRecord {
	return s.manager.ObserveCache(ctx)
}

func (s *Session) ObserveState(ctx context.Context) <-chan SessionState {
	return s.state.Subscribe(ctx)
}

func (s *Session) State() SessionState {
	return s.state.Get()
}

func (s *Session) Status() ConnectionStatus {
	return s.manager.Status()
}

func (s *Session) Cached() (BirthdayRecord, bool) {
	return s.manager.Cached()
}

// ID returns the id of the current session, or uuid.Nil.
func (s *Session) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return uuid.Nil
	}
	return s.run.id
}

func (s *Session) stopLocked() {
	if s.run == nil {
		return
	}
	run := s.run
	s.run = nil

	run.disconnecting.Store(true)
	run.cancel()
	run.wg.Wait()
}

func (s *Session) observeStatus(run *sessionRun, statuses <-chan ConnectionStatus) {
	defer run.wg.Done()

	first := true
	for st := range statuses {
		if first {
			first = false
			continue
		}
		if run.disconnecting.Load() {
			continue
		}
		s.state.update(func(cur SessionState) SessionState {
			return stateForStatus(cur, st)
		})
	}

	// The caller cancelled ctx: the manager goes Idle after this subscription ended.
	if !run.disconnecting.Load() {
		s.state.update(func(cur SessionState) SessionState {
			return stateForStatus(cur, StatusIdle())
		})
	}
}

func (s *Session) observeResults(ctx context.Context, run *sessionRun, results <-chan Result, log logger) {
	defer run.wg.Done()
	defer run.events.finish()

	var last error

	for r := range results {
		if r.Err != nil {
			last = r.Err
			log.Warnf("session ended by transport: %s", r.Err)
			continue
		}

		s.state.update(func(cur SessionState) SessionState {
			cur.ReceivedBirthday = true
			cur.StatusMessage = "Birthday data received"
			cur.ErrorMessage = ""
			return cur
		})

		if run.completed.CompareAndSwap(false, true) {
			log.Infof("session completed with %s", r.Record.Name)
			run.events.push(SessionEvent{
				Type:      SessionCompleted,
				SessionID: run.id,
				Record:    r.Record,
			})
		}
	}

	if run.disconnecting.Load() || ctx.Err() != nil {
		return
	}

	log.Infof("session ended")
	run.events.push(SessionEvent{
		Type:      SessionEnded,
		SessionID: run.id,
		Err:       last,
	})
}

func stateForStatus(cur SessionState, st ConnectionStatus) SessionState {
	cur.ErrorMessage = ""
	switch st.Kind {
	case KindConnecting:
		cur.Phase = PhaseConnecting
		cur.StatusMessage = "Connecting..."
	case KindConnected:
		cur.Phase = PhaseConnected
		cur.StatusMessage = "Connected! Waiting for birthday data"
	case KindMessageReceived:
		cur.Phase = PhaseConnected
		cur.StatusMessage = "Birthday data received"
	case KindIdle:
		cur.Phase = PhaseIdle
		cur.StatusMessage = "Disconnected"
	case KindError:
		cur.Phase = PhaseIdle
		cur.StatusMessage = "Connection error: " + st.Message
		cur.ErrorMessage = st.Message
	default:
		panic(fmt.Sprintf("nanitws: unhandled status %s", st.Kind))
	}
	return cur
}
