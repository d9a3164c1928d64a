package nanitws

import (
	"context"
)

type (
	// Client is the surface offered to the presentation layer: connect, disconnect and
	// observe the connection, the cached record and the derived session state.
	Client interface {
		// Connect validates host and port and starts a session. Validation failures are
		// returned as *ValidationError before any connection is attempted.
		Connect(ctx context.Context, host string, port int) error
		// Disconnect ends the session, if any. Safe to call repeatedly.
		Disconnect()
		// ObserveStatus streams the connection status.
		ObserveStatus(ctx context.Context) <-chan ConnectionStatus
		// ObserveCache streams the cached record; nil means empty.
		ObserveCache(ctx context.Context) <-chan *BirthdayRecord
		// ObserveState streams the derived session state.
		ObserveState(ctx context.Context) <-chan SessionState
		// On registers a handler for session events. Handlers run on their own goroutine.
		On(t SessionEventType, handler SessionEventHandler)
		// Close disconnects and drops every handler.
		Close()
	}

	SessionEventHandler func(SessionEvent)

	ClientFactory func() Client
)
