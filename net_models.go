package nanitws

import (
	"context"
)

type (
	CloseChan chan struct{}

	// Connection is a single streaming connection to a birthday server. Notifications are
	// delivered in order to the sink the connection was built with; after NotifyClosed or
	// NotifyFailed nothing else is delivered.
	Connection interface {
		// Open dials the endpoint. It blocks until the handshake finishes or fails.
		Open(ctx context.Context) error
		// Ping sends a ping control frame.
		Ping(data []byte) error
		// Close sends a close frame with code and reason and releases the socket.
		// Closing an already closed or never opened connection is a no-op.
		Close(code int, reason string)
		// CloseChan is closed once the connection is released.
		CloseChan() CloseChan
		// CloseErr explains why the connection was released. Nil for a normal closure.
		CloseErr() error
	}

	ConnectionFactory func(ep Endpoint, sink chan<- Notification) Connection
)
