package nanitws

import "time"

const (
	// NormalClosure is the websocket close code used for every client-initiated close.
	NormalClosure = 1000

	reasonClientClosing    = "Client closing"
	reasonManualDisconnect = "Manual disconnect"

	defaultTimeout     = 30 * time.Second
	defaultEventBuffer = 32
)

// Config carries the knobs shared by the transport, translator and manager. It is built
// once at process start and handed to the constructors.
type Config struct {
	// DialTimeout bounds the websocket handshake.
	DialTimeout time.Duration
	// ReadTimeout is the read deadline, refreshed on every inbound frame. Zero disables it.
	ReadTimeout time.Duration
	// WriteTimeout bounds control and close frame writes.
	WriteTimeout time.Duration
	// PingInterval enables active keep-alive pings when positive. It must be shorter than
	// ReadTimeout for pongs to keep an idle connection alive.
	PingInterval time.Duration
	// EventBuffer sizes the channel between the transport and the translator.
	EventBuffer int
	// Location is the zone used to turn dob into a calendar date. Nil means time.Local
	// read at decode time.
	Location *time.Location
}

func DefaultConfig() Config {
	return Config{
		DialTimeout:  defaultTimeout,
		ReadTimeout:  defaultTimeout,
		WriteTimeout: defaultTimeout,
		PingInterval: 10 * time.Second,
		EventBuffer:  defaultEventBuffer,
	}
}

func (c Config) withDefaults() Config {
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultTimeout
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = defaultEventBuffer
	}
	return c
}
