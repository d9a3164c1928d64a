package nanitws

import (
	"fmt"
	"net/url"

	"github.com/pkg/errors"
)

var (
	ErrConnectionClosed  = errors.New("connection has been closed")
	ErrCannotConnect     = errors.New("connection cannot be established")
	ErrTerminated        = errors.New("program exit")
	ErrRateLimit         = errors.New("rate limit exceeded")
	ErrAlreadySubscribed = errors.New("translator already has an active consumer")
	ErrNotOpen           = errors.New("connection is not open")
	// ErrCancelled marks a listening sequence stopped by its owner. It is the normal
	// disconnect path and is never shown to users.
	ErrCancelled = errors.New("listening cancelled")
)

// ValidationError reports a connect request rejected before any transport was touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DecodeError reports a text frame that could not be turned into a birthday payload.
// The connection stays open after a DecodeError.
type DecodeError struct {
	Reason string
	err    error
}

func (e *DecodeError) Error() string {
	return "failed to parse birthday data: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.err }

func newDecodeError(reason string, cause error) *DecodeError {
	return &DecodeError{Reason: reason, err: cause}
}

// TransportError reports a socket failure. The connection is considered terminated and
// a new connect call is required.
type TransportError struct {
	err error
	url url.URL
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s to %s", e.err, e.url.String())
}

func (e *TransportError) Unwrap() error { return e.err }

// URL returns the endpoint the failing connection was talking to.
func (e *TransportError) URL() url.URL { return e.url }

func WrapTransportError(err error, u url.URL) *TransportError {
	if err == nil {
		return nil
	}
	return &TransportError{
		err: err,
		url: u,
	}
}
