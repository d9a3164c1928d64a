package nanitws

import "fmt"

// RawEvent is the closed set of connection events produced by the Translator. The
// unexported marker method keeps other packages from adding variants.
type RawEvent interface {
	isRawEvent()
	String() string
}

type (
	// EventConnecting is emitted once per subscription, before the transport is opened.
	EventConnecting struct{}

	EventOpened struct{}

	EventTextReceived struct {
		Raw string
	}

	// EventClosed covers both the closing and the closed notifications of the transport.
	EventClosed struct {
		Code   int
		Reason string
	}

	EventFailed struct {
		Message string
		Cause   error
	}
)

func (EventConnecting) isRawEvent()   {}
func (EventOpened) isRawEvent()       {}
func (EventTextReceived) isRawEvent() {}
func (EventClosed) isRawEvent()       {}
func (EventFailed) isRawEvent()       {}

func (EventConnecting) String() string { return "Connecting" }
func (EventOpened) String() string     { return "Opened" }

func (e EventTextReceived) String() string { return fmt.Sprintf("TextReceived(%s)", e.Raw) }

func (e EventClosed) String() string { return fmt.Sprintf("Closed(%d %s)", e.Code, e.Reason) }

func (e EventFailed) String() string { return fmt.Sprintf("Failed(%s)", e.Message) }

// translate maps a transport notification onto the event set.
func translate(n Notification) RawEvent {
	switch n.Type {
	case NotifyOpened:
		return EventOpened{}
	case NotifyText:
		return EventTextReceived{Raw: n.Text}
	case NotifyClosing, NotifyClosed:
		return EventClosed{Code: n.Code, Reason: n.Reason}
	case NotifyFailed:
		return failedEvent(n.Err)
	}
	panic(fmt.Sprintf("nanitws: unhandled notification %s", n.Type))
}

func failedEvent(err error) EventFailed {
	if err == nil {
		return EventFailed{Message: "Connection failed"}
	}
	return EventFailed{Message: err.Error(), Cause: err}
}
