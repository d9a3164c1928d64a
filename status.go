package nanitws

import "fmt"

type StatusKind int

const (
	KindIdle StatusKind = iota
	KindConnecting
	KindConnected
	KindMessageReceived
	KindError
)

func (k StatusKind) String() string {
	switch k {
	case KindIdle:
		return "Idle"
	case KindConnecting:
		return "Connecting"
	case KindConnected:
		return "Connected"
	case KindMessageReceived:
		return "MessageReceived"
	case KindError:
		return "Error"
	}
	return fmt.Sprintf("StatusKind(%d)", int(k))
}

// ConnectionStatus is the observable connection state. Message is only set for KindError.
// The zero value is Idle.
type ConnectionStatus struct {
	Kind    StatusKind
	Message string
}

func StatusIdle() ConnectionStatus            { return ConnectionStatus{Kind: KindIdle} }
func StatusConnecting() ConnectionStatus      { return ConnectionStatus{Kind: KindConnecting} }
func StatusConnected() ConnectionStatus       { return ConnectionStatus{Kind: KindConnected} }
func StatusMessageReceived() ConnectionStatus { return ConnectionStatus{Kind: KindMessageReceived} }

func StatusError(message string) ConnectionStatus {
	return ConnectionStatus{Kind: KindError, Message: message}
}

func (s ConnectionStatus) IsError() bool { return s.Kind == KindError }

func (s ConnectionStatus) String() string {
	if s.Kind == KindError {
		return fmt.Sprintf("Error(%s)", s.Message)
	}
	return s.Kind.String()
}

type CacheEffect int

const (
	CacheKeep CacheEffect = iota
	CacheSet
	CacheClear
)

// Transition is the outcome of applying one RawEvent.
type Transition struct {
	Status ConnectionStatus
	Cache  CacheEffect
	// Record is set when Cache is CacheSet.
	Record BirthdayRecord
	// Err is the decode error of a rejected text frame.
	Err error
}

// Apply is the connection state table. The next status depends on the event alone.
func Apply(ev RawEvent, codec Codec) Transition {
	switch e := ev.(type) {
	case EventConnecting:
		return Transition{Status: StatusConnecting()}
	case EventOpened:
		return Transition{Status: StatusConnected()}
	case EventTextReceived:
		record, err := codec.DecodeRecord(e.Raw)
		if err != nil {
			return Transition{Status: StatusError(err.Error()), Err: err}
		}
		return Transition{Status: StatusMessageReceived(), Cache: CacheSet, Record: record}
	case EventClosed:
		return Transition{Status: StatusIdle(), Cache: CacheClear}
	case EventFailed:
		return Transition{Status: StatusError(e.Message)}
	}
	panic(fmt.Sprintf("nanitws: unhandled raw event %T", ev))
}
