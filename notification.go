package nanitws

import "fmt"

// NotificationType enumerates the lifecycle notifications a Connection emits.
type NotificationType byte

const (
	NotifyOpened NotificationType = iota + 1
	NotifyText
	NotifyClosing
	NotifyClosed
	NotifyFailed
)

func (t NotificationType) Is(other NotificationType) bool {
	return t == other
}

// IsTerminal reports whether no further notifications follow this one.
func (t NotificationType) IsTerminal() bool {
	return t.Is(NotifyClosed) || t.Is(NotifyFailed)
}

func (t NotificationType) String() string {
	switch t {
	case NotifyOpened:
		return "opened"
	case NotifyText:
		return "text"
	case NotifyClosing:
		return "closing"
	case NotifyClosed:
		return "closed"
	case NotifyFailed:
		return "failed"
	}
	return fmt.Sprintf("notification(%d)", byte(t))
}

// Notification is a raw lifecycle notification produced by a Connection.
type Notification struct {
	Type NotificationType
	// Text holds the frame payload for NotifyText.
	Text string
	// Code and Reason are set for NotifyClosing and NotifyClosed.
	Code   int
	Reason string
	// Err is set for NotifyFailed.
	Err error
}

func (n Notification) String() string {
	switch n.Type {
	case NotifyText:
		return fmt.Sprintf("Notification{type=%s,text=%s}", n.Type, n.Text)
	case NotifyClosing, NotifyClosed:
		return fmt.Sprintf("Notification{type=%s,code=%d,reason=%s}", n.Type, n.Code, n.Reason)
	case NotifyFailed:
		return fmt.Sprintf("Notification{type=%s,err=%v}", n.Type, n.Err)
	}
	return fmt.Sprintf("Notification{type=%s}", n.Type)
}

func newOpenedNotification() Notification {
	return Notification{Type: NotifyOpened}
}

func newTextNotification(text string) Notification {
	return Notification{Type: NotifyText, Text: text}
}

func newClosingNotification(code int, reason string) Notification {
	return Notification{Type: NotifyClosing, Code: code, Reason: reason}
}

func newClosedNotification(code int, reason string) Notification {
	return Notification{Type: NotifyClosed, Code: code, Reason: reason}
}

func newFailedNotification(err error) Notification {
	return Notification{Type: NotifyFailed, Err: err}
}
