package toast

import (
	"fmt"
	"time"

	"github.com/herraise/hubclient/pkg/notifications"
)

// Auto-dismiss timeouts by priority.
const (
	TimeoutHigh   = 8 * time.Second
	TimeoutNormal = 5 * time.Second
	TimeoutLow    = 3 * time.Second
)

// Event is a request to show a toast.
type Event struct {
	Title    string
	Message  string
	Type     notifications.Type
	Priority notifications.Priority
	Avatar   string
	// Action runs when the toast is clicked. It may be nil.
	Action func()
}

// FromNotification builds the toast event for a freshly delivered
// notification. When the notification has a target and navigate is not nil,
// clicking the toast navigates there.
func FromNotification(n notifications.Notification, navigate func(target string)) Event {
	e := Event{
		Title:    n.Title,
		Message:  n.Message,
		Type:     n.Type,
		Priority: n.Priority(),
		Avatar:   n.Avatar,
	}
	if target := n.Target(); target != "" && navigate != nil {
		e.Action = func() { navigate(target) }
	}
	return e
}

// Toast is a visible card.
type Toast struct {
	ID        string
	CreatedAt time.Time
	Event
}

// Timeout returns the auto-dismiss delay for p. Critical shares the high
// delay.
func Timeout(p notifications.Priority) time.Duration {
	switch p {
	case notifications.PriorityHigh, notifications.PriorityCritical:
		return TimeoutHigh
	case notifications.PriorityLow:
		return TimeoutLow
	default:
		return TimeoutNormal
	}
}

// RelativeTime renders how long ago t was, relative to now.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}
