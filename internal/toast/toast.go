// Package toast is the ephemeral notification queue: every workflow
// outcome pushes an entry, and each entry self-destructs a fixed
// lifetime after it was pushed, independently of the others.
package toast

import (
	"time"

	"github.com/google/uuid"
)

// Lifetime is how long a toast stays visible after push.
const Lifetime = 3 * time.Second

// Severity classifies a toast for display.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

// Icon returns the one-character marker shown next to the message.
func (s Severity) Icon() string {
	switch s {
	case Success:
		return "✓"
	case Error:
		return "✕"
	case Warning:
		return "!"
	default:
		return "i"
	}
}

// Toast is one notification entry.
type Toast struct {
	ID        string
	Message   string
	Severity  Severity
	PushedAt  time.Time
	ExpiresAt time.Time
}

// Queue holds live toasts in insertion order. Identical messages are
// not deduplicated.
type Queue struct {
	toasts []Toast
	now    func() time.Time
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// Push appends a toast with a fresh id and stamps its expiry Lifetime
// from now. The caller schedules the matching removal timer.
func (q *Queue) Push(message string, severity Severity) Toast {
	if severity == "" {
		severity = Success
	}
	now := q.now()
	t := Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		PushedAt:  now,
		ExpiresAt: now.Add(Lifetime),
	}
	q.toasts = append(q.toasts, t)
	return t
}

// Dismiss removes the toast with the given id. Unknown ids are a
// no-op, so a late expiry timer for an already-dismissed toast is
// harmless.
func (q *Queue) Dismiss(id string) {
	for i, t := range q.toasts {
		if t.ID == id {
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			return
		}
	}
}

// Items returns the live toasts in insertion order.
func (q *Queue) Items() []Toast {
	return q.toasts
}

// Len returns the number of live toasts.
func (q *Queue) Len() int {
	return len(q.toasts)
}
