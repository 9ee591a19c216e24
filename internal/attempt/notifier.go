package attempt

import (
	"context"
	"time"
)

const (
	EventAttemptStarted   = "attempt.started"
	EventAnswerSubmitted  = "answer.submitted"
	EventAttemptSubmitted = "attempt.submitted"
	EventAttemptReviewed  = "attempt.reviewed"
)

// Event is an outbound lifecycle notification, sent after the unit of work
// that produced it has committed.
type Event struct {
	Name      string         `json:"name"`
	TenantID  string         `json:"tenant_id"`
	OrgID     string         `json:"org_id,omitempty"`
	UserID    string         `json:"user_id"`
	AttemptID string         `json:"attempt_id"`
	Payload   map[string]any `json:"payload,omitempty"`
	At        time.Time      `json:"at"`
}

// Notifier delivers events. Errors are logged by the caller and never undo
// the operation that emitted the event.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, e Event) error

func (f NotifierFunc) Notify(ctx context.Context, e Event) error { return f(ctx, e) }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) error { return nil }
