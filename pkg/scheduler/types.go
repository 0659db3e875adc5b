package scheduler

import (
	"context"
	"errors"
	"time"

	"techaura/gatekeeper/pkg/gate"
)

// JobStatus is the lifecycle state of an outbox job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusSending   JobStatus = "sending"
	StatusSent      JobStatus = "sent"
	StatusAbandoned JobStatus = "abandoned"
	StatusCanceled  JobStatus = "canceled"
)

// Terminal reports whether the status admits no further processing.
func (s JobStatus) Terminal() bool {
	return s == StatusSent || s == StatusAbandoned || s == StatusCanceled
}

// Job is one durable outgoing send.
type Job struct {
	// ID is a UUID assigned at enqueue time.
	ID string `json:"id"`

	// Phone is the target customer.
	Phone string `json:"phone"`

	// MessageType and Priority feed the gate evaluation.
	MessageType gate.MessageType `json:"message_type"`
	Priority    gate.Priority    `json:"priority,omitempty"`

	// Body is the rendered message content.
	Body string `json:"body"`

	Status JobStatus `json:"status"`

	// Reschedules counts gate-driven deferrals and send-failure retries.
	// Bounded by the scheduler's MaxReschedules.
	Reschedules int `json:"reschedules"`

	// NextAttemptAt is when the job becomes due.
	NextAttemptAt time.Time `json:"next_attempt_at"`

	// LastReason records why the job was last deferred or terminated.
	LastReason string `json:"last_reason,omitempty"`

	// LockedAt is set while a sweep holds the job in sending state.
	LockedAt *time.Time `json:"locked_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrJobNotFound is returned for operations on unknown job IDs.
var ErrJobNotFound = errors.New("outbox job not found")

// Outbox is the durable job store. Implementations must be safe for
// concurrent use.
type Outbox interface {
	// Enqueue inserts a queued job.
	Enqueue(ctx context.Context, job *Job) error

	// ClaimDue marks up to limit queued jobs with NextAttemptAt <= now as
	// sending and returns them.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*Job, error)

	// MarkSent finishes a claimed job successfully.
	MarkSent(ctx context.Context, id string, at time.Time) error

	// Reschedule returns a claimed job to the queue, due at the given
	// instant, incrementing its reschedule counter.
	Reschedule(ctx context.Context, id string, at time.Time, reason string) error

	// Abandon terminates a job that will never become eligible.
	Abandon(ctx context.Context, id string, reason string) error

	// Cancel terminates a queued job (e.g. the customer converted).
	// No-op on jobs already terminal.
	Cancel(ctx context.Context, id string) error

	// Get returns a job by ID, or nil when absent.
	Get(ctx context.Context, id string) (*Job, error)

	// RequeueStale returns jobs stuck in sending since before staleBefore
	// back to queued (crash recovery), reporting how many were reset.
	RequeueStale(ctx context.Context, staleBefore time.Time) (int, error)

	// Close releases any resources held by the outbox.
	Close() error
}

// Sender delivers a message to a customer. On block the scheduler never
// invokes it. Implementations wrap the actual WhatsApp transport, which
// is outside this module.
type Sender interface {
	Send(ctx context.Context, phone, body string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, phone, body string) error

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, phone, body string) error {
	return f(ctx, phone, body)
}
