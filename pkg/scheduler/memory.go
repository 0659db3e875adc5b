package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryOutbox implements Outbox with an in-process map. Jobs are lost on
// restart; deployments that need durable follow-ups across restarts
// should persist sessions and re-enqueue from flow state.
type MemoryOutbox struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewMemoryOutbox creates an empty in-memory outbox.
func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{
		jobs: make(map[string]*Job),
	}
}

// Enqueue inserts a queued job.
func (m *MemoryOutbox) Enqueue(ctx context.Context, job *Job) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}
	if job.ID == "" {
		return fmt.Errorf("job ID cannot be empty")
	}
	if job.Phone == "" {
		return fmt.Errorf("job phone cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already enqueued", job.ID)
	}

	cp := *job
	if cp.Status == "" {
		cp.Status = StatusQueued
	}
	m.jobs[cp.ID] = &cp
	return nil
}

// ClaimDue marks up to limit due jobs as sending and returns copies.
func (m *MemoryOutbox) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []*Job
	for _, job := range m.jobs {
		if job.Status == StatusQueued && !job.NextAttemptAt.After(now) {
			due = append(due, job)
		}
	}
	// Oldest due first, so a busy queue drains fairly.
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextAttemptAt.Before(due[j].NextAttemptAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	out := make([]*Job, 0, len(due))
	for _, job := range due {
		job.Status = StatusSending
		t := now
		job.LockedAt = &t
		job.UpdatedAt = now
		cp := *job
		out = append(out, &cp)
	}
	return out, nil
}

// MarkSent finishes a claimed job successfully.
func (m *MemoryOutbox) MarkSent(ctx context.Context, id string, at time.Time) error {
	return m.update(id, func(job *Job) {
		job.Status = StatusSent
		job.LockedAt = nil
		job.UpdatedAt = at
	})
}

// Reschedule returns a claimed job to the queue.
func (m *MemoryOutbox) Reschedule(ctx context.Context, id string, at time.Time, reason string) error {
	return m.update(id, func(job *Job) {
		job.Status = StatusQueued
		job.Reschedules++
		job.NextAttemptAt = at
		job.LastReason = reason
		job.LockedAt = nil
		job.UpdatedAt = time.Now()
	})
}

// Abandon terminates a job that will never become eligible.
func (m *MemoryOutbox) Abandon(ctx context.Context, id string, reason string) error {
	return m.update(id, func(job *Job) {
		job.Status = StatusAbandoned
		job.LastReason = reason
		job.LockedAt = nil
		job.UpdatedAt = time.Now()
	})
}

// Cancel terminates a queued job. No-op on terminal jobs.
func (m *MemoryOutbox) Cancel(ctx context.Context, id string) error {
	return m.update(id, func(job *Job) {
		if job.Status.Terminal() {
			return
		}
		job.Status = StatusCanceled
		job.LockedAt = nil
		job.UpdatedAt = time.Now()
	})
}

// Get returns a copy of the job, or nil when absent.
func (m *MemoryOutbox) Get(ctx context.Context, id string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

// RequeueStale resets jobs stuck in sending since before staleBefore.
func (m *MemoryOutbox) RequeueStale(ctx context.Context, staleBefore time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reset := 0
	for _, job := range m.jobs {
		if job.Status == StatusSending && job.LockedAt != nil && job.LockedAt.Before(staleBefore) {
			job.Status = StatusQueued
			job.LockedAt = nil
			job.UpdatedAt = time.Now()
			reset++
		}
	}
	return reset, nil
}

// Pending returns the number of non-terminal jobs. For tests and health
// reporting.
func (m *MemoryOutbox) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, job := range m.jobs {
		if !job.Status.Terminal() {
			n++
		}
	}
	return n
}

// Close is a no-op for the memory outbox.
func (m *MemoryOutbox) Close() error {
	return nil
}

func (m *MemoryOutbox) update(id string, fn func(*Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	fn(job)
	return nil
}
