package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"techaura/gatekeeper/pkg/session"
)

// MemoryStore implements session.Store with an in-process map.
//
// Daily follow-up counters expire lazily at read/write time; there is no
// background timer unless compaction is explicitly enabled, in which case
// a single goroutine periodically drops long-idle sessions.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.UserSession

	done      chan struct{}
	closeOnce sync.Once
}

// MemoryStoreConfig configures the memory store.
type MemoryStoreConfig struct {
	// CompactionInterval is how often to drop idle sessions. Zero disables
	// background compaction entirely; Compact can still be called directly.
	CompactionInterval time.Duration

	// RetentionPeriod is how long an untouched session survives
	// compaction. Default: 90 days.
	RetentionPeriod time.Duration
}

// NewMemoryStore creates an empty memory store with no background work.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithConfig(MemoryStoreConfig{})
}

// NewMemoryStoreWithConfig creates a memory store; a non-zero
// CompactionInterval starts the periodic compaction goroutine.
func NewMemoryStoreWithConfig(cfg MemoryStoreConfig) *MemoryStore {
	if cfg.RetentionPeriod == 0 {
		cfg.RetentionPeriod = 90 * 24 * time.Hour
	}

	store := &MemoryStore{
		sessions: make(map[string]*session.UserSession),
		done:     make(chan struct{}),
	}

	if cfg.CompactionInterval > 0 {
		go store.compactionLoop(cfg.CompactionInterval, cfg.RetentionPeriod)
	}

	return store
}

// Get returns a deep copy of the session for a phone, or nil when absent.
func (m *MemoryStore) Get(ctx context.Context, phone string) (*session.UserSession, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[phone]
	if !ok {
		return nil, nil
	}
	return sess.Clone(), nil
}

// Put inserts or replaces a session keyed by phone.
func (m *MemoryStore) Put(ctx context.Context, sess *session.UserSession) error {
	if sess == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if sess.Phone == "" {
		return fmt.Errorf("phone cannot be empty")
	}
	if sess.ContactStatus != "" && !sess.ContactStatus.Valid() {
		return fmt.Errorf("invalid contact status %q", sess.ContactStatus)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := sess.Clone()
	now := time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = now
	}
	if cp.ContactStatus == "" {
		cp.ContactStatus = session.StatusActive
	}
	m.sessions[cp.Phone] = cp
	return nil
}

// TouchInteraction records an inbound message, creating the session on
// first contact. A customer writing in starts a fresh follow-up cycle.
func (m *MemoryStore) TouchInteraction(ctx context.Context, phone string, at time.Time) (*session.UserSession, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[phone]
	if !ok {
		sess = &session.UserSession{
			Phone:         phone,
			ContactStatus: session.StatusActive,
			CreatedAt:     at,
		}
		m.sessions[phone] = sess
	}

	sess.LastInteraction = at
	sess.FollowUpAttempts = 0
	sess.UpdatedAt = at
	return sess.Clone(), nil
}

// RecordFollowUp records an outbound follow-up send.
func (m *MemoryStore) RecordFollowUp(ctx context.Context, phone string, at time.Time) error {
	if phone == "" {
		return fmt.Errorf("phone cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[phone]
	if !ok {
		return fmt.Errorf("no session for phone %s", phone)
	}

	t := at
	sess.LastFollowUp = &t
	sess.FollowUpAttempts++

	// Lazy daily-window rollover.
	if sess.CountWindowStart.IsZero() || at.Sub(sess.CountWindowStart) >= 24*time.Hour {
		sess.CountWindowStart = at
		sess.FollowUpCount24h = 0
	}
	sess.FollowUpCount24h++
	sess.UpdatedAt = at
	return nil
}

// Delete removes a session. No-op when absent.
func (m *MemoryStore) Delete(ctx context.Context, phone string) error {
	if phone == "" {
		return fmt.Errorf("phone cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, phone)
	return nil
}

// Compact removes sessions untouched since the cutoff and returns the
// number removed.
func (m *MemoryStore) Compact(olderThan time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for phone, sess := range m.sessions {
		if sess.UpdatedAt.Before(olderThan) {
			delete(m.sessions, phone)
			removed++
		}
	}
	return removed
}

// Size returns the number of stored sessions. Useful for tests.
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the compaction goroutine if one is running.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	return nil
}

func (m *MemoryStore) compactionLoop(interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Compact(time.Now().Add(-retention))
		case <-m.done:
			return
		}
	}
}
