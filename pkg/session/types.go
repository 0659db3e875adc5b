package session

import (
	"context"
	"time"
)

// ContactStatus is the outbound-contact standing of a customer.
type ContactStatus string

const (
	// StatusActive permits outbound contact.
	StatusActive ContactStatus = "ACTIVE"

	// StatusOptOut means the customer asked not to be contacted.
	// Outbound is unconditionally blocked; inbound always proceeds.
	StatusOptOut ContactStatus = "OPT_OUT"

	// StatusClosed means the engagement was closed by an operator or by
	// attrition. Suppresses outbound like OPT_OUT, with its own reason.
	StatusClosed ContactStatus = "CLOSED"
)

// Valid reports whether s is a known contact status.
func (s ContactStatus) Valid() bool {
	switch s {
	case StatusActive, StatusOptOut, StatusClosed:
		return true
	}
	return false
}

// OrderRef is the denormalized order pointer carried on a session. The
// authoritative order record lives in the order repository; this is what
// the messaging layer last observed.
type OrderRef struct {
	Number string `json:"number"`
	Status string `json:"status"`
}

// UserSession is the per-customer conversation record.
type UserSession struct {
	// Phone is the customer's WhatsApp identifier and the record key.
	Phone string `json:"phone"`

	// LastInteraction is when the customer last wrote in.
	LastInteraction time.Time `json:"last_interaction"`

	// LastFollowUp is when the bot last sent a follow-up, nil if never.
	LastFollowUp *time.Time `json:"last_follow_up,omitempty"`

	// FollowUpAttempts counts follow-up sends for the current engagement
	// cycle. Reset when the customer re-engages.
	FollowUpAttempts int `json:"follow_up_attempts"`

	// FollowUpCount24h counts follow-ups inside the current daily window.
	FollowUpCount24h int `json:"follow_up_count_24h"`

	// CountWindowStart anchors the daily window. The counter is read
	// through FollowUpsInWindow, which expires it lazily instead of
	// relying on a background sweep.
	CountWindowStart time.Time `json:"count_window_start,omitempty"`

	// CooldownUntil suppresses all outbound while in the future.
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`

	// ContactStatus is the outbound-contact standing.
	ContactStatus ContactStatus `json:"contact_status"`

	// Order is the most recently observed order, if any.
	Order *OrderRef `json:"order,omitempty"`

	// Tags are advisory labels (e.g. "blacklist", "not_interested").
	// They never drive gating decisions on their own.
	Tags []string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FollowUpsInWindow returns the follow-up count for the daily window that
// contains now. A window older than 24h reads as zero.
func (s *UserSession) FollowUpsInWindow(now time.Time) int {
	if s.CountWindowStart.IsZero() || now.Sub(s.CountWindowStart) >= 24*time.Hour {
		return 0
	}
	return s.FollowUpCount24h
}

// InCooldown reports whether the session is inside an explicit cooldown.
// Only a timestamp strictly in the future blocks; an expired or unset
// cooldown reads as inactive.
func (s *UserSession) InCooldown(now time.Time) bool {
	return s.CooldownUntil != nil && s.CooldownUntil.After(now)
}

// HasTag reports whether the session carries the given advisory tag.
func (s *UserSession) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand out as a read-only snapshot.
func (s *UserSession) Clone() *UserSession {
	cp := *s
	if s.LastFollowUp != nil {
		t := *s.LastFollowUp
		cp.LastFollowUp = &t
	}
	if s.CooldownUntil != nil {
		t := *s.CooldownUntil
		cp.CooldownUntil = &t
	}
	if s.Order != nil {
		o := *s.Order
		cp.Order = &o
	}
	cp.Tags = append([]string(nil), s.Tags...)
	return &cp
}

// Store owns session records. Implementations must be safe for concurrent
// use.
type Store interface {
	// Get returns the session for a phone, or nil when absent.
	Get(ctx context.Context, phone string) (*UserSession, error)

	// Put inserts or replaces a session keyed by phone.
	Put(ctx context.Context, sess *UserSession) error

	// TouchInteraction records an inbound message at the given instant,
	// creating the session on first contact. Re-engagement resets the
	// follow-up attempt counter for a fresh cycle.
	TouchInteraction(ctx context.Context, phone string, at time.Time) (*UserSession, error)

	// RecordFollowUp records an outbound follow-up send at the given
	// instant: sets LastFollowUp, bumps the cycle and daily counters.
	RecordFollowUp(ctx context.Context, phone string, at time.Time) error

	// Delete removes a session. No-op when absent.
	Delete(ctx context.Context, phone string) error

	// Close releases any resources held by the store.
	Close() error
}
