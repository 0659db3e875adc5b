package gate

import (
	"time"
)

// MessageType classifies an outbound message by intent.
type MessageType string

const (
	TypeFollowUp     MessageType = "followup"
	TypePersuasive   MessageType = "persuasive"
	TypeOrder        MessageType = "order"
	TypeNotification MessageType = "notification"
	TypeCatalog      MessageType = "catalog"
	TypeGeneral      MessageType = "general"
)

// MessageCategory is the coarse policy class a message falls into. It is
// resolved once at the request boundary via CategoryForType, never
// re-inferred inside a gate.
type MessageCategory string

const (
	CategoryOrderStatus MessageCategory = "ORDER_STATUS"
	CategoryFollowUp    MessageCategory = "FOLLOWUP"
	CategoryPersuasion  MessageCategory = "PERSUASION"
	CategoryGeneral     MessageCategory = "GENERAL"
)

// Valid reports whether c is a known category.
func (c MessageCategory) Valid() bool {
	switch c {
	case CategoryOrderStatus, CategoryFollowUp, CategoryPersuasion, CategoryGeneral:
		return true
	}
	return false
}

// CategoryForType is the total mapping from message type to category.
// Unknown types map to GENERAL.
func CategoryForType(t MessageType) MessageCategory {
	switch t {
	case TypeOrder, TypeNotification:
		return CategoryOrderStatus
	case TypeFollowUp:
		return CategoryFollowUp
	case TypePersuasive:
		return CategoryPersuasion
	default:
		return CategoryGeneral
	}
}

// Promotional reports whether the category is subject to the active-order
// and attempt-budget checks and the inter-follow-up gap.
func (c MessageCategory) Promotional() bool {
	return c == CategoryFollowUp || c == CategoryPersuasion
}

// Priority modifies gate behavior for a single request.
type Priority string

const (
	PriorityNormal Priority = "normal"

	// PriorityHigh bypasses the interaction-recency sub-check only; it
	// does not override cooldown or opt-out.
	PriorityHigh Priority = "high"
)

// ReasonCode identifies a gate decision in results, logs and metrics.
type ReasonCode string

const (
	ReasonAllowed ReasonCode = "ALLOWED"

	ReasonOutsideSendWindow   ReasonCode = "OUTSIDE_SEND_WINDOW"
	ReasonCooldownActive      ReasonCode = "COOLDOWN_ACTIVE"
	ReasonOptedOut            ReasonCode = "OPTED_OUT"
	ReasonContactClosed       ReasonCode = "CONTACT_CLOSED"
	ReasonInteractionRecency  ReasonCode = "OUTBOUND_RECENCY_INTERACTION"
	ReasonInsufficientSilence ReasonCode = "INSUFFICIENT_SILENCE"
	ReasonFollowupTooSoon     ReasonCode = "FOLLOWUP_TOO_SOON"
	ReasonCategorySuppressed  ReasonCode = "CATEGORY_SUPPRESSED"
	ReasonHasActiveOrder      ReasonCode = "HAS_ACTIVE_ORDER"
	ReasonMaxAttemptsReached  ReasonCode = "MAX_FOLLOWUPS_REACHED"
	ReasonDailyLimitReached   ReasonCode = "DAILY_LIMIT_REACHED"
)

// SendRequest is one proposed outbound send.
type SendRequest struct {
	// Phone is the target customer.
	Phone string

	// MessageType classifies the message.
	MessageType MessageType

	// Category overrides the type-derived category when set. Leave empty
	// to resolve via CategoryForType.
	Category MessageCategory

	// Priority defaults to normal.
	Priority Priority

	// BypassTimeWindow skips the sending-hours gate; used for order
	// confirmations and other transactional notifications that must be
	// delivered promptly.
	BypassTimeWindow bool
}

// ResolvedCategory returns the explicit category when valid, otherwise the
// type-derived one.
func (r SendRequest) ResolvedCategory() MessageCategory {
	if r.Category.Valid() {
		return r.Category
	}
	return CategoryForType(r.MessageType)
}

// Counters snapshots the session counters the decision was based on, so
// every block is explainable from the result alone.
type Counters struct {
	FollowUpAttempts int `json:"follow_up_attempts"`
	FollowUpsLast24h int `json:"follow_ups_last_24h"`
}

// Limits snapshots the configured thresholds in effect for the decision.
type Limits struct {
	MaxFollowUpAttempts   int           `json:"max_follow_up_attempts"`
	MaxFollowupsPer24h    int           `json:"max_followups_per_24h"`
	MinInteractionSilence time.Duration `json:"min_interaction_silence"`
	RecommendedSilence    time.Duration `json:"recommended_silence"`
	MinFollowupGap        time.Duration `json:"min_followup_gap"`
	SendWindowStartHour   int           `json:"send_window_start_hour"`
	SendWindowEndHour     int           `json:"send_window_end_hour"`
}

// Result is the outcome of one outbound evaluation. It is computed fresh
// per call and never persisted.
type Result struct {
	// Allowed is true when no gate blocked.
	Allowed bool

	// BlockedBy lists every gate that blocked, not just the first.
	BlockedBy []ReasonCode

	// Reason is a human-readable summary including numeric thresholds.
	Reason string

	// NextEligibleAt is the earliest sensible retry instant: the latest
	// of all individual gate retry times, each with its own jitter. Nil
	// when allowed, or when every blocking condition lacks a natural
	// expiry (opt-out, exhausted attempt budget).
	NextEligibleAt *time.Time

	// Counters and Limits make the decision self-explanatory.
	Counters Counters
	Limits   Limits

	LastInteraction time.Time
	LastFollowUp    *time.Time
}

// Blocked reports whether code appears in BlockedBy.
func (r *Result) Blocked(code ReasonCode) bool {
	for _, c := range r.BlockedBy {
		if c == code {
			return true
		}
	}
	return false
}

// InboundResult is the outcome of an inbound evaluation. By construction
// it is always allowed; the type exists so inbound handling cannot be
// wired to outbound policy by accident.
type InboundResult struct {
	Allowed    bool
	ReasonCode ReasonCode
}
