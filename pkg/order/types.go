package order

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status represents a stage in the order lifecycle.
type Status string

const (
	// StatusNeedsIntent is the initial stage: the customer has shown
	// interest but not yet chosen a product.
	StatusNeedsIntent Status = "NEEDS_INTENT"

	// StatusNeedsCapacity means the customer must pick a USB capacity.
	StatusNeedsCapacity Status = "NEEDS_CAPACITY"

	// StatusNeedsPreferences means the customer must pick content
	// (genres, artists, video playlists).
	StatusNeedsPreferences Status = "NEEDS_PREFERENCES"

	// StatusNeedsShipping means the order is waiting for a delivery address.
	StatusNeedsShipping Status = "NEEDS_SHIPPING"

	// StatusConfirmed means the customer confirmed the purchase.
	StatusConfirmed Status = "CONFIRMED"

	// StatusProcessing means the USB is being prepared (content burning).
	StatusProcessing Status = "PROCESSING"

	// StatusReady means the USB is ready for dispatch.
	StatusReady Status = "READY"

	// StatusShipped means the order has been handed to the carrier.
	StatusShipped Status = "SHIPPED"

	// StatusDelivered means the carrier reported delivery.
	StatusDelivered Status = "DELIVERED"

	// StatusCompleted is the terminal success state.
	StatusCompleted Status = "COMPLETED"

	// StatusCancelled is reachable from any non-terminal state.
	StatusCancelled Status = "CANCELLED"
)

// stageRank orders the happy-path stages for comparisons such as
// "confirmed or beyond". Cancelled is deliberately absent.
var stageRank = map[Status]int{
	StatusNeedsIntent:      0,
	StatusNeedsCapacity:    1,
	StatusNeedsPreferences: 1,
	StatusNeedsShipping:    2,
	StatusConfirmed:        3,
	StatusProcessing:       4,
	StatusReady:            5,
	StatusShipped:          6,
	StatusDelivered:        7,
	StatusCompleted:        8,
}

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := stageRank[s]
	return ok
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ConfirmedOrBeyond reports whether the order passed the purchase
// confirmation stage. Cancelled orders report false.
func (s Status) ConfirmedOrBeyond() bool {
	rank, ok := stageRank[s]
	return ok && rank >= stageRank[StatusConfirmed]
}

// Transition records one accepted state change.
type Transition struct {
	From   Status    `json:"from"`
	To     Status    `json:"to"`
	At     time.Time `json:"at"`
	Reason string    `json:"reason,omitempty"`
	Actor  string    `json:"actor,omitempty"`
}

// Order is a single customer order.
type Order struct {
	// Number is the human-facing order number (e.g. "TA-20260830-0042").
	Number string `json:"number"`

	// Phone is the customer's WhatsApp identifier.
	Phone string `json:"phone"`

	// Status is the current lifecycle stage.
	Status Status `json:"status"`

	// ShippingConfirmed is set once the customer has confirmed delivery
	// data. It is a suppression milestone independent of Status: follow-up
	// and persuasion sends stop as soon as it is set.
	ShippingConfirmed bool `json:"shipping_confirmed"`

	// History is the append-only list of accepted transitions.
	History []Transition `json:"history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Suppressing reports whether this order has reached a milestone that
// suppresses non-transactional outbound messages.
func (o *Order) Suppressing() bool {
	return o.ShippingConfirmed ||
		o.Status == StatusDelivered ||
		o.Status == StatusCompleted
}

// SuppressionCause names the milestone behind Suppressing, for use in
// human-readable block reasons. Empty when the order is not suppressing.
func (o *Order) SuppressionCause() string {
	switch {
	case o.Status == StatusCompleted:
		return "order completed"
	case o.Status == StatusDelivered:
		return "order delivered"
	case o.ShippingConfirmed:
		return "shipping confirmed"
	default:
		return ""
	}
}

// Repository provides read/write access to orders. The gating core only
// uses FindByPhone; the rest serves the bot's order-management flows.
type Repository interface {
	// Save inserts or updates an order keyed by order number.
	Save(ctx context.Context, o *Order) error

	// Find returns the order with the given number, or nil when absent.
	Find(ctx context.Context, number string) (*Order, error)

	// FindByPhone returns all orders for a phone, newest first.
	FindByPhone(ctx context.Context, phone string) ([]*Order, error)

	// Close releases any resources held by the repository.
	Close() error
}

// ErrInvalidTransition is returned when a requested state change is not in
// the transition table. The order is left unchanged.
var ErrInvalidTransition = errors.New("invalid order transition")

// TransitionError carries the rejected edge for diagnostics.
type TransitionError struct {
	Number string
	From   Status
	To     Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: transition %s -> %s not permitted", e.Number, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
