package order

import (
	"time"
)

// transitions is the authoritative forward-progress table. A status maps to
// the set of statuses reachable from it. Cancellation is handled separately
// so the table stays purely forward.
var transitions = map[Status][]Status{
	StatusNeedsIntent:      {StatusNeedsCapacity, StatusNeedsPreferences},
	StatusNeedsCapacity:    {StatusNeedsPreferences, StatusNeedsShipping},
	StatusNeedsPreferences: {StatusNeedsShipping},
	StatusNeedsShipping:    {StatusConfirmed},
	StatusConfirmed:        {StatusProcessing},
	StatusProcessing:       {StatusReady},
	StatusReady:            {StatusShipped},
	StatusShipped:          {StatusDelivered},
	StatusDelivered:        {StatusCompleted},
	StatusCompleted:        nil,
	StatusCancelled:        nil,
}

// CanTransition reports whether the edge from -> to is in the table.
// Cancellation is permitted from any non-terminal state.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if to == StatusCancelled {
		return !from.Terminal()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// New creates an order at the initial stage with an opening history entry.
func New(number, phone string, now time.Time) *Order {
	return &Order{
		Number: number,
		Phone:  phone,
		Status: StatusNeedsIntent,
		History: []Transition{{
			From: StatusNeedsIntent,
			To:   StatusNeedsIntent,
			At:   now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Advance moves the order to the requested status. An out-of-table request
// returns a *TransitionError and leaves the order untouched; this is an
// expected, recoverable condition for callers driving the flow from user
// input, not an exceptional one.
func (o *Order) Advance(to Status, now time.Time, reason, actor string) error {
	if !CanTransition(o.Status, to) {
		return &TransitionError{Number: o.Number, From: o.Status, To: to}
	}
	o.History = append(o.History, Transition{
		From:   o.Status,
		To:     to,
		At:     now,
		Reason: reason,
		Actor:  actor,
	})
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// ConfirmShipping records the shipping-data-confirmed milestone. It is
// idempotent and independent of the status transition table.
func (o *Order) ConfirmShipping(now time.Time) {
	if o.ShippingConfirmed {
		return
	}
	o.ShippingConfirmed = true
	o.UpdatedAt = now
}
