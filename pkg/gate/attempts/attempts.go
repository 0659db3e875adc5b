package attempts

import (
	"fmt"
	"time"

	"techaura/gatekeeper/pkg/order"
	"techaura/gatekeeper/pkg/session"
)

// Code identifies which budget or order condition fired.
type Code string

const (
	// CodeActiveOrder means the customer already has a confirmed order.
	CodeActiveOrder Code = "has_active_order"

	// CodeMaxAttempts means the per-cycle follow-up budget is exhausted.
	CodeMaxAttempts Code = "max_followups_reached"

	// CodeDailyLimit means the rolling 24h follow-up cap is reached.
	CodeDailyLimit Code = "daily_limit_reached"
)

// Config carries the attempt budgets.
type Config struct {
	// MaxAttempts is the follow-up budget per engagement cycle.
	MaxAttempts int

	// MaxPer24h is the rolling daily follow-up cap.
	MaxPer24h int
}

// Verdict is a single blocking condition.
type Verdict struct {
	Code   Code
	Reason string

	// RetryAt is when the condition clears, zero when it has no natural
	// expiry (active order, exhausted cycle budget).
	RetryAt time.Time
}

// Check evaluates the active-order and attempt-budget conditions for a
// promotional send. promotional is false for order/notification message
// types, which bypass the active-order check entirely; the budgets still
// only ever apply to promotional sends, so a non-promotional request
// passes this gate outright.
func Check(cfg Config, sess *session.UserSession, now time.Time, promotional bool) []Verdict {
	if !promotional {
		return nil
	}

	var verdicts []Verdict

	if sess.Order != nil && order.Status(sess.Order.Status).ConfirmedOrBeyond() {
		verdicts = append(verdicts, Verdict{
			Code: CodeActiveOrder,
			Reason: fmt.Sprintf("customer has active order %s (%s)",
				sess.Order.Number, sess.Order.Status),
		})
	}

	if sess.FollowUpAttempts >= cfg.MaxAttempts {
		verdicts = append(verdicts, Verdict{
			Code: CodeMaxAttempts,
			Reason: fmt.Sprintf("follow-up attempts exhausted (%d of %d)",
				sess.FollowUpAttempts, cfg.MaxAttempts),
		})
	}

	if inWindow := sess.FollowUpsInWindow(now); inWindow >= cfg.MaxPer24h {
		v := Verdict{
			Code: CodeDailyLimit,
			Reason: fmt.Sprintf("daily follow-up limit reached (%d of %d)",
				inWindow, cfg.MaxPer24h),
		}
		if !sess.CountWindowStart.IsZero() {
			v.RetryAt = sess.CountWindowStart.Add(24 * time.Hour)
		}
		verdicts = append(verdicts, v)
	}

	return verdicts
}
