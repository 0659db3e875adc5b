package cooldown

import (
	"fmt"
	"time"

	"techaura/gatekeeper/pkg/session"
)

// Code identifies which suppression condition fired.
type Code string

const (
	// CodeCooldown means an explicit cooldown timestamp is in the future.
	CodeCooldown Code = "cooldown"

	// CodeOptOut means the customer opted out of outbound contact.
	CodeOptOut Code = "opt_out"

	// CodeClosed means the engagement was closed.
	CodeClosed Code = "closed"
)

// Verdict is a single blocking condition found on a session.
type Verdict struct {
	Code   Code
	Reason string

	// RetryAt is when the condition clears. Zero for opt-out/closed,
	// which have no natural expiry.
	RetryAt time.Time
}

// Check returns every cooldown/opt-out condition currently suppressing
// outbound contact for the session. An empty slice means this gate passes.
//
// A cooldown timestamp blocks only while strictly in the future; unset or
// already-expired cooldowns read as inactive. Contact status and cooldown
// are reported independently so the orchestrator can surface both.
func Check(sess *session.UserSession, now time.Time) []Verdict {
	var verdicts []Verdict

	switch sess.ContactStatus {
	case session.StatusOptOut:
		verdicts = append(verdicts, Verdict{
			Code:   CodeOptOut,
			Reason: "customer opted out of outbound contact",
		})
	case session.StatusClosed:
		verdicts = append(verdicts, Verdict{
			Code:   CodeClosed,
			Reason: "contact closed",
		})
	}

	if sess.InCooldown(now) {
		verdicts = append(verdicts, Verdict{
			Code: CodeCooldown,
			Reason: fmt.Sprintf("cooldown active for another %s",
				sess.CooldownUntil.Sub(now).Round(time.Second)),
			RetryAt: *sess.CooldownUntil,
		})
	}

	return verdicts
}
