package gate

import (
	"techaura/gatekeeper/pkg/session"
)

// InboundEvaluator decides whether an inbound message may be processed.
// It is deliberately a separate type with no access to the outbound
// gates: the guarantee that inbound always proceeds is structural, not a
// conditional inside a shared function.
type InboundEvaluator struct {
	metrics *Metrics
}

// NewInboundEvaluator creates the inbound evaluator; metrics may be nil.
func NewInboundEvaluator(metrics *Metrics) *InboundEvaluator {
	return &InboundEvaluator{metrics: metrics}
}

// Evaluate always allows. Cooldowns, opt-out status, attempt budgets and
// advisory tags are outbound-only policies; a suppressed user can always
// re-engage by writing in.
func (e *InboundEvaluator) Evaluate(sess *session.UserSession) InboundResult {
	e.metrics.RecordInbound()
	return InboundResult{
		Allowed:    true,
		ReasonCode: ReasonAllowed,
	}
}

// CanProcessInbound is a convenience wrapper for flow code that only
// wants a boolean. True by construction.
func (e *InboundEvaluator) CanProcessInbound(sess *session.UserSession) bool {
	return e.Evaluate(sess).Allowed
}
