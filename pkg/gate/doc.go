// Package gate is the outbound-message policy engine for the sales bot.
//
// A sender builds a SendRequest, the Evaluator loads nothing itself: it is
// handed a read-only session snapshot and runs every gate (time window,
// cooldown/opt-out, recency, category suppression, active-order/attempt
// budgets), collecting every blocking reason rather than stopping at the
// first. When blocked, NextEligibleAt is the latest of all individual gate
// retry instants, each with randomized jitter, since every condition must
// clear before a retry makes sense.
//
// Inbound messages go through InboundEvaluator, a structurally separate
// evaluator that always allows: a user who was gated out of receiving
// follow-ups must still be able to write to the bot, and making that a
// type-level fact keeps outbound policy from ever leaking into inbound
// handling.
package gate
