package gate

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"techaura/gatekeeper/pkg/gate/attempts"
	"techaura/gatekeeper/pkg/gate/category"
	"techaura/gatekeeper/pkg/gate/cooldown"
	"techaura/gatekeeper/pkg/gate/recency"
	"techaura/gatekeeper/pkg/gate/timewindow"
	"techaura/gatekeeper/pkg/order"
	"techaura/gatekeeper/pkg/session"
)

// Config carries every gate threshold. Missing or inconsistent thresholds
// are a startup failure, never a runtime gate outcome.
type Config struct {
	// Window is the daily sending-hours policy.
	Window timewindow.Config

	// Recency carries the silence floors and follow-up gap.
	Recency recency.Config

	// Attempts carries the follow-up budgets.
	Attempts attempts.Config

	// JitterMin/JitterMax bound the randomized offset added to every
	// computed retry instant, to avoid synchronized retry storms.
	JitterMin time.Duration
	JitterMax time.Duration

	// Now overrides the clock; nil uses time.Now. For tests.
	Now func() time.Time

	// Jitter overrides jitter generation; nil draws uniformly from
	// [JitterMin, JitterMax]. For tests.
	Jitter func() time.Duration
}

// Validate checks the threshold set for internal consistency.
func (c Config) Validate() error {
	if c.Recency.MinInteractionSilence <= 0 {
		return fmt.Errorf("min interaction silence must be positive")
	}
	if c.Recency.RecommendedSilence <= c.Recency.MinInteractionSilence {
		return fmt.Errorf("recommended silence (%s) must exceed the anti-ban floor (%s)",
			c.Recency.RecommendedSilence, c.Recency.MinInteractionSilence)
	}
	if c.Recency.MinFollowupGap <= 0 {
		return fmt.Errorf("min follow-up gap must be positive")
	}
	if c.Attempts.MaxAttempts <= 0 {
		return fmt.Errorf("max follow-up attempts must be positive")
	}
	if c.Attempts.MaxPer24h <= 0 {
		return fmt.Errorf("max follow-ups per 24h must be positive")
	}
	if c.JitterMin < 0 || c.JitterMax < c.JitterMin {
		return fmt.Errorf("jitter bounds [%s, %s] are inconsistent", c.JitterMin, c.JitterMax)
	}
	return nil
}

// Evaluator runs every outbound gate for a send request. Evaluations are
// pure reads: the session snapshot is never mutated and no state is kept
// between calls, so a single Evaluator is safe for concurrent use.
type Evaluator struct {
	cfg         Config
	window      *timewindow.Policy
	suppression *category.Gate
	metrics     *Metrics
	logger      *slog.Logger
	now         func() time.Time
	jitter      func() time.Duration
}

// NewEvaluator validates the config and builds an Evaluator. The order
// repository feeds the category-suppression lookup; metrics may be nil.
func NewEvaluator(cfg Config, orders order.Repository, logger *slog.Logger, metrics *Metrics) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gate config: %w", err)
	}

	window, err := timewindow.New(cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("invalid send window: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	e := &Evaluator{
		cfg:         cfg,
		window:      window,
		suppression: category.New(orders, logger),
		metrics:     metrics,
		logger:      logger.With("component", "gate.evaluator"),
		now:         cfg.Now,
		jitter:      cfg.Jitter,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.jitter == nil {
		e.jitter = func() time.Duration {
			span := cfg.JitterMax - cfg.JitterMin
			if span <= 0 {
				return cfg.JitterMin
			}
			return cfg.JitterMin + rand.N(span)
		}
	}
	return e, nil
}

// EvaluateOutbound runs every gate for the request against a read-only
// session snapshot. All blocking reasons are collected; NextEligibleAt is
// the latest jittered retry instant across blocking gates.
func (e *Evaluator) EvaluateOutbound(ctx context.Context, req SendRequest, sess *session.UserSession) *Result {
	started := e.now()
	now := started
	cat := req.ResolvedCategory()
	promotional := cat.Promotional()

	result := &Result{
		Counters: Counters{
			FollowUpAttempts: sess.FollowUpAttempts,
			FollowUpsLast24h: sess.FollowUpsInWindow(now),
		},
		Limits: Limits{
			MaxFollowUpAttempts:   e.cfg.Attempts.MaxAttempts,
			MaxFollowupsPer24h:    e.cfg.Attempts.MaxPer24h,
			MinInteractionSilence: e.cfg.Recency.MinInteractionSilence,
			RecommendedSilence:    e.cfg.Recency.RecommendedSilence,
			MinFollowupGap:        e.cfg.Recency.MinFollowupGap,
		},
		LastInteraction: sess.LastInteraction,
		LastFollowUp:    sess.LastFollowUp,
	}
	result.Limits.SendWindowStartHour, result.Limits.SendWindowEndHour = e.window.Hours()

	var reasons []string
	var retryAts []time.Time

	block := func(code ReasonCode, reason string, retryAt time.Time) {
		result.BlockedBy = append(result.BlockedBy, code)
		reasons = append(reasons, reason)
		if !retryAt.IsZero() {
			retryAts = append(retryAts, retryAt)
		}
		e.metrics.RecordBlock(code)
	}

	// Time window.
	if !req.BypassTimeWindow && !e.window.InWindow(now) {
		start, end := e.window.Hours()
		block(ReasonOutsideSendWindow,
			fmt.Sprintf("outside send window %02d:00-%02d:00", start, end),
			e.window.NextOpen(now))
	}

	// Cooldown and contact status.
	for _, v := range cooldown.Check(sess, now) {
		block(cooldownReason(v.Code), v.Reason, v.RetryAt)
	}

	// Recency floors. The follow-up gap concerns promotional traffic
	// only; order-status and general sends are not follow-ups.
	for _, v := range recency.Check(e.cfg.Recency, sess, now, req.Priority == PriorityHigh) {
		if v.Code == recency.CodeFollowupTooSoon && !promotional {
			continue
		}
		block(recencyReason(v.Code), v.Reason, v.RetryAt)
	}

	// Category suppression. Order-status messages are always allowed
	// through this gate, so the repository lookup is skipped for them.
	if cat != CategoryOrderStatus {
		if s := e.suppression.Lookup(ctx, req.Phone); s.Suppressed {
			block(ReasonCategorySuppressed,
				fmt.Sprintf("category %s suppressed: %s (order %s)", cat, s.Cause, s.OrderNumber),
				time.Time{})
		}
	}

	// Active order and attempt budgets.
	for _, v := range attempts.Check(e.cfg.Attempts, sess, now, promotional) {
		block(attemptsReason(v.Code), v.Reason, v.RetryAt)
	}

	result.Allowed = len(result.BlockedBy) == 0
	if result.Allowed {
		result.Reason = "allowed"
	} else {
		result.Reason = strings.Join(reasons, "; ")
		result.NextEligibleAt = e.latestWithJitter(retryAts)
	}

	e.metrics.RecordEvaluation(req.MessageType, result.Allowed, time.Since(started).Seconds())
	if result.Allowed {
		e.logger.Debug("outbound send allowed",
			"phone", req.Phone,
			"message_type", req.MessageType,
			"category", cat,
		)
	} else {
		e.logger.Info("outbound send blocked",
			"phone", req.Phone,
			"message_type", req.MessageType,
			"category", cat,
			"blocked_by", result.BlockedBy,
			"next_eligible_at", result.NextEligibleAt,
		)
	}
	return result
}

// latestWithJitter jitters each retry instant independently and returns
// the latest, reflecting that every blocking condition must clear before
// a retry makes sense. Nil when no gate produced a retry instant.
func (e *Evaluator) latestWithJitter(retryAts []time.Time) *time.Time {
	if len(retryAts) == 0 {
		return nil
	}
	var latest time.Time
	for _, at := range retryAts {
		cand := at.Add(e.jitter())
		if cand.After(latest) {
			latest = cand
		}
	}
	return &latest
}

func cooldownReason(code cooldown.Code) ReasonCode {
	switch code {
	case cooldown.CodeOptOut:
		return ReasonOptedOut
	case cooldown.CodeClosed:
		return ReasonContactClosed
	default:
		return ReasonCooldownActive
	}
}

func recencyReason(code recency.Code) ReasonCode {
	switch code {
	case recency.CodeInteractionTooRecent:
		return ReasonInteractionRecency
	case recency.CodeInsufficientSilence:
		return ReasonInsufficientSilence
	default:
		return ReasonFollowupTooSoon
	}
}

func attemptsReason(code attempts.Code) ReasonCode {
	switch code {
	case attempts.CodeActiveOrder:
		return ReasonHasActiveOrder
	case attempts.CodeDailyLimit:
		return ReasonDailyLimitReached
	default:
		return ReasonMaxAttemptsReached
	}
}
