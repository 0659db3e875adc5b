package recency

import (
	"fmt"
	"time"

	"techaura/gatekeeper/pkg/session"
)

// Code identifies which recency floor blocked the send.
type Code string

const (
	// CodeInteractionTooRecent means the anti-ban floor is not cleared.
	CodeInteractionTooRecent Code = "interaction_too_recent"

	// CodeInsufficientSilence means the anti-ban floor is cleared but the
	// recommended-silence floor is not.
	CodeInsufficientSilence Code = "insufficient_silence"

	// CodeFollowupTooSoon means the last follow-up is too close.
	CodeFollowupTooSoon Code = "followup_too_soon"
)

// Config carries the recency thresholds. All three are required; the
// orchestrator validates them at construction.
type Config struct {
	// MinInteractionSilence is the anti-ban floor (default 20m).
	MinInteractionSilence time.Duration

	// RecommendedSilence is the longer floor below which a send is still
	// blocked as intrusive (default 45m).
	RecommendedSilence time.Duration

	// MinFollowupGap is the single authoritative minimum gap between
	// consecutive follow-ups (default 6h).
	MinFollowupGap time.Duration
}

// Verdict is a single blocking condition with its raw (un-jittered) retry
// instant. The orchestrator adds jitter before exposing it to callers.
type Verdict struct {
	Code    Code
	Reason  string
	RetryAt time.Time
}

// Check evaluates both recency sub-checks against a session snapshot.
// An empty slice means the gate passes.
//
// highPriority skips the interaction sub-check only; the follow-up gap
// still applies.
func Check(cfg Config, sess *session.UserSession, now time.Time, highPriority bool) []Verdict {
	var verdicts []Verdict

	if !highPriority && !sess.LastInteraction.IsZero() {
		elapsed := now.Sub(sess.LastInteraction)
		switch {
		case elapsed < cfg.MinInteractionSilence:
			verdicts = append(verdicts, Verdict{
				Code: CodeInteractionTooRecent,
				Reason: fmt.Sprintf("last interaction %s ago, minimum silence is %s",
					elapsed.Round(time.Second), cfg.MinInteractionSilence),
				RetryAt: sess.LastInteraction.Add(cfg.MinInteractionSilence),
			})
		case elapsed < cfg.RecommendedSilence:
			verdicts = append(verdicts, Verdict{
				Code: CodeInsufficientSilence,
				Reason: fmt.Sprintf("last interaction %s ago, recommended silence is %s",
					elapsed.Round(time.Second), cfg.RecommendedSilence),
				RetryAt: sess.LastInteraction.Add(cfg.RecommendedSilence),
			})
		}
	}

	if sess.LastFollowUp != nil {
		elapsed := now.Sub(*sess.LastFollowUp)
		if elapsed < cfg.MinFollowupGap {
			verdicts = append(verdicts, Verdict{
				Code: CodeFollowupTooSoon,
				Reason: fmt.Sprintf("last follow-up %s ago, minimum gap is %s",
					elapsed.Round(time.Second), cfg.MinFollowupGap),
				RetryAt: sess.LastFollowUp.Add(cfg.MinFollowupGap),
			})
		}
	}

	return verdicts
}
