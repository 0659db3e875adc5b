package attempts

import (
	"testing"
	"time"

	"techaura/gatekeeper/pkg/order"
	"techaura/gatekeeper/pkg/session"
)

var testConfig = Config{MaxAttempts: 6, MaxPer24h: 3}

func TestCheck_CleanSessionPasses(t *testing.T) {
	sess := &session.UserSession{Phone: "+521", ContactStatus: session.StatusActive}

	if v := Check(testConfig, sess, time.Now(), true); len(v) != 0 {
		t.Errorf("Expected pass, got %+v", v)
	}
}

func TestCheck_ConfirmedOrderBlocksPromotional(t *testing.T) {
	sess := &session.UserSession{
		Phone:         "+521",
		ContactStatus: session.StatusActive,
		Order:         &session.OrderRef{Number: "TA-1", Status: string(order.StatusConfirmed)},
	}

	verdicts := Check(testConfig, sess, time.Now(), true)
	if len(verdicts) != 1 || verdicts[0].Code != CodeActiveOrder {
		t.Fatalf("Expected has_active_order, got %+v", verdicts)
	}
	if !verdicts[0].RetryAt.IsZero() {
		t.Error("Active order has no retry instant")
	}
}

func TestCheck_PreConfirmationOrderPasses(t *testing.T) {
	for _, status := range []order.Status{
		order.StatusNeedsIntent, order.StatusNeedsShipping, order.StatusCancelled,
	} {
		sess := &session.UserSession{
			Phone:         "+521",
			ContactStatus: session.StatusActive,
			Order:         &session.OrderRef{Number: "TA-1", Status: string(status)},
		}
		if v := Check(testConfig, sess, time.Now(), true); len(v) != 0 {
			t.Errorf("Order status %s should not block, got %+v", status, v)
		}
	}
}

func TestCheck_NonPromotionalBypassesEverything(t *testing.T) {
	now := time.Now()
	sess := &session.UserSession{
		Phone:            "+521",
		ContactStatus:    session.StatusActive,
		Order:            &session.OrderRef{Number: "TA-1", Status: string(order.StatusShipped)},
		FollowUpAttempts: 99,
		FollowUpCount24h: 99,
		CountWindowStart: now.Add(-time.Hour),
	}

	if v := Check(testConfig, sess, now, false); len(v) != 0 {
		t.Errorf("Order-type messages must bypass this gate, got %+v", v)
	}
}

func TestCheck_MaxAttemptsReached(t *testing.T) {
	sess := &session.UserSession{
		Phone:            "+521",
		ContactStatus:    session.StatusActive,
		FollowUpAttempts: 6,
	}

	verdicts := Check(testConfig, sess, time.Now(), true)
	if len(verdicts) != 1 || verdicts[0].Code != CodeMaxAttempts {
		t.Fatalf("Expected max_followups_reached, got %+v", verdicts)
	}
}

func TestCheck_DailyLimit(t *testing.T) {
	now := time.Now()
	windowStart := now.Add(-6 * time.Hour)
	sess := &session.UserSession{
		Phone:            "+521",
		ContactStatus:    session.StatusActive,
		FollowUpCount24h: 3,
		CountWindowStart: windowStart,
	}

	verdicts := Check(testConfig, sess, now, true)
	if len(verdicts) != 1 || verdicts[0].Code != CodeDailyLimit {
		t.Fatalf("Expected daily_limit_reached, got %+v", verdicts)
	}
	want := windowStart.Add(24 * time.Hour)
	if !verdicts[0].RetryAt.Equal(want) {
		t.Errorf("Expected retry at window start + 24h (%v), got %v", want, verdicts[0].RetryAt)
	}

	// An expired window reads as zero and passes.
	sess.CountWindowStart = now.Add(-25 * time.Hour)
	if v := Check(testConfig, sess, now, true); len(v) != 0 {
		t.Errorf("Expired daily window should pass, got %+v", v)
	}
}

func TestCheck_MultipleConditionsAllReported(t *testing.T) {
	now := time.Now()
	sess := &session.UserSession{
		Phone:            "+521",
		ContactStatus:    session.StatusActive,
		Order:            &session.OrderRef{Number: "TA-1", Status: string(order.StatusProcessing)},
		FollowUpAttempts: 7,
		FollowUpCount24h: 5,
		CountWindowStart: now.Add(-time.Hour),
	}

	verdicts := Check(testConfig, sess, now, true)
	if len(verdicts) != 3 {
		t.Fatalf("Expected all three conditions reported, got %d: %+v", len(verdicts), verdicts)
	}
}
