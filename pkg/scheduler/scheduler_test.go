package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"techaura/gatekeeper/pkg/gate"
	"techaura/gatekeeper/pkg/gate/attempts"
	"techaura/gatekeeper/pkg/gate/recency"
	"techaura/gatekeeper/pkg/gate/timewindow"
	"techaura/gatekeeper/pkg/order"
	orderstorage "techaura/gatekeeper/pkg/order/storage"
	"techaura/gatekeeper/pkg/session"
	sessionstorage "techaura/gatekeeper/pkg/session/storage"
)

// noon falls inside the 09:00-21:00 send window.
var schedNoon = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func quietTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingSender struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	calls int
}

func (r *recordingSender) Send(ctx context.Context, phone, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.fail {
		return fmt.Errorf("transport unavailable")
	}
	r.sent = append(r.sent, phone)
	return nil
}

func (r *recordingSender) sentCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func testEvaluator(t *testing.T, repo order.Repository, now time.Time) *gate.Evaluator {
	t.Helper()
	if repo == nil {
		repo = orderstorage.NewMemoryRepository()
	}
	e, err := gate.NewEvaluator(gate.Config{
		Window: timewindow.Config{StartHour: 9, EndHour: 21, Location: time.UTC},
		Recency: recency.Config{
			MinInteractionSilence: 20 * time.Minute,
			RecommendedSilence:    45 * time.Minute,
			MinFollowupGap:        6 * time.Hour,
		},
		Attempts:  attempts.Config{MaxAttempts: 6, MaxPer24h: 3},
		JitterMin: time.Minute,
		JitterMax: 5 * time.Minute,
		Now:       func() time.Time { return now },
		Jitter:    func() time.Duration { return 2 * time.Minute },
	}, repo, quietTestLogger(), nil)
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}
	return e
}

type schedFixture struct {
	sched    *Scheduler
	outbox   *MemoryOutbox
	sessions *sessionstorage.MemoryStore
	sender   *recordingSender
}

func newSchedFixture(t *testing.T, now time.Time) *schedFixture {
	t.Helper()

	outbox := NewMemoryOutbox()
	sessions := sessionstorage.NewMemoryStore()
	sender := &recordingSender{}

	sched, err := New(Config{MaxReschedules: 10}, outbox, sessions, testEvaluator(t, nil, now), sender, quietTestLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	sched.now = func() time.Time { return now }

	return &schedFixture{sched: sched, outbox: outbox, sessions: sessions, sender: sender}
}

func (f *schedFixture) putSession(t *testing.T, sess *session.UserSession) {
	t.Helper()
	if err := f.sessions.Put(context.Background(), sess); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
}

// ============================================================================
// Construction
// ============================================================================

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(
		Config{SweepSchedule: "not a cron expr"},
		NewMemoryOutbox(),
		sessionstorage.NewMemoryStore(),
		testEvaluator(t, nil, schedNoon),
		SenderFunc(func(ctx context.Context, phone, body string) error { return nil }),
		quietTestLogger(),
	)
	if err == nil {
		t.Fatal("expected invalid cron expression to be rejected")
	}
}

func TestNewRejectsNilCollaborators(t *testing.T) {
	eval := testEvaluator(t, nil, schedNoon)
	sender := SenderFunc(func(ctx context.Context, phone, body string) error { return nil })

	if _, err := New(Config{}, nil, sessionstorage.NewMemoryStore(), eval, sender, nil); err == nil {
		t.Error("expected nil outbox to be rejected")
	}
	if _, err := New(Config{}, NewMemoryOutbox(), nil, eval, sender, nil); err == nil {
		t.Error("expected nil session store to be rejected")
	}
	if _, err := New(Config{}, NewMemoryOutbox(), sessionstorage.NewMemoryStore(), nil, sender, nil); err == nil {
		t.Error("expected nil evaluator to be rejected")
	}
	if _, err := New(Config{}, NewMemoryOutbox(), sessionstorage.NewMemoryStore(), eval, nil, nil); err == nil {
		t.Error("expected nil sender to be rejected")
	}
}

// ============================================================================
// Sweep outcomes
// ============================================================================

func TestSweepSendsEligibleFollowUp(t *testing.T) {
	ctx := context.Background()
	f := newSchedFixture(t, schedNoon)

	f.putSession(t, &session.UserSession{
		Phone:           "+5215550001",
		LastInteraction: schedNoon.Add(-2 * time.Hour),
		ContactStatus:   session.StatusActive,
	})

	id, err := f.sched.ScheduleFollowUp(ctx, "+5215550001", gate.TypeFollowUp, "Sigue disponible tu USB de 64GB", schedNoon.Add(-time.Minute))
	if err != nil {
		t.Fatalf("ScheduleFollowUp failed: %v", err)
	}

	f.sched.Sweep(ctx)

	if f.sender.sentCount() != 1 {
		t.Fatalf("expected 1 send, got %d", f.sender.sentCount())
	}
	job, _ := f.outbox.Get(ctx, id)
	if job.Status != StatusSent {
		t.Errorf("expected sent status, got %s", job.Status)
	}

	// The send is recorded against the session so the next cycle gates
	// on it.
	sess, err := f.sessions.Get(ctx, "+5215550001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess.LastFollowUp == nil || !sess.LastFollowUp.Equal(schedNoon) {
		t.Errorf("expected LastFollowUp recorded at sweep time, got %v", sess.LastFollowUp)
	}
	if sess.FollowUpAttempts != 1 {
		t.Errorf("expected 1 attempt recorded, got %d", sess.FollowUpAttempts)
	}
}

func TestSweepDefersBlockedFollowUp(t *testing.T) {
	ctx := context.Background()
	f := newSchedFixture(t, schedNoon)

	// Interacted 10 minutes ago: inside the anti-ban floor.
	last := schedNoon.Add(-10 * time.Minute)
	f.putSession(t, &session.UserSession{
		Phone:           "+5215550001",
		LastInteraction: last,
		ContactStatus:   session.StatusActive,
	})

	id, err := f.sched.ScheduleFollowUp(ctx, "+5215550001", gate.TypeFollowUp, "hola", schedNoon.Add(-time.Minute))
	if err != nil {
		t.Fatalf("ScheduleFollowUp failed: %v", err)
	}

	f.sched.Sweep(ctx)

	if f.sender.sentCount() != 0 {
		t.Fatalf("blocked follow-up was sent")
	}
	job, _ := f.outbox.Get(ctx, id)
	if job.Status != StatusQueued {
		t.Fatalf("expected requeue, got %s", job.Status)
	}
	// Deferred to the gate's jittered retry instant: floor + fixed 2m jitter.
	want := last.Add(20*time.Minute + 2*time.Minute)
	if !job.NextAttemptAt.Equal(want) {
		t.Errorf("expected retry at %v, got %v", want, job.NextAttemptAt)
	}
	if job.Reschedules != 1 {
		t.Errorf("expected 1 reschedule, got %d", job.Reschedules)
	}
	if job.LastReason == "" {
		t.Error("expected a block reason recorded on the job")
	}
	// No follow-up recorded against the session.
	sess, _ := f.sessions.Get(ctx, "+5215550001")
	if sess.FollowUpAttempts != 0 {
		t.Errorf("blocked send consumed an attempt: %d", sess.FollowUpAttempts)
	}
}

func TestSweepAbandonsPermanentBlock(t *testing.T) {
	ctx := context.Background()
	f := newSchedFixture(t, schedNoon)

	f.putSession(t, &session.UserSession{
		Phone:           "+5215550001",
		LastInteraction: schedNoon.Add(-2 * time.Hour),
		ContactStatus:   session.StatusOptOut,
	})

	id, err := f.sched.ScheduleFollowUp(ctx, "+5215550001", gate.TypeFollowUp, "hola", schedNoon.Add(-time.Minute))
	if err != nil {
		t.Fatalf("ScheduleFollowUp failed: %v", err)
	}

	f.sched.Sweep(ctx)

	if f.sender.sentCount() != 0 {
		t.Fatalf("opted-out customer received a send")
	}
	job, _ := f.outbox.Get(ctx, id)
	if job.Status != StatusAbandoned {
		t.Errorf("expected abandoned, got %s", job.Status)
	}
}

func TestSweepAbandonsUnknownSession(t *testing.T) {
	ctx := context.Background()
	f := newSchedFixture(t, schedNoon)

	id, err := f.sched.ScheduleFollowUp(ctx, "+5215559999", gate.TypeFollowUp, "hola", schedNoon.Add(-time.Minute))
	if err != nil {
		t.Fatalf("ScheduleFollowUp failed: %v", err)
	}

	f.sched.Sweep(ctx)

	job, _ := f.outbox.Get(ctx, id)
	if job.Status != StatusAbandoned {
		t.Errorf("expected abandoned for unknown session, got %s", job.Status)
	}
	if f.sender.sentCount() != 0 {
		t.Error("send attempted without a session")
	}
}

func TestSweepAbandonsAfterRescheduleBudget(t *testing.T) {
	ctx := context.Background()
	f := newSchedFixture(t, schedNoon)
	f.sched.cfg.MaxReschedules = 3

	f.putSession(t, &session.UserSession{
		Phone:           "+5215550001",
		LastInteraction: schedNoon.Add(-10 * time.Minute),
		ContactStatus:   session.StatusActive,
	})

	id, err := f.sched.ScheduleFollowUp(ctx, "+5215550001", gate.TypeFollowUp, "hola", schedNoon.Add(-time.Minute))
	if err != nil {
		t.Fatalf("ScheduleFollowUp failed: %v", err)
	}

	// Force the job due again after every deferral so each sweep claims it.
	for i := 0; i < 4; i++ {
		f.sched.Sweep(ctx)
		job, _ := f.outbox.Get(ctx, id)
		if job.Status.Terminal() {
			break
		}
		if err := f.outbox.Reschedule(ctx, id, schedNoon.Add(-time.Minute), "test requeue"); err != nil {
			t.Fatalf("Reschedule failed: %v", err)
		}
	}

	job, _ := f.outbox.Get(ctx, id)
	if job.Status != StatusAbandoned {
		t.Errorf("expected abandonment after budget, got %s with %d reschedules", job.Status, job.Reschedules)
	}
	if f.sender.sentCount() != 0 {
		t.Error("blocked job was sent")
	}
}

func TestSweepRetriesSendFailure(t *testing.T) {
	ctx := context.Background()
	f := newSchedFixture(t, schedNoon)
	f.sender.fail = true

	f.putSession(t, &session.UserSession{
		Phone:           "+5215550001",
		LastInteraction: schedNoon.Add(-2 * time.Hour),
		ContactStatus:   session.StatusActive,
	})

	id, err := f.sched.ScheduleFollowUp(ctx, "+5215550001", gate.TypeFollowUp, "hola", schedNoon.Add(-time.Minute))
	if err != nil {
		t.Fatalf("ScheduleFollowUp failed: %v", err)
	}

	f.sched.Sweep(ctx)

	job, _ := f.outbox.Get(ctx, id)
	if job.Status != StatusQueued {
		t.Fatalf("expected requeue after transport failure, got %s", job.Status)
	}
	if !job.NextAttemptAt.Equal(schedNoon.Add(5 * time.Minute)) {
		t.Errorf("expected retry in 5m, got %v", job.NextAttemptAt)
	}
	// A failed transport never consumes an attempt.
	sess, _ := f.sessions.Get(ctx, "+5215550001")
	if sess.FollowUpAttempts != 0 {
		t.Errorf("failed send consumed an attempt: %d", sess.FollowUpAttempts)
	}
}

func TestSweepDoesNotRecordNonPromotionalSends(t *testing.T) {
	ctx := context.Background()
	f := newSchedFixture(t, schedNoon)

	f.putSession(t, &session.UserSession{
		Phone:           "+5215550001",
		LastInteraction: schedNoon.Add(-2 * time.Hour),
		ContactStatus:   session.StatusActive,
	})

	if _, err := f.sched.ScheduleFollowUp(ctx, "+5215550001", gate.TypeNotification, "Tu pedido TA-1001 fue enviado", schedNoon.Add(-time.Minute)); err != nil {
		t.Fatalf("ScheduleFollowUp failed: %v", err)
	}

	f.sched.Sweep(ctx)

	if f.sender.sentCount() != 1 {
		t.Fatalf("expected notification sent, got %d", f.sender.sentCount())
	}
	sess, _ := f.sessions.Get(ctx, "+5215550001")
	if sess.FollowUpAttempts != 0 || sess.LastFollowUp != nil {
		t.Error("order notification consumed follow-up budget")
	}
}

func TestSweepProcessesMultipleJobs(t *testing.T) {
	ctx := context.Background()
	f := newSchedFixture(t, schedNoon)

	for i := 1; i <= 3; i++ {
		phone := fmt.Sprintf("+521555000%d", i)
		f.putSession(t, &session.UserSession{
			Phone:           phone,
			LastInteraction: schedNoon.Add(-2 * time.Hour),
			ContactStatus:   session.StatusActive,
		})
		if _, err := f.sched.ScheduleFollowUp(ctx, phone, gate.TypeFollowUp, "hola", schedNoon.Add(-time.Minute)); err != nil {
			t.Fatalf("ScheduleFollowUp failed: %v", err)
		}
	}

	f.sched.Sweep(ctx)

	if f.sender.sentCount() != 3 {
		t.Errorf("expected 3 sends, got %d", f.sender.sentCount())
	}
	if f.outbox.Pending() != 0 {
		t.Errorf("expected drained outbox, got %d pending", f.outbox.Pending())
	}
}

func TestSetEvaluatorSwapsThresholds(t *testing.T) {
	f := newSchedFixture(t, schedNoon)

	next := testEvaluator(t, nil, schedNoon)
	f.sched.SetEvaluator(next)
	if f.sched.evaluator() != next {
		t.Error("evaluator not swapped")
	}

	// A nil swap keeps the current evaluator.
	f.sched.SetEvaluator(nil)
	if f.sched.evaluator() != next {
		t.Error("nil swap replaced the evaluator")
	}
}

// ============================================================================
// Lifecycle
// ============================================================================

func TestStartAndStop(t *testing.T) {
	f := newSchedFixture(t, schedNoon)

	ctx, cancel := context.WithCancel(context.Background())
	if err := f.sched.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := f.sched.Start(ctx); err == nil {
		t.Error("expected second Start to be rejected")
	}

	cancel()
	// Stop is idempotent and safe to race with the ctx-done shutdown.
	f.sched.Stop()
	f.sched.Stop()
}
