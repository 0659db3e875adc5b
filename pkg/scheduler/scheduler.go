package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"techaura/gatekeeper/pkg/gate"
	"techaura/gatekeeper/pkg/session"
)

// Config configures the follow-up scheduler.
type Config struct {
	// SweepSchedule is a cron expression for the outbox sweep.
	// Default: every minute.
	SweepSchedule string

	// ClaimLimit caps the jobs processed per sweep. Default: 50.
	ClaimLimit int

	// MaxReschedules bounds gate-driven deferrals per job. Once a job
	// has been rescheduled this many times it is abandoned. Default: 10.
	MaxReschedules int

	// StaleClaimAfter is how long a job may sit in sending state before
	// a sweep requeues it (crash recovery). Default: 10 minutes.
	StaleClaimAfter time.Duration

	// SendRetryDelay is the deferral applied after a transport failure.
	// Default: 5 minutes.
	SendRetryDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.SweepSchedule == "" {
		c.SweepSchedule = "* * * * *"
	}
	if c.ClaimLimit <= 0 {
		c.ClaimLimit = 50
	}
	if c.MaxReschedules <= 0 {
		c.MaxReschedules = 10
	}
	if c.StaleClaimAfter <= 0 {
		c.StaleClaimAfter = 10 * time.Minute
	}
	if c.SendRetryDelay <= 0 {
		c.SendRetryDelay = 5 * time.Minute
	}
}

// Scheduler sweeps the outbox and pushes eligible follow-ups through the
// gate evaluator to the sender.
type Scheduler struct {
	cfg      Config
	outbox   Outbox
	sessions session.Store
	eval     *gate.Evaluator
	sender   Sender
	locks    *KeyedMutex
	cron     *cron.Cron
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool

	// evalMu has its own lock so SetEvaluator never contends with the
	// lifecycle mutex held across Stop.
	evalMu sync.RWMutex
}

// SetEvaluator swaps the gate evaluator. Used by config hot-reload; jobs
// claimed by an in-flight sweep finish against the evaluator they started
// with.
func (s *Scheduler) SetEvaluator(eval *gate.Evaluator) {
	if eval == nil {
		return
	}
	s.evalMu.Lock()
	s.eval = eval
	s.evalMu.Unlock()
}

func (s *Scheduler) evaluator() *gate.Evaluator {
	s.evalMu.RLock()
	defer s.evalMu.RUnlock()
	return s.eval
}

// New builds a scheduler. The cron expression is validated immediately so
// a bad schedule fails at startup, not at Start time.
func New(cfg Config, outbox Outbox, sessions session.Store, eval *gate.Evaluator, sender Sender, logger *slog.Logger) (*Scheduler, error) {
	cfg.applyDefaults()

	if outbox == nil {
		return nil, fmt.Errorf("outbox cannot be nil")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store cannot be nil")
	}
	if eval == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}
	if sender == nil {
		return nil, fmt.Errorf("sender cannot be nil")
	}
	if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.SweepSchedule, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cfg:      cfg,
		outbox:   outbox,
		sessions: sessions,
		eval:     eval,
		sender:   sender,
		locks:    NewKeyedMutex(),
		cron:     cron.New(),
		logger:   logger.With("component", "scheduler"),
		now:      time.Now,
	}, nil
}

// ScheduleFollowUp enqueues a follow-up due at the given instant and
// returns the job ID.
func (s *Scheduler) ScheduleFollowUp(ctx context.Context, phone string, messageType gate.MessageType, body string, due time.Time) (string, error) {
	now := s.now()
	job := &Job{
		ID:            uuid.NewString(),
		Phone:         phone,
		MessageType:   messageType,
		Priority:      gate.PriorityNormal,
		Body:          body,
		Status:        StatusQueued,
		NextAttemptAt: due,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.outbox.Enqueue(ctx, job); err != nil {
		return "", fmt.Errorf("failed to enqueue follow-up: %w", err)
	}

	s.logger.Debug("follow-up scheduled",
		"job_id", job.ID,
		"phone", phone,
		"due", due,
	)
	return job.ID, nil
}

// Start begins the cron-driven sweep and stops it when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	_, err := s.cron.AddFunc(s.cfg.SweepSchedule, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started",
		"schedule", s.cfg.SweepSchedule,
		"claim_limit", s.cfg.ClaimLimit,
		"max_reschedules", s.cfg.MaxReschedules,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the sweep and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// Sweep claims due jobs and processes each. Exported so operators and
// tests can force a pass outside the cron cadence.
func (s *Scheduler) Sweep(ctx context.Context) {
	now := s.now()

	if reset, err := s.outbox.RequeueStale(ctx, now.Add(-s.cfg.StaleClaimAfter)); err != nil {
		s.logger.Error("stale-claim requeue failed", "error", err)
	} else if reset > 0 {
		s.logger.Warn("requeued stale sending jobs", "count", reset)
	}

	jobs, err := s.outbox.ClaimDue(ctx, now, s.cfg.ClaimLimit)
	if err != nil {
		s.logger.Error("outbox claim failed", "error", err)
		return
	}

	for _, job := range jobs {
		s.process(ctx, job)
	}
}

// process runs one job through the gates, holding the per-phone lock for
// the whole read-evaluate-send-record sequence.
func (s *Scheduler) process(ctx context.Context, job *Job) {
	unlock := s.locks.Lock(job.Phone)
	defer unlock()

	now := s.now()
	log := s.logger.With("job_id", job.ID, "phone", job.Phone)

	sess, err := s.sessions.Get(ctx, job.Phone)
	if err != nil {
		log.Error("session load failed", "error", err)
		s.deferJob(ctx, job, now.Add(s.cfg.SendRetryDelay), "session load failed")
		return
	}
	if sess == nil {
		log.Warn("abandoning follow-up for unknown session")
		s.abandon(ctx, job, "no session for phone")
		return
	}

	result := s.evaluator().EvaluateOutbound(ctx, gate.SendRequest{
		Phone:       job.Phone,
		MessageType: job.MessageType,
		Priority:    job.Priority,
	}, sess)

	if !result.Allowed {
		if result.NextEligibleAt == nil {
			// No gate produced a retry instant: the user will never
			// become eligible (opt-out, exhausted budget).
			log.Info("abandoning permanently blocked follow-up",
				"blocked_by", result.BlockedBy)
			s.abandon(ctx, job, result.Reason)
			return
		}
		log.Info("follow-up deferred",
			"blocked_by", result.BlockedBy,
			"next_eligible_at", result.NextEligibleAt,
			"reschedules", job.Reschedules,
		)
		s.deferJob(ctx, job, *result.NextEligibleAt, result.Reason)
		return
	}

	if err := s.sender.Send(ctx, job.Phone, job.Body); err != nil {
		log.Error("send failed", "error", err)
		s.deferJob(ctx, job, now.Add(s.cfg.SendRetryDelay), fmt.Sprintf("send failed: %v", err))
		return
	}

	if gate.CategoryForType(job.MessageType).Promotional() {
		if err := s.sessions.RecordFollowUp(ctx, job.Phone, now); err != nil {
			log.Error("failed to record follow-up", "error", err)
		}
	}

	if err := s.outbox.MarkSent(ctx, job.ID, now); err != nil {
		log.Error("failed to mark job sent", "error", err)
		return
	}
	log.Info("follow-up sent", "message_type", job.MessageType)
}

// deferJob reschedules within the budget, abandoning once it is exhausted.
func (s *Scheduler) deferJob(ctx context.Context, job *Job, at time.Time, reason string) {
	if job.Reschedules >= s.cfg.MaxReschedules {
		s.logger.Warn("reschedule budget exhausted, abandoning job",
			"job_id", job.ID,
			"reschedules", job.Reschedules,
		)
		s.abandon(ctx, job, fmt.Sprintf("reschedule budget exhausted: %s", reason))
		return
	}
	if err := s.outbox.Reschedule(ctx, job.ID, at, reason); err != nil {
		s.logger.Error("reschedule failed", "job_id", job.ID, "error", err)
	}
}

func (s *Scheduler) abandon(ctx context.Context, job *Job, reason string) {
	if err := s.outbox.Abandon(ctx, job.ID, reason); err != nil {
		s.logger.Error("abandon failed", "job_id", job.ID, "error", err)
	}
}
