package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the field (e.g. "gates.send_window_start").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every validation error found in a
// configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the entire configuration. All errors are collected and
// returned together so a bad config file can be fixed in one pass.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateGates(&cfg.Gates)...)
	errs = append(errs, validateScheduler(&cfg.Scheduler)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateGates(g *GatesConfig) []FieldError {
	var errs []FieldError

	if g.SendWindowStart < 0 || g.SendWindowStart > 23 {
		errs = append(errs, FieldError{
			Field:   "gates.send_window_start",
			Message: fmt.Sprintf("must be between 0 and 23, got %d", g.SendWindowStart),
		})
	}
	if g.SendWindowEnd < 1 || g.SendWindowEnd > 24 {
		errs = append(errs, FieldError{
			Field:   "gates.send_window_end",
			Message: fmt.Sprintf("must be between 1 and 24, got %d", g.SendWindowEnd),
		})
	}
	if g.SendWindowStart >= g.SendWindowEnd {
		errs = append(errs, FieldError{
			Field:   "gates.send_window_end",
			Message: fmt.Sprintf("must be after send_window_start, got %d..%d", g.SendWindowStart, g.SendWindowEnd),
		})
	}
	if g.Timezone != "Local" {
		if _, err := time.LoadLocation(g.Timezone); err != nil {
			errs = append(errs, FieldError{
				Field:   "gates.timezone",
				Message: fmt.Sprintf("unknown timezone %q", g.Timezone),
			})
		}
	}
	if g.MinInteractionSilence <= 0 {
		errs = append(errs, FieldError{
			Field:   "gates.min_interaction_silence",
			Message: "must be positive",
		})
	}
	if g.RecommendedSilence <= g.MinInteractionSilence {
		errs = append(errs, FieldError{
			Field:   "gates.recommended_silence",
			Message: fmt.Sprintf("must exceed min_interaction_silence (%s)", g.MinInteractionSilence),
		})
	}
	if g.MinFollowupGap <= 0 {
		errs = append(errs, FieldError{
			Field:   "gates.min_followup_gap",
			Message: "must be positive",
		})
	}
	if g.MaxFollowupAttempts <= 0 {
		errs = append(errs, FieldError{
			Field:   "gates.max_followup_attempts",
			Message: "must be positive",
		})
	}
	if g.MaxFollowupsPer24h <= 0 {
		errs = append(errs, FieldError{
			Field:   "gates.max_followups_per_24h",
			Message: "must be positive",
		})
	}
	if g.JitterMin < 0 || g.JitterMax < g.JitterMin {
		errs = append(errs, FieldError{
			Field:   "gates.jitter_max",
			Message: fmt.Sprintf("jitter bounds [%s, %s] are inconsistent", g.JitterMin, g.JitterMax),
		})
	}

	return errs
}

func validateScheduler(s *SchedulerConfig) []FieldError {
	var errs []FieldError

	if _, err := cron.ParseStandard(s.SweepSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "scheduler.sweep_schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", s.SweepSchedule, err),
		})
	}
	if s.ClaimLimit <= 0 {
		errs = append(errs, FieldError{
			Field:   "scheduler.claim_limit",
			Message: "must be positive",
		})
	}
	if s.MaxReschedules <= 0 {
		errs = append(errs, FieldError{
			Field:   "scheduler.max_reschedules",
			Message: "must be positive",
		})
	}
	if s.StaleClaimAfter <= 0 {
		errs = append(errs, FieldError{
			Field:   "scheduler.stale_claim_after",
			Message: "must be positive",
		})
	}
	if s.SendRetryDelay <= 0 {
		errs = append(errs, FieldError{
			Field:   "scheduler.send_retry_delay",
			Message: "must be positive",
		})
	}

	return errs
}

func validateStorage(s *StorageConfig) []FieldError {
	var errs []FieldError

	switch s.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("must be \"memory\" or \"sqlite\", got %q", s.Backend),
		})
	}
	if s.Backend == "sqlite" {
		if s.SessionsPath == "" {
			errs = append(errs, FieldError{
				Field:   "storage.sessions_path",
				Message: "required for sqlite backend",
			})
		}
		if s.OrdersPath == "" {
			errs = append(errs, FieldError{
				Field:   "storage.orders_path",
				Message: "required for sqlite backend",
			})
		}
	}
	if s.SessionRetention < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.session_retention",
			Message: "cannot be negative",
		})
	}

	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch t.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be one of debug, info, warn, error; got %q", t.Logging.Level),
		})
	}
	switch t.Logging.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be one of json, text, console; got %q", t.Logging.Format),
		})
	}
	if t.Metrics.Enabled != nil && *t.Metrics.Enabled && t.Metrics.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.listen_address",
			Message: "required when metrics are enabled",
		})
	}

	return errs
}
