package config

import "time"

// Config is the root configuration structure for the gatekeeper. It
// contains the gate thresholds, the follow-up scheduler settings, the
// storage backends, and telemetry.
type Config struct {
	// Gates contains every outbound-gate threshold: the send window,
	// the recency floors, and the follow-up budgets.
	Gates GatesConfig `yaml:"gates"`

	// Scheduler contains the outbox sweep settings.
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Storage selects and configures the session and order backends.
	Storage StorageConfig `yaml:"storage"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// GatesConfig contains the outbound-gate thresholds.
type GatesConfig struct {
	// SendWindowStart is the first hour (0-23) at which outbound sends
	// are permitted.
	// Default: 9
	SendWindowStart int `yaml:"send_window_start"`

	// SendWindowEnd is the hour (1-24) at which outbound sends stop.
	// The window is half-open: a send at exactly this hour is outside.
	// Default: 21
	SendWindowEnd int `yaml:"send_window_end"`

	// Timezone is the IANA timezone the send window is evaluated in
	// (e.g. "America/Mexico_City"). "Local" uses the host timezone.
	// Default: "Local"
	Timezone string `yaml:"timezone"`

	// MinInteractionSilence is the hard anti-ban floor: no outbound
	// message within this duration of the customer's last interaction.
	// Default: 20m
	MinInteractionSilence time.Duration `yaml:"min_interaction_silence"`

	// RecommendedSilence is the longer floor below which a send is
	// still blocked as intrusive.
	// Default: 45m
	RecommendedSilence time.Duration `yaml:"recommended_silence"`

	// MinFollowupGap is the minimum gap between consecutive follow-ups
	// to the same customer.
	// Default: 6h
	MinFollowupGap time.Duration `yaml:"min_followup_gap"`

	// MaxFollowupAttempts is the lifetime follow-up budget per
	// engagement cycle. A customer reply resets the cycle.
	// Default: 6
	MaxFollowupAttempts int `yaml:"max_followup_attempts"`

	// MaxFollowupsPer24h caps follow-ups within a rolling 24h window.
	// Default: 3
	MaxFollowupsPer24h int `yaml:"max_followups_per_24h"`

	// JitterMin and JitterMax bound the randomized offset added to
	// every computed retry instant.
	// Defaults: 1m, 5m
	JitterMin time.Duration `yaml:"jitter_min"`
	JitterMax time.Duration `yaml:"jitter_max"`
}

// SchedulerConfig contains the outbox sweep settings.
type SchedulerConfig struct {
	// SweepSchedule is a standard cron expression for the outbox sweep.
	// Default: "* * * * *" (every minute)
	SweepSchedule string `yaml:"sweep_schedule"`

	// ClaimLimit caps the jobs processed per sweep.
	// Default: 50
	ClaimLimit int `yaml:"claim_limit"`

	// MaxReschedules bounds gate-driven deferrals per job before it is
	// abandoned.
	// Default: 10
	MaxReschedules int `yaml:"max_reschedules"`

	// StaleClaimAfter is how long a job may sit in sending state before
	// a sweep requeues it.
	// Default: 10m
	StaleClaimAfter time.Duration `yaml:"stale_claim_after"`

	// SendRetryDelay is the deferral applied after a transport failure.
	// Default: 5m
	SendRetryDelay time.Duration `yaml:"send_retry_delay"`
}

// StorageConfig selects the session and order backends.
type StorageConfig struct {
	// Backend is "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SessionsPath is the SQLite database file for sessions. Only used
	// when Backend is "sqlite".
	// Default: "data/sessions.db"
	SessionsPath string `yaml:"sessions_path"`

	// OrdersPath is the SQLite database file for orders. Only used when
	// Backend is "sqlite".
	// Default: "data/orders.db"
	OrdersPath string `yaml:"orders_path"`

	// SessionRetention is how long idle sessions are kept before
	// compaction removes them.
	// Default: 2160h (90 days)
	SessionRetention time.Duration `yaml:"session_retention"`

	// CompactionInterval is how often the memory backend sweeps idle
	// sessions. Zero disables compaction.
	// Default: 1h
	CompactionInterval time.Duration `yaml:"compaction_interval"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text", "console").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in logs.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPhones masks customer phone numbers in log output.
	// Default: true
	RedactPhones *bool `yaml:"redact_phones"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics HTTP listener on.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// ListenAddress is the address for the metrics listener.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path the metrics are served on.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
