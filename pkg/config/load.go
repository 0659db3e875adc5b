package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path,
// applies default values, and validates the result. Environment variables
// are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention GATEKEEPER_SECTION_FIELD (e.g. GATEKEEPER_GATES_MIN_FOLLOWUP_GAP)
// and always take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate the final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Gate overrides
	envInt("GATEKEEPER_GATES_SEND_WINDOW_START", &cfg.Gates.SendWindowStart)
	envInt("GATEKEEPER_GATES_SEND_WINDOW_END", &cfg.Gates.SendWindowEnd)
	envString("GATEKEEPER_GATES_TIMEZONE", &cfg.Gates.Timezone)
	envDuration("GATEKEEPER_GATES_MIN_INTERACTION_SILENCE", &cfg.Gates.MinInteractionSilence)
	envDuration("GATEKEEPER_GATES_RECOMMENDED_SILENCE", &cfg.Gates.RecommendedSilence)
	envDuration("GATEKEEPER_GATES_MIN_FOLLOWUP_GAP", &cfg.Gates.MinFollowupGap)
	envInt("GATEKEEPER_GATES_MAX_FOLLOWUP_ATTEMPTS", &cfg.Gates.MaxFollowupAttempts)
	envInt("GATEKEEPER_GATES_MAX_FOLLOWUPS_PER_24H", &cfg.Gates.MaxFollowupsPer24h)
	envDuration("GATEKEEPER_GATES_JITTER_MIN", &cfg.Gates.JitterMin)
	envDuration("GATEKEEPER_GATES_JITTER_MAX", &cfg.Gates.JitterMax)

	// Scheduler overrides
	envString("GATEKEEPER_SCHEDULER_SWEEP_SCHEDULE", &cfg.Scheduler.SweepSchedule)
	envInt("GATEKEEPER_SCHEDULER_CLAIM_LIMIT", &cfg.Scheduler.ClaimLimit)
	envInt("GATEKEEPER_SCHEDULER_MAX_RESCHEDULES", &cfg.Scheduler.MaxReschedules)
	envDuration("GATEKEEPER_SCHEDULER_STALE_CLAIM_AFTER", &cfg.Scheduler.StaleClaimAfter)
	envDuration("GATEKEEPER_SCHEDULER_SEND_RETRY_DELAY", &cfg.Scheduler.SendRetryDelay)

	// Storage overrides
	envString("GATEKEEPER_STORAGE_BACKEND", &cfg.Storage.Backend)
	envString("GATEKEEPER_STORAGE_SESSIONS_PATH", &cfg.Storage.SessionsPath)
	envString("GATEKEEPER_STORAGE_ORDERS_PATH", &cfg.Storage.OrdersPath)
	envDuration("GATEKEEPER_STORAGE_SESSION_RETENTION", &cfg.Storage.SessionRetention)
	envDuration("GATEKEEPER_STORAGE_COMPACTION_INTERVAL", &cfg.Storage.CompactionInterval)

	// Telemetry overrides
	envString("GATEKEEPER_TELEMETRY_LOG_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("GATEKEEPER_TELEMETRY_LOG_FORMAT", &cfg.Telemetry.Logging.Format)
	envBoolPtr("GATEKEEPER_TELEMETRY_REDACT_PHONES", &cfg.Telemetry.Logging.RedactPhones)
	envBoolPtr("GATEKEEPER_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("GATEKEEPER_TELEMETRY_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
	envString("GATEKEEPER_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
}

func envString(name string, dst *string) {
	if val := os.Getenv(name); val != "" {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envBoolPtr(name string, dst **bool) {
	if val := os.Getenv(name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = &b
		}
	}
}
