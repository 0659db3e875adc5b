package config

import "time"

// Default values for configuration fields.
const (
	// Gate defaults
	DefaultSendWindowStart       = 9
	DefaultSendWindowEnd         = 21
	DefaultTimezone              = "Local"
	DefaultMinInteractionSilence = 20 * time.Minute
	DefaultRecommendedSilence    = 45 * time.Minute
	DefaultMinFollowupGap        = 6 * time.Hour
	DefaultMaxFollowupAttempts   = 6
	DefaultMaxFollowupsPer24h    = 3
	DefaultJitterMin             = 1 * time.Minute
	DefaultJitterMax             = 5 * time.Minute

	// Scheduler defaults
	DefaultSweepSchedule   = "* * * * *"
	DefaultClaimLimit      = 50
	DefaultMaxReschedules  = 10
	DefaultStaleClaimAfter = 10 * time.Minute
	DefaultSendRetryDelay  = 5 * time.Minute

	// Storage defaults
	DefaultStorageBackend     = "memory"
	DefaultSessionsPath       = "data/sessions.db"
	DefaultOrdersPath         = "data/orders.db"
	DefaultSessionRetention   = 90 * 24 * time.Hour
	DefaultCompactionInterval = time.Hour

	// Telemetry defaults
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "json"
	DefaultRedactPhones         = true
	DefaultMetricsEnabled       = true
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
)

// ApplyDefaults fills in default values for any unset configuration
// fields. Zero values are treated as unset except where the field
// documents otherwise.
func ApplyDefaults(cfg *Config) {
	applyGatesDefaults(&cfg.Gates)
	applySchedulerDefaults(&cfg.Scheduler)
	applyStorageDefaults(&cfg.Storage)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyGatesDefaults(g *GatesConfig) {
	// Start hour 0 is a valid setting, but an all-zero window means the
	// section was omitted entirely.
	if g.SendWindowStart == 0 && g.SendWindowEnd == 0 {
		g.SendWindowStart = DefaultSendWindowStart
		g.SendWindowEnd = DefaultSendWindowEnd
	}
	if g.Timezone == "" {
		g.Timezone = DefaultTimezone
	}
	if g.MinInteractionSilence == 0 {
		g.MinInteractionSilence = DefaultMinInteractionSilence
	}
	if g.RecommendedSilence == 0 {
		g.RecommendedSilence = DefaultRecommendedSilence
	}
	if g.MinFollowupGap == 0 {
		g.MinFollowupGap = DefaultMinFollowupGap
	}
	if g.MaxFollowupAttempts == 0 {
		g.MaxFollowupAttempts = DefaultMaxFollowupAttempts
	}
	if g.MaxFollowupsPer24h == 0 {
		g.MaxFollowupsPer24h = DefaultMaxFollowupsPer24h
	}
	if g.JitterMin == 0 && g.JitterMax == 0 {
		g.JitterMin = DefaultJitterMin
		g.JitterMax = DefaultJitterMax
	}
}

func applySchedulerDefaults(s *SchedulerConfig) {
	if s.SweepSchedule == "" {
		s.SweepSchedule = DefaultSweepSchedule
	}
	if s.ClaimLimit == 0 {
		s.ClaimLimit = DefaultClaimLimit
	}
	if s.MaxReschedules == 0 {
		s.MaxReschedules = DefaultMaxReschedules
	}
	if s.StaleClaimAfter == 0 {
		s.StaleClaimAfter = DefaultStaleClaimAfter
	}
	if s.SendRetryDelay == 0 {
		s.SendRetryDelay = DefaultSendRetryDelay
	}
}

func applyStorageDefaults(s *StorageConfig) {
	if s.Backend == "" {
		s.Backend = DefaultStorageBackend
	}
	if s.SessionsPath == "" {
		s.SessionsPath = DefaultSessionsPath
	}
	if s.OrdersPath == "" {
		s.OrdersPath = DefaultOrdersPath
	}
	if s.SessionRetention == 0 {
		s.SessionRetention = DefaultSessionRetention
	}
	if s.CompactionInterval == 0 {
		s.CompactionInterval = DefaultCompactionInterval
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLogLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLogFormat
	}
	if t.Logging.RedactPhones == nil {
		v := DefaultRedactPhones
		t.Logging.RedactPhones = &v
	}
	if t.Metrics.Enabled == nil {
		v := DefaultMetricsEnabled
		t.Metrics.Enabled = &v
	}
	if t.Metrics.ListenAddress == "" {
		t.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
}
