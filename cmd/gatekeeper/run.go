package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"techaura/gatekeeper/pkg/config"
	"techaura/gatekeeper/pkg/gate"
	"techaura/gatekeeper/pkg/gate/attempts"
	"techaura/gatekeeper/pkg/gate/recency"
	"techaura/gatekeeper/pkg/gate/timewindow"
	"techaura/gatekeeper/pkg/order"
	orderstorage "techaura/gatekeeper/pkg/order/storage"
	"techaura/gatekeeper/pkg/scheduler"
	"techaura/gatekeeper/pkg/session"
	sessionstorage "techaura/gatekeeper/pkg/session/storage"
	"techaura/gatekeeper/pkg/telemetry/logging"
)

var runFlags struct {
	logLevel string
	watch    bool
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gatekeeper service",
	Long: `Start the gatekeeper with the specified configuration.

The service sweeps the follow-up outbox on the configured cron schedule,
evaluates every due job against the outbound gates, and hands eligible
messages to the sender. Blocked jobs are deferred to their next eligible
instant with randomized jitter.

Examples:
  # Start with default config
  gatekeeper run

  # Start with custom config
  gatekeeper run --config /etc/gatekeeper/config.yaml

  # Hot-reload gate thresholds when the config file changes
  gatekeeper run --watch

  # Validate config without starting
  gatekeeper run --dry-run`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", false, "reload gate thresholds on config file change")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the service")
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:        cfg.Telemetry.Logging.Level,
		Format:       cfg.Telemetry.Logging.Format,
		AddSource:    cfg.Telemetry.Logging.AddSource,
		RedactPhones: cfg.Telemetry.Logging.RedactPhones != nil && *cfg.Telemetry.Logging.RedactPhones,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage backends
	sessions, orders, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer sessions.Close()
	defer orders.Close()
	fmt.Printf("✓ Storage initialized (%s)\n", cfg.Storage.Backend)

	// Gate evaluator
	metrics := gate.NewMetrics()
	eval, err := buildEvaluator(cfg, orders, logger, metrics)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Gates armed (window %02d:00-%02d:00, %d follow-ups per cycle)\n",
		cfg.Gates.SendWindowStart, cfg.Gates.SendWindowEnd, cfg.Gates.MaxFollowupAttempts)

	// Follow-up scheduler
	sched, err := scheduler.New(scheduler.Config{
		SweepSchedule:   cfg.Scheduler.SweepSchedule,
		ClaimLimit:      cfg.Scheduler.ClaimLimit,
		MaxReschedules:  cfg.Scheduler.MaxReschedules,
		StaleClaimAfter: cfg.Scheduler.StaleClaimAfter,
		SendRetryDelay:  cfg.Scheduler.SendRetryDelay,
	}, scheduler.NewMemoryOutbox(), sessions, eval, newSender(logger), logger)
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()
	fmt.Printf("✓ Scheduler started (sweep %q)\n", cfg.Scheduler.SweepSchedule)

	// Config hot reload
	if runFlags.watch {
		watcher, err := config.NewWatcher(cfgFile, logger)
		if err != nil {
			return err
		}
		go func() {
			err := watcher.Watch(ctx, func(newCfg *config.Config) {
				newEval, err := buildEvaluator(newCfg, orders, logger, metrics)
				if err != nil {
					logger.Error("rejecting reloaded gate thresholds", "error", err)
					return
				}
				sched.SetEvaluator(newEval)
				logger.Info("gate thresholds reloaded")
			})
			if err != nil {
				logger.Error("config watcher exited", "error", err)
			}
		}()
		defer watcher.Stop()
		fmt.Printf("✓ Watching %s for gate threshold changes\n", cfgFile)
	}

	// Metrics endpoint
	var metricsSrv *http.Server
	if cfg.Telemetry.Metrics.Enabled != nil && *cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Telemetry.Metrics.Path, promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    cfg.Telemetry.Metrics.ListenAddress,
			Handler: mux,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
		fmt.Printf("✓ Metrics on http://%s%s\n", cfg.Telemetry.Metrics.ListenAddress, cfg.Telemetry.Metrics.Path)
	}

	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics shutdown failed", "error", err)
		}
	}
	return nil
}

// openStorage builds the session store and order repository from config.
func openStorage(cfg *config.Config, logger *slog.Logger) (session.Store, order.Repository, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		sessions, err := sessionstorage.NewSQLiteStore(sessionstorage.SQLiteStoreConfig{
			DBPath: cfg.Storage.SessionsPath,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session store: %w", err)
		}
		orders, err := orderstorage.NewSQLiteRepository(orderstorage.SQLiteConfig{
			DBPath: cfg.Storage.OrdersPath,
		})
		if err != nil {
			sessions.Close()
			return nil, nil, fmt.Errorf("failed to open order repository: %w", err)
		}
		return sessions, orders, nil

	case "memory":
		sessions := sessionstorage.NewMemoryStoreWithConfig(sessionstorage.MemoryStoreConfig{
			CompactionInterval: cfg.Storage.CompactionInterval,
			RetentionPeriod:    cfg.Storage.SessionRetention,
		})
		return sessions, orderstorage.NewMemoryRepository(), nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// buildEvaluator maps the configuration onto the gate thresholds.
func buildEvaluator(cfg *config.Config, orders order.Repository, logger *slog.Logger, metrics *gate.Metrics) (*gate.Evaluator, error) {
	loc := time.Local
	if cfg.Gates.Timezone != "Local" {
		var err error
		loc, err = time.LoadLocation(cfg.Gates.Timezone)
		if err != nil {
			return nil, fmt.Errorf("unknown timezone %q: %w", cfg.Gates.Timezone, err)
		}
	}

	return gate.NewEvaluator(gate.Config{
		Window: timewindow.Config{
			StartHour: cfg.Gates.SendWindowStart,
			EndHour:   cfg.Gates.SendWindowEnd,
			Location:  loc,
		},
		Recency: recency.Config{
			MinInteractionSilence: cfg.Gates.MinInteractionSilence,
			RecommendedSilence:    cfg.Gates.RecommendedSilence,
			MinFollowupGap:        cfg.Gates.MinFollowupGap,
		},
		Attempts: attempts.Config{
			MaxAttempts: cfg.Gates.MaxFollowupAttempts,
			MaxPer24h:   cfg.Gates.MaxFollowupsPer24h,
		},
		JitterMin: cfg.Gates.JitterMin,
		JitterMax: cfg.Gates.JitterMax,
	}, orders, logger, metrics)
}

// newSender returns the outbound transport. The WhatsApp client lives in
// the bot process; this binary logs what it would hand over.
func newSender(logger *slog.Logger) scheduler.Sender {
	return scheduler.SenderFunc(func(ctx context.Context, phone, body string) error {
		logger.Info("handing message to transport", "phone", phone, "bytes", len(body))
		return nil
	})
}
