package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"techaura/gatekeeper/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply defaults and environment overrides,
and report every validation error without starting the service.

Examples:
  # Validate the default config file
  gatekeeper validate

  # Validate a specific file
  gatekeeper validate --config /etc/gatekeeper/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	fmt.Println("✓ Configuration valid")
	fmt.Printf("  Send window:       %02d:00-%02d:00 (%s)\n",
		cfg.Gates.SendWindowStart, cfg.Gates.SendWindowEnd, cfg.Gates.Timezone)
	fmt.Printf("  Silence floors:    %s hard, %s recommended\n",
		cfg.Gates.MinInteractionSilence, cfg.Gates.RecommendedSilence)
	fmt.Printf("  Follow-up budget:  %d per cycle, %d per 24h, %s gap\n",
		cfg.Gates.MaxFollowupAttempts, cfg.Gates.MaxFollowupsPer24h, cfg.Gates.MinFollowupGap)
	fmt.Printf("  Storage backend:   %s\n", cfg.Storage.Backend)
	fmt.Printf("  Sweep schedule:    %q\n", cfg.Scheduler.SweepSchedule)
	return nil
}
