package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gatekeeper",
	Short: "TechAura outbound-messaging policy engine",
	Long: `Gatekeeper decides whether the TechAura WhatsApp sales bot may message a
customer right now, and if not, when to try again.

Every outbound message passes through a set of gates:
  - Daily send window (no messages outside business hours)
  - Per-customer cooldowns, opt-outs, and closed conversations
  - Anti-ban silence floors after customer interactions
  - Order-state suppression of promotional content
  - Lifetime and rolling 24h follow-up budgets

A cron-driven scheduler drains a durable outbox of pending follow-ups
through the same gates, deferring blocked jobs to their next eligible
instant with randomized jitter.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
