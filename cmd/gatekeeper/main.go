// Gatekeeper is the outbound-messaging policy engine for the TechAura
// WhatsApp sales bot.
//
// It decides whether the bot may send a message to a customer right now,
// and if not, when to try again. Every outbound message passes through a
// set of gates: the daily send window, per-customer cooldowns and
// opt-outs, anti-ban silence floors, order-state suppression, and
// follow-up budgets. A cron-driven scheduler drains a durable outbox of
// pending follow-ups through the same gates.
//
// Usage:
//
//	# Start with default configuration
//	gatekeeper run
//
//	# Start with a custom configuration file
//	gatekeeper run --config /etc/gatekeeper/config.yaml
//
//	# Hot-reload gate thresholds on config change
//	gatekeeper run --watch
//
//	# Validate a configuration file without starting
//	gatekeeper validate
//
//	# Show version information
//	gatekeeper version
package main

func main() {
	Execute()
}
