// Package logging builds the structured logger used across the gatekeeper.
//
// It wraps log/slog with:
//   - JSON, text, and console output formats
//   - configurable log levels (debug, info, warn, error)
//   - automatic redaction of customer phone numbers, so WhatsApp MSISDNs
//     never land in log aggregation in the clear
//
// Redaction is applied at the handler level, so every package can log
// through a plain *slog.Logger and still get masked output:
//
//	logger, err := logging.New(logging.Config{
//	    Level:        "info",
//	    Format:       "json",
//	    RedactPhones: true,
//	})
//	logger.Info("follow-up sent", "phone", "+5215512345678")
//	// phone=+5215*******78
package logging
