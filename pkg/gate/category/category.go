package category

import (
	"context"
	"log/slog"

	"techaura/gatekeeper/pkg/order"
)

// Suppression is the outcome of a suppression lookup.
type Suppression struct {
	// Suppressed means only order-status messages may still be sent.
	Suppressed bool

	// Cause names the milestone (e.g. "shipping confirmed") when
	// Suppressed is true.
	Cause string

	// OrderNumber is the order that triggered suppression.
	OrderNumber string
}

// Gate answers suppression lookups against the order repository.
type Gate struct {
	repo   order.Repository
	logger *slog.Logger
}

// New creates a suppression gate over the given repository.
func New(repo order.Repository, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		repo:   repo,
		logger: logger.With("component", "gate.category"),
	}
}

// Lookup returns the suppression state for a phone. Repository failures
// are logged and reported as not-suppressed (fail-open).
func (g *Gate) Lookup(ctx context.Context, phone string) Suppression {
	if g.repo == nil {
		return Suppression{}
	}
	orders, err := g.repo.FindByPhone(ctx, phone)
	if err != nil {
		g.logger.Warn("suppression lookup failed, failing open",
			"phone", phone,
			"error", err,
		)
		return Suppression{}
	}

	// Orders arrive newest first; the first suppressing one wins.
	for _, o := range orders {
		if o.Suppressing() {
			return Suppression{
				Suppressed:  true,
				Cause:       o.SuppressionCause(),
				OrderNumber: o.Number,
			}
		}
	}
	return Suppression{}
}
