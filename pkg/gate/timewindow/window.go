package timewindow

import (
	"fmt"
	"time"
)

// Policy is a fixed daily sending window [StartHour, EndHour) evaluated in
// a single location. Transactional sends bypass the window at the
// orchestrator level; the policy itself knows nothing about message types.
type Policy struct {
	startHour int
	endHour   int
	loc       *time.Location
}

// Config configures the sending window.
type Config struct {
	// StartHour is the first hour (0-23) at which sends are permitted.
	StartHour int

	// EndHour is the hour (1-24) at which sends stop. The window is
	// half-open: a send at exactly EndHour:00 is outside.
	EndHour int

	// Location is the timezone the hours are evaluated in.
	// Defaults to time.Local.
	Location *time.Location
}

// New validates the config and builds a Policy.
func New(cfg Config) (*Policy, error) {
	if cfg.StartHour < 0 || cfg.StartHour > 23 {
		return nil, fmt.Errorf("start hour must be in [0,23], got %d", cfg.StartHour)
	}
	if cfg.EndHour < 1 || cfg.EndHour > 24 {
		return nil, fmt.Errorf("end hour must be in [1,24], got %d", cfg.EndHour)
	}
	if cfg.StartHour >= cfg.EndHour {
		return nil, fmt.Errorf("start hour %d must precede end hour %d", cfg.StartHour, cfg.EndHour)
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Policy{
		startHour: cfg.StartHour,
		endHour:   cfg.EndHour,
		loc:       loc,
	}, nil
}

// InWindow reports whether now falls inside the sending window.
func (p *Policy) InWindow(now time.Time) bool {
	h := now.In(p.loc).Hour()
	return h >= p.startHour && h < p.endHour
}

// NextOpen returns the next instant at which the window opens. Inside the
// window it returns now unchanged.
func (p *Policy) NextOpen(now time.Time) time.Time {
	local := now.In(p.loc)
	if p.InWindow(now) {
		return now
	}

	open := time.Date(local.Year(), local.Month(), local.Day(), p.startHour, 0, 0, 0, p.loc)
	if local.Hour() >= p.endHour {
		// Past close: tomorrow at open.
		open = open.Add(24 * time.Hour)
	}
	return open
}

// Hours returns the configured window bounds for inclusion in results.
func (p *Policy) Hours() (start, end int) {
	return p.startHour, p.endHour
}
