// Package util provides common utility functions and constants used across the
// tunnels application. This package is intentionally kept dependency-free
// (no imports from other internal/* packages) to serve as a shared foundation
// without introducing circular dependencies.
package util

import "time"

const (
	// StopTimeout is how long a graceful SIGTERM is given to take effect
	// before the lifecycle controller escalates to SIGKILL.
	// Used by: internal/tunnel/controller.go (Stop).
	StopTimeout = 5 * time.Second

	// StopPollInterval is the interval at which the controller re-checks
	// whether a terminated process has actually exited while waiting out
	// StopTimeout.
	StopPollInterval = 100 * time.Millisecond

	// LiveRefreshInterval is the fixed polling interval of the live status
	// view. The view re-reads the entire process table on every tick, so the
	// interval is kept coarse enough to not generate noticeable load.
	// Used by: internal/ui/live.go (tickCmd).
	LiveRefreshInterval = 4 * time.Second
)
