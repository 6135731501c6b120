package worker

import (
	"time"

	"github.com/okian/aimsync/pkg/logger"
)

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithName sets the runner name for logging.
func WithName(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.name = name
		}
	}
}

// WithDebounce sets the quiet period that must pass after the last trigger
// before a cycle starts. Zero runs immediately.
func WithDebounce(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.debounce = d
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}
