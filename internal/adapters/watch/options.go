package watch

import "github.com/okian/aimsync/pkg/logger"

// Option configures a Watcher.
type Option func(*Watcher)

// WithFilter restricts which changed paths trigger a sync.
func WithFilter(f Filter) Option {
	return func(w *Watcher) {
		if f != nil {
			w.filter = f
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}
