package repository

import "time"

// Option applies a configuration option to the SQLiteTaskStore.
type Option func(*SQLiteTaskStore)

// WithBusyTimeout sets how long a query waits on a database locked by the
// trainer before failing.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *SQLiteTaskStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// WithFileName overrides the database file name inside the data directory.
func WithFileName(name string) Option {
	return func(s *SQLiteTaskStore) {
		if name != "" {
			s.fileName = name
		}
	}
}
