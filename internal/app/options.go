package service

import (
	"time"

	"github.com/okian/aimsync/internal/adapters/ingest"
	"github.com/okian/aimsync/internal/domain/baseline"
	"github.com/okian/aimsync/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSheet sets the spreadsheet client.
func WithSheet(sheet Sheet) Option {
	return func(s *Service) {
		s.sheet = sheet
	}
}

// WithIngestor sets the score source.
func WithIngestor(in ingest.Ingestor) Option {
	return func(s *Service) {
		s.ingestor = in
	}
}

// WithBaselineSpec sets the sheet layout and averaging settings.
func WithBaselineSpec(spec baseline.Spec) Option {
	return func(s *Service) {
		s.spec = spec
	}
}

// WithDebounce sets the quiet period between a trigger and its cycle.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
