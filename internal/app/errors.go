package service

import "errors"

// Sentinel errors for the service lifecycle.
var (
	ErrNotConfigured = errors.New("service needs a sheet and an ingestor")
	ErrNotStarted    = errors.New("service not started")
)
