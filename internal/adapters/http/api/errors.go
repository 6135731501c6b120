package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrClosed           = errors.New("sync requests are no longer accepted")
)
