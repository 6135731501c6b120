package trigger

import "errors"

// ErrClosed is returned when closing an already closed queue.
var ErrClosed = errors.New("trigger queue closed")
