package model

import (
	"errors"
	"fmt"
)

// Sentinel kinds for reconciliation failures. All of them are fatal to the
// current cycle; callers classify with errors.Is.
var (
	ErrInvalidRangeFormat    = errors.New("invalid range format")
	ErrUnsupportedRangeShape = errors.New("unsupported range shape")
	ErrRangeSizeMismatch     = errors.New("range size mismatch")
	ErrMissingCutoffDate     = errors.New("missing cutoff date")
	ErrSourceUnavailable     = errors.New("source unavailable")
	ErrInvalidCellValue      = errors.New("invalid cell value")
	ErrCellWrite             = errors.New("cell write failed")
)

// Error annotates a sentinel kind with the failing operation.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an error of the given kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind returns an error of the given kind raised by op, caused by err.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns a short label for the sentinel wrapped in err, used for
// metrics and logs.
func KindOf(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidRangeFormat):
		return "invalid_range_format"
	case errors.Is(err, ErrUnsupportedRangeShape):
		return "unsupported_range_shape"
	case errors.Is(err, ErrRangeSizeMismatch):
		return "range_size_mismatch"
	case errors.Is(err, ErrMissingCutoffDate):
		return "missing_cutoff_date"
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, ErrInvalidCellValue):
		return "invalid_cell_value"
	case errors.Is(err, ErrCellWrite):
		return "cell_write"
	default:
		return "unknown"
	}
}
