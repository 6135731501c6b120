package sheets

import "errors"

// ErrMissingSpreadsheetID is returned when no spreadsheet id is configured.
var ErrMissingSpreadsheetID = errors.New("missing spreadsheet id")
