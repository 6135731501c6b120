// Package sheetrange parses A1-style spreadsheet ranges and expands them into
// discrete cell addresses.
package sheetrange

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/aimsync/internal/domain/model"
)

// blankCell is the value that replaces blank or missing cells.
const blankCell = "0"

var rangePattern = regexp.MustCompile(`^(.+)!([A-Z]+)(\d+)(?::([A-Z]+)(\d+))?$`)

// Range is a parsed "sheet!A1" or "sheet!A1:B2" token.
type Range struct {
	Sheet string
	Col1  string
	Row1  int
	Col2  string
	Row2  int
	// Span is false for single-cell tokens, in which case Col2/Row2 mirror Col1/Row1.
	Span bool
}

// Parse validates and splits a range token.
func Parse(s string) (Range, error) {
	const op = "sheetrange.parse"
	m := rangePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Range{}, model.WrapKind(op, model.ErrInvalidRangeFormat, errInvalid(s))
	}
	row1, err := strconv.Atoi(m[3])
	if err != nil || row1 < 1 {
		return Range{}, model.WrapKind(op, model.ErrInvalidRangeFormat, errInvalid(s))
	}
	r := Range{Sheet: m[1], Col1: m[2], Row1: row1, Col2: m[2], Row2: row1}
	if m[4] == "" {
		return r, nil
	}
	row2, err := strconv.Atoi(m[5])
	if err != nil || row2 < row1 {
		return Range{}, model.WrapKind(op, model.ErrInvalidRangeFormat, errInvalid(s))
	}
	r.Col2, r.Row2, r.Span = m[4], row2, true
	return r, nil
}

// Len returns the number of rows the range declares.
func (r Range) Len() int {
	return r.Row2 - r.Row1 + 1
}

// String renders the range back to A1 notation.
func (r Range) String() string {
	first := r.Sheet + "!" + r.Col1 + strconv.Itoa(r.Row1)
	if !r.Span {
		return first
	}
	return first + ":" + r.Col2 + strconv.Itoa(r.Row2)
}

// Cells expands the range into cell addresses, top to bottom. Only single
// cells and single-column vertical spans can be expanded.
func (r Range) Cells() ([]string, error) {
	if r.Col1 != r.Col2 {
		return nil, model.WrapKind("sheetrange.cells", model.ErrUnsupportedRangeShape, errInvalid(r.String()))
	}
	cells := make([]string, 0, r.Len())
	for row := r.Row1; row <= r.Row2; row++ {
		cells = append(cells, r.Sheet+"!"+r.Col1+strconv.Itoa(row))
	}
	return cells, nil
}

// Flatten expands every range token in order and concatenates the cells.
func Flatten(tokens []string) ([]string, error) {
	var out []string
	for _, tok := range tokens {
		r, err := Parse(tok)
		if err != nil {
			return nil, err
		}
		cells, err := r.Cells()
		if err != nil {
			return nil, err
		}
		out = append(out, cells...)
	}
	return out, nil
}

// ZeroFill flattens the row-major values returned for r into one slice,
// trimming and lowercasing them. Empty rows become "0" and the result is
// padded with "0" up to the declared range length.
func ZeroFill(r Range, rows [][]string) []string {
	if len(rows) == 0 {
		rows = [][]string{{blankCell}}
	}
	flat := make([]string, 0, r.Len())
	for _, row := range rows {
		if len(row) == 0 {
			flat = append(flat, blankCell)
			continue
		}
		for _, v := range row {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" {
				v = blankCell
			}
			flat = append(flat, v)
		}
	}
	for len(flat) < r.Len() {
		flat = append(flat, blankCell)
	}
	return flat
}

type invalidRangeError string

func (e invalidRangeError) Error() string { return strconv.Quote(string(e)) }

func errInvalid(s string) error { return invalidRangeError(s) }
