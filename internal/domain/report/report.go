// Package report turns reconciliation changes into a summary and cell writes.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/aimsync/internal/domain/reconcile"
	"github.com/okian/aimsync/internal/domain/registry"
)

// UpToDate is the single summary line emitted when nothing changed.
const UpToDate = "Your progress sheet is up-to-date."

// Write is one cell-write instruction.
type Write struct {
	Cell  string
	Value float64
}

// Report is the formatted outcome of one cycle.
type Report struct {
	UpToDate bool
	Lines    []string
	Writes   []Write
}

// Build formats changes against the current registry state.
func Build(reg *registry.Registry, ch reconcile.Changes) Report {
	if ch.Empty() {
		return Report{UpToDate: true, Lines: []string{UpToDate}}
	}
	var r Report
	if len(ch.Highscores) > 0 {
		r.Lines = append(r.Lines, header("New Highscore", len(ch.Highscores)))
		for _, id := range ch.Highscores {
			s, ok := reg.Get(id)
			if !ok {
				continue
			}
			r.Lines = append(r.Lines, line(s.Best, id))
			for _, cell := range s.HighscoreCells {
				r.Writes = append(r.Writes, Write{Cell: cell, Value: s.Best})
			}
		}
	}
	if len(ch.Averages) > 0 {
		r.Lines = append(r.Lines, header("New Average", len(ch.Averages)))
		for _, id := range ch.Averages {
			s, ok := reg.Get(id)
			if !ok {
				continue
			}
			r.Lines = append(r.Lines, line(s.Average, id))
			for _, cell := range s.AverageCells {
				r.Writes = append(r.Writes, Write{Cell: cell, Value: s.Average})
			}
		}
	}
	return r
}

// String joins the summary lines.
func (r Report) String() string {
	return strings.Join(r.Lines, "\n")
}

func header(title string, n int) string {
	if n > 1 {
		return title + "s"
	}
	return title
}

func line(v float64, name string) string {
	return fmt.Sprintf("%10s - %s", FormatValue(v), name)
}

// FormatValue renders a score with at least one decimal, e.g. 12 -> "12.0".
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
