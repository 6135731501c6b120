// Package baseline builds the scenario registry from the progress sheet.
package baseline

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/okian/aimsync/internal/domain/model"
	"github.com/okian/aimsync/internal/domain/registry"
	"github.com/okian/aimsync/internal/domain/sheetrange"
)

// RangeReader reads one range token. Values come back flattened in
// row-major order, zero-filled to the declared range length, trimmed and
// lowercased.
type RangeReader interface {
	ReadRange(ctx context.Context, rangeSpec string) ([]string, error)
}

// Spec describes where the baseline lives in the sheet.
type Spec struct {
	NameRanges    []string
	ScoreRanges   []string
	AverageRanges []string
	// Averaging enables average cells and baseline averages.
	Averaging bool
	// Window is the rolling window size N.
	Window int
}

// Load reads names, highscores and averages and builds a registry.
//
// Names are matched positionally against the flattened score (and average)
// cells. When an exercise appears more than once, its baseline is the
// minimum over all of its cells.
func Load(ctx context.Context, rr RangeReader, spec Spec) (*registry.Registry, error) {
	const op = "baseline.load"

	hsCells, err := sheetrange.Flatten(spec.ScoreRanges)
	if err != nil {
		return nil, err
	}
	var avgCells []string
	if spec.Averaging {
		if avgCells, err = sheetrange.Flatten(spec.AverageRanges); err != nil {
			return nil, err
		}
	}

	reg := registry.New(spec.Window)
	i := 0
	for _, nr := range spec.NameRanges {
		names, err := rr.ReadRange(ctx, nr)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if i >= len(hsCells) {
				return nil, model.WrapKind(op, model.ErrRangeSizeMismatch,
					fmt.Errorf("%d highscore cells for more names", len(hsCells)))
			}
			if spec.Averaging && i >= len(avgCells) {
				return nil, model.WrapKind(op, model.ErrRangeSizeMismatch,
					fmt.Errorf("%d average cells for more names", len(avgCells)))
			}
			s := reg.GetOrCreate(model.NormalizeID(name))
			s.HighscoreCells = append(s.HighscoreCells, hsCells[i])
			if spec.Averaging {
				s.AverageCells = append(s.AverageCells, avgCells[i])
			}
			s.SourceIDs = append(s.SourceIDs, i)
			i++
		}
	}

	highscores, err := readFloats(ctx, rr, spec.ScoreRanges)
	if err != nil {
		return nil, err
	}
	// Highscore cells are required, average cells are not.
	if len(highscores) < reg.Len() {
		return nil, model.WrapKind(op, model.ErrRangeSizeMismatch,
			fmt.Errorf("%d highscores for %d exercises", len(highscores), reg.Len()))
	}
	var averages []float64
	if spec.Averaging {
		if averages, err = readFloats(ctx, rr, spec.AverageRanges); err != nil {
			return nil, err
		}
	}

	for id, s := range reg.All() {
		best, err := minAt(highscores, s.SourceIDs)
		if err != nil {
			return nil, model.WrapKind(op, model.ErrRangeSizeMismatch, fmt.Errorf("highscore of %q: %w", id, err))
		}
		s.Best = best
		if spec.Averaging {
			avg, err := minAt(averages, s.SourceIDs)
			if err != nil {
				return nil, model.WrapKind(op, model.ErrRangeSizeMismatch, fmt.Errorf("average of %q: %w", id, err))
			}
			s.Average = avg
		}
	}
	return reg, nil
}

func readFloats(ctx context.Context, rr RangeReader, ranges []string) ([]float64, error) {
	var out []float64
	for _, r := range ranges {
		vals, err := rr.ReadRange(ctx, r)
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, model.WrapKind("baseline.read_floats", model.ErrInvalidCellValue,
					fmt.Errorf("%s: %q", r, v))
			}
			out = append(out, f)
		}
	}
	return out, nil
}

func minAt(vals []float64, idx []int) (float64, error) {
	picked := make([]float64, 0, len(idx))
	for _, i := range idx {
		if i >= len(vals) {
			return 0, fmt.Errorf("no value for row %d", i)
		}
		picked = append(picked, vals[i])
	}
	return slices.Min(picked), nil
}
