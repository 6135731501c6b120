// Package reconcile applies ingested records to the scenario registry.
package reconcile

import (
	"github.com/okian/aimsync/internal/domain/model"
	"github.com/okian/aimsync/internal/domain/registry"
)

// Options control reconciliation.
type Options struct {
	// Averaging feeds scores into rolling windows and recomputes averages.
	Averaging bool
}

// Changes lists the exercises whose best score or average changed, in the
// order they were first marked. An exercise may appear in both lists.
type Changes struct {
	Highscores []string
	Averages   []string
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Highscores) == 0 && len(c.Averages) == 0
}

// Apply feeds records into reg, oldest first, and returns what changed.
// Records for exercises unknown to reg are skipped. A score equal to the
// current best is not a new highscore.
func Apply(reg *registry.Registry, records []model.Record, opts Options) Changes {
	var ch Changes
	marked := make(map[string]struct{})

	for _, rec := range records {
		s, ok := reg.Get(rec.ExerciseID)
		if !ok {
			continue
		}
		if rec.Score > s.Best {
			s.Best = rec.Score
			if _, dup := marked[rec.ExerciseID]; !dup {
				marked[rec.ExerciseID] = struct{}{}
				ch.Highscores = append(ch.Highscores, rec.ExerciseID)
			}
		}
		if opts.Averaging {
			s.Push(rec.Score, reg.Window())
		}
	}

	if !opts.Averaging {
		return ch
	}
	// Every exercise with a window is recomputed, not only the touched ones.
	for id, s := range reg.All() {
		avg, ok := s.Mean()
		if !ok || avg == s.Average {
			continue
		}
		s.Average = avg
		ch.Averages = append(ch.Averages, id)
	}
	return ch
}
