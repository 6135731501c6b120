// Package registry holds the per-exercise scenario records that the baseline
// loader builds and the reconciler mutates.
//
// A Registry is not safe for concurrent mutation; the cycle runner
// serializes access.
package registry

import (
	"iter"

	"github.com/okian/aimsync/internal/domain/model"
)

// Scenario is the state tracked for one exercise.
type Scenario struct {
	// HighscoreCells all receive the same value when Best changes.
	HighscoreCells []string
	// AverageCells is empty when averaging is disabled.
	AverageCells []string
	// SourceIDs are the positional baseline indices of this exercise.
	SourceIDs []int

	Best    float64
	Average float64
	// Recent holds the last scores in ingestion order, oldest first.
	Recent []float64
}

// Push appends score to the rolling window, evicting the oldest entries so
// that at most window scores are kept.
func (s *Scenario) Push(score float64, window int) {
	s.Recent = append(s.Recent, score)
	if window > 0 && len(s.Recent) > window {
		s.Recent = append(s.Recent[:0:0], s.Recent[len(s.Recent)-window:]...)
	}
}

// Mean returns the rolling average rounded to one decimal. ok is false when
// the window is empty.
func (s *Scenario) Mean() (float64, bool) {
	if len(s.Recent) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range s.Recent {
		sum += v
	}
	return model.Round1(sum / float64(len(s.Recent))), true
}

// clone returns a deep copy of s.
func (s *Scenario) clone() Scenario {
	return Scenario{
		HighscoreCells: append([]string(nil), s.HighscoreCells...),
		AverageCells:   append([]string(nil), s.AverageCells...),
		SourceIDs:      append([]int(nil), s.SourceIDs...),
		Best:           s.Best,
		Average:        s.Average,
		Recent:         append([]float64(nil), s.Recent...),
	}
}

// Registry maps exercise ids to scenarios, preserving insertion order.
type Registry struct {
	window    int
	scenarios map[string]*Scenario
	order     []string
}

// New creates an empty registry whose rolling windows hold window scores.
func New(window int) *Registry {
	return &Registry{
		window:    window,
		scenarios: make(map[string]*Scenario),
	}
}

// Window returns the rolling window size N.
func (r *Registry) Window() int { return r.window }

// GetOrCreate returns the scenario for id, creating an empty one if needed.
func (r *Registry) GetOrCreate(id string) *Scenario {
	if s, ok := r.scenarios[id]; ok {
		return s
	}
	s := &Scenario{}
	r.scenarios[id] = s
	r.order = append(r.order, id)
	return s
}

// Get returns the scenario for id.
func (r *Registry) Get(id string) (*Scenario, bool) {
	s, ok := r.scenarios[id]
	return s, ok
}

// Has reports whether id is a configured exercise.
func (r *Registry) Has(id string) bool {
	_, ok := r.scenarios[id]
	return ok
}

// Len returns the number of exercises.
func (r *Registry) Len() int { return len(r.order) }

// All iterates exercises in insertion order.
func (r *Registry) All() iter.Seq2[string, *Scenario] {
	return func(yield func(string, *Scenario) bool) {
		for _, id := range r.order {
			if !yield(id, r.scenarios[id]) {
				return
			}
		}
	}
}

// Entry is a detached copy of one scenario.
type Entry struct {
	ID string
	Scenario
}

// Snapshot returns deep copies of all scenarios in insertion order.
func (r *Registry) Snapshot() []Entry {
	out := make([]Entry, 0, len(r.order))
	for id, s := range r.All() {
		out = append(out, Entry{ID: id, Scenario: s.clone()})
	}
	return out
}
