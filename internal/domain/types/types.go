// Package types contains read models shared by the API and the CLI.
package types

import "github.com/okian/aimsync/internal/domain/registry"

// ScenarioView is the read shape of one tracked exercise.
type ScenarioView struct {
	Name           string    `json:"name"`
	Best           float64   `json:"best"`
	Average        float64   `json:"average"`
	Recent         []float64 `json:"recent"`
	HighscoreCells []string  `json:"highscore_cells"`
	AverageCells   []string  `json:"average_cells,omitempty"`
}

// FromEntries converts a registry snapshot, keeping its order.
func FromEntries(entries []registry.Entry) []ScenarioView {
	out := make([]ScenarioView, len(entries))
	for i, e := range entries {
		recent := e.Recent
		if recent == nil {
			recent = []float64{}
		}
		out[i] = ScenarioView{
			Name:           e.ID,
			Best:           e.Best,
			Average:        e.Average,
			Recent:         recent,
			HighscoreCells: e.HighscoreCells,
			AverageCells:   e.AverageCells,
		}
	}
	return out
}
