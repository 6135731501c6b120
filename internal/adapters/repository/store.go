// Package repository reads past runs from the trainer's local database.
package repository

import (
	"context"
	"time"
)

// TaskScore is one row of the trainer's task history.
type TaskScore struct {
	RowKey   int64
	TaskName string
	Score    float64
	PlayedAt time.Time
}

// TaskStore provides read access to recorded runs.
type TaskStore interface {
	// Scores returns the runs of taskName played strictly after the given
	// date, oldest first. A zero after returns every run.
	Scores(ctx context.Context, taskName string, after time.Time) ([]TaskScore, error)
}
