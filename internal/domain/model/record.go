// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Record is a single normalized play of an exercise, as produced by an ingestor.
type Record struct {
	ExerciseID string    // normalized exercise name
	Score      float64   // score of the run
	PlayedAt   time.Time // when the run was played; zero if unknown
	Source     string    // originating file name or store row key
}

// NormalizeID maps a raw exercise name to its registry key.
func NormalizeID(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Round1 rounds v to one decimal place. The exact binary value is rounded,
// so 0.15 (stored just below) gives 0.1 and an exact tie such as 0.25 goes
// to the even digit.
func Round1(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return r
}
