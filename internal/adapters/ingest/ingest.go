// Package ingest turns raw trainer output into normalized records.
//
// Two sources are supported: a structured store queried per task (Aim Lab)
// and a directory of result files (KovaaK's). Both return records oldest
// first and only advance their own cursor after a fully successful pass, so
// a failed pass leaves nothing half-consumed.
package ingest

import (
	"context"
	"slices"
	"time"

	"github.com/okian/aimsync/internal/domain/model"
)

// Ingestor produces the records that appeared since the previous call.
type Ingestor interface {
	// Name identifies the source in logs and metrics.
	Name() string
	// Ingest returns new records. known reports whether an exercise id is
	// configured in the registry.
	Ingest(ctx context.Context, known func(id string) bool) ([]model.Record, error)
}

// sortChronological orders records oldest first. Records without a
// timestamp sort before dated ones; ties keep the source order.
func sortChronological(recs []model.Record) {
	slices.SortStableFunc(recs, func(a, b model.Record) int {
		return comparePlayed(a.PlayedAt, b.PlayedAt)
	})
}

// comparePlayed orders timestamps with the zero time first.
func comparePlayed(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return -1
	case b.IsZero():
		return 1
	}
	return a.Compare(b)
}
