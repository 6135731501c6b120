package ingest

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/okian/aimsync/internal/adapters/repository"
	"github.com/okian/aimsync/internal/domain/dedupe"
	"github.com/okian/aimsync/internal/domain/model"
	"github.com/okian/aimsync/pkg/logger"
	"github.com/okian/aimsync/pkg/metrics"
)

// StructuredIngestor reads runs from a task store. Task names are mapped to
// exercise ids through a level-id table and filtered by per-exercise cutoff
// dates.
//
// Each task keeps a cursor at the newest run timestamp it has handed out.
// Later passes query from the day before the cursor and drop anything older
// than it; rows sharing the cursor timestamp are told apart by row key.
type StructuredIngestor struct {
	store   repository.TaskStore
	levels  map[string]string    // task name -> exercise id
	cutoffs map[string]time.Time // exercise id -> cutoff
	cursors map[string]*taskCursor
	undated dedupe.Deduper // rows whose createDate could not be parsed
	logger  logger.Logger
}

type taskCursor struct {
	at   time.Time
	seen dedupe.Deduper // keys of rows played exactly at
}

// NewStructuredIngestor creates an ingestor over store. levels maps store
// task names to exercise ids; cutoffs maps exercise ids to the date on or
// before which runs are ignored.
func NewStructuredIngestor(store repository.TaskStore, levels map[string]string, cutoffs map[string]time.Time, opts ...StructuredOption) *StructuredIngestor {
	in := &StructuredIngestor{
		store:   store,
		levels:  maps.Clone(levels),
		cutoffs: maps.Clone(cutoffs),
		cursors: make(map[string]*taskCursor),
		undated: dedupe.NewInMemoryDeduper(),
		logger:  logger.Get().Named("ingest.structured"),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Name implements Ingestor.
func (in *StructuredIngestor) Name() string { return "structured" }

// Ingest implements Ingestor.
func (in *StructuredIngestor) Ingest(ctx context.Context, known func(id string) bool) ([]model.Record, error) {
	const op = "ingest.structured"

	tasks := slices.Sorted(maps.Keys(in.levels))
	fetched := make(map[string][]repository.TaskScore, len(tasks))
	rows := 0

	for _, task := range tasks {
		id := in.levels[task]
		cutoff, ok := in.cutoffs[id]
		if !ok && known(id) {
			return nil, model.WrapKind(op, model.ErrMissingCutoffDate, fmt.Errorf("exercise %q", id))
		}
		res, err := in.store.Scores(ctx, task, in.queryFrom(task, cutoff))
		if err != nil {
			return nil, err
		}
		fetched[task] = res
		rows += len(res)
	}

	// Every query succeeded; only now do cursors move.
	var out []model.Record
	for _, task := range tasks {
		id := in.levels[task]
		for _, row := range in.advance(ctx, task, fetched[task]) {
			out = append(out, model.Record{
				ExerciseID: id,
				Score:      row.Score,
				PlayedAt:   row.PlayedAt,
				Source:     row.TaskName,
			})
		}
	}
	sortChronological(out)

	metrics.RecordRecordsIngested(in.Name(), len(out))
	in.logger.Debug(ctx, "structured ingestion finished",
		logger.Int("rows", rows),
		logger.Int("new", len(out)),
		logger.Int("undated", int(in.undated.Size())),
	)
	return out, nil
}

// queryFrom returns the store lower bound for task: the cutoff, or the day
// before the cursor when that is later. The store compares whole days.
func (in *StructuredIngestor) queryFrom(task string, cutoff time.Time) time.Time {
	c, ok := in.cursors[task]
	if !ok || c.at.IsZero() {
		return cutoff
	}
	if from := c.at.AddDate(0, 0, -1); from.After(cutoff) {
		return from
	}
	return cutoff
}

// advance returns the rows of task not handed out before and moves the
// task cursor past them.
func (in *StructuredIngestor) advance(ctx context.Context, task string, rows []repository.TaskScore) []repository.TaskScore {
	c, ok := in.cursors[task]
	if !ok {
		c = &taskCursor{seen: dedupe.NewInMemoryDeduper()}
		in.cursors[task] = c
	}

	rows = slices.Clone(rows)
	slices.SortStableFunc(rows, func(a, b repository.TaskScore) int {
		if n := comparePlayed(a.PlayedAt, b.PlayedAt); n != 0 {
			return n
		}
		return cmp.Compare(a.RowKey, b.RowKey)
	})

	var fresh []repository.TaskScore
	for _, row := range rows {
		key := fmt.Sprintf("%s#%d", row.TaskName, row.RowKey)
		switch {
		case row.PlayedAt.IsZero():
			if in.undated.SeenAndRecord(ctx, key) {
				continue
			}
		case row.PlayedAt.Before(c.at):
			continue
		case row.PlayedAt.Equal(c.at):
			if c.seen.SeenAndRecord(ctx, key) {
				continue
			}
		default:
			c.at = row.PlayedAt
			c.seen = dedupe.NewInMemoryDeduper()
			c.seen.SeenAndRecord(ctx, key)
		}
		fresh = append(fresh, row)
	}
	return fresh
}

// StructuredOption configures a StructuredIngestor.
type StructuredOption func(*StructuredIngestor)

// WithStructuredLogger sets a custom logger.
func WithStructuredLogger(l logger.Logger) StructuredOption {
	return func(in *StructuredIngestor) {
		if l != nil {
			in.logger = l
		}
	}
}
