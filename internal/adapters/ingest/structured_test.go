package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/aimsync/internal/adapters/ingest"
	"github.com/okian/aimsync/internal/adapters/repository"
	"github.com/okian/aimsync/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeStore struct {
	rows    map[string][]repository.TaskScore
	failOn  string
	queries map[string]time.Time
	// fullHistory returns every row regardless of the lower bound.
	fullHistory bool
}

func (f *fakeStore) Scores(_ context.Context, task string, after time.Time) ([]repository.TaskScore, error) {
	if f.queries == nil {
		f.queries = make(map[string]time.Time)
	}
	f.queries[task] = after
	if task == f.failOn {
		return nil, model.WrapKind("fake", model.ErrSourceUnavailable, errors.New("locked"))
	}
	var out []repository.TaskScore
	for _, r := range f.rows[task] {
		if f.fullHistory || r.PlayedAt.IsZero() || r.PlayedAt.After(after) {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestStructuredIngestor(t *testing.T) {
	ctx := context.Background()

	Convey("Given a task store with runs for two levels", t, func() {
		store := &fakeStore{rows: map[string][]repository.TaskScore{
			"CsLevel.Gridshot": {
				{RowKey: 1, TaskName: "CsLevel.Gridshot", Score: 70, PlayedAt: date("2023-05-03")},
				{RowKey: 2, TaskName: "CsLevel.Gridshot", Score: 80, PlayedAt: date("2023-04-01")},
			},
			"CsLevel.Spidershot": {
				{RowKey: 7, TaskName: "CsLevel.Spidershot", Score: 55, PlayedAt: date("2023-05-02")},
			},
		}}
		levels := map[string]string{
			"CsLevel.Gridshot":   "gridshot",
			"CsLevel.Spidershot": "spidershot",
		}
		cutoffs := map[string]time.Time{
			"gridshot":   date("2023-01-01"),
			"spidershot": date("2023-01-01"),
		}
		in := ingest.NewStructuredIngestor(store, levels, cutoffs)
		known := knownIDs("gridshot", "spidershot")

		Convey("When ingesting", func() {
			recs, err := in.Ingest(ctx, known)

			Convey("Then records come back oldest first", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 3)
				So(recs[0].Score, ShouldEqual, 80)
				So(recs[1].ExerciseID, ShouldEqual, "spidershot")
				So(recs[2].Score, ShouldEqual, 70)
				So(store.queries["CsLevel.Gridshot"], ShouldEqual, date("2023-01-01"))
			})

			Convey("And a second pass only returns new rows", func() {
				store.rows["CsLevel.Gridshot"] = append(store.rows["CsLevel.Gridshot"],
					repository.TaskScore{RowKey: 3, TaskName: "CsLevel.Gridshot", Score: 95, PlayedAt: date("2023-05-04")})
				recs, err := in.Ingest(ctx, known)
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 1)
				So(recs[0].Score, ShouldEqual, 95)
			})

			Convey("And later passes query from the day before the newest run", func() {
				_, err := in.Ingest(ctx, known)
				So(err, ShouldBeNil)
				So(store.queries["CsLevel.Gridshot"], ShouldEqual, date("2023-05-02"))
				So(store.queries["CsLevel.Spidershot"], ShouldEqual, date("2023-05-01"))
			})

			Convey("And a run sharing the newest timestamp is returned once", func() {
				store.rows["CsLevel.Gridshot"] = append(store.rows["CsLevel.Gridshot"],
					repository.TaskScore{RowKey: 4, TaskName: "CsLevel.Gridshot", Score: 60, PlayedAt: date("2023-05-03")})
				recs, err := in.Ingest(ctx, known)
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 1)
				So(recs[0].Score, ShouldEqual, 60)

				recs, err = in.Ingest(ctx, known)
				So(err, ShouldBeNil)
				So(recs, ShouldBeEmpty)
			})

			Convey("And a store that returns its whole history feeds nothing twice", func() {
				store.fullHistory = true
				for i := 0; i < 3; i++ {
					recs, err := in.Ingest(ctx, known)
					So(err, ShouldBeNil)
					So(recs, ShouldBeEmpty)
				}
			})
		})

		Convey("When a run has no parseable date", func() {
			store.rows["CsLevel.Spidershot"] = append(store.rows["CsLevel.Spidershot"],
				repository.TaskScore{RowKey: 9, TaskName: "CsLevel.Spidershot", Score: 40})
			recs, err := in.Ingest(ctx, known)

			Convey("Then it sorts first and is returned only once", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 4)
				So(recs[0].Score, ShouldEqual, 40)
				So(recs[1].Score, ShouldEqual, 80)
				So(recs[2].ExerciseID, ShouldEqual, "spidershot")
				So(recs[3].Score, ShouldEqual, 70)

				recs, err = in.Ingest(ctx, known)
				So(err, ShouldBeNil)
				So(recs, ShouldBeEmpty)
			})
		})

		Convey("When a query fails", func() {
			store.failOn = "CsLevel.Spidershot"
			_, err := in.Ingest(ctx, known)

			Convey("Then the pass fails and nothing is consumed", func() {
				So(errors.Is(err, model.ErrSourceUnavailable), ShouldBeTrue)

				store.failOn = ""
				recs, err := in.Ingest(ctx, known)
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 3)
			})
		})
	})

	Convey("Given a known exercise without a cutoff", t, func() {
		store := &fakeStore{}
		in := ingest.NewStructuredIngestor(store,
			map[string]string{"CsLevel.Gridshot": "gridshot"},
			map[string]time.Time{},
		)

		Convey("Then ingestion fails", func() {
			_, err := in.Ingest(ctx, knownIDs("gridshot"))
			So(errors.Is(err, model.ErrMissingCutoffDate), ShouldBeTrue)
		})

		Convey("Unless the exercise is not configured", func() {
			recs, err := in.Ingest(ctx, knownIDs())
			So(err, ShouldBeNil)
			So(recs, ShouldBeEmpty)
			So(store.queries["CsLevel.Gridshot"].IsZero(), ShouldBeTrue)
		})
	})
}
