package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	service "github.com/okian/aimsync/internal/app"
	"github.com/okian/aimsync/internal/domain/baseline"
	"github.com/okian/aimsync/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeSheet struct {
	mu      sync.Mutex
	ranges  map[string][]string
	writes  map[string]float64
	order   []string
	failOn  string
	readErr error
}

func newFakeSheet() *fakeSheet {
	return &fakeSheet{
		ranges: map[string][]string{
			"S!A2:A3": {"tile frenzy", "pasu"},
			"S!B2:B3": {"800", "500"},
			"S!C2:C3": {"750", "450"},
		},
		writes: map[string]float64{},
	}
}

func (f *fakeSheet) ReadRange(_ context.Context, spec string) ([]string, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	vals, ok := f.ranges[spec]
	if !ok {
		return nil, fmt.Errorf("unknown range %s", spec)
	}
	return vals, nil
}

func (f *fakeSheet) WriteCell(_ context.Context, cell string, value float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cell == f.failOn {
		return errors.New("quota exceeded")
	}
	f.writes[cell] = value
	f.order = append(f.order, cell)
	return nil
}

func (f *fakeSheet) written() map[string]float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]float64, len(f.writes))
	for k, v := range f.writes {
		out[k] = v
	}
	return out
}

type fakeIngestor struct {
	mu      sync.Mutex
	batches [][]model.Record
	err     error
	calls   int
}

func (f *fakeIngestor) Name() string { return "fake" }

func (f *fakeIngestor) Ingest(_ context.Context, known func(string) bool) ([]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	var out []model.Record
	for _, r := range batch {
		if known(r.ExerciseID) {
			out = append(out, r)
		}
	}
	return out, nil
}

var layout = baseline.Spec{
	NameRanges:    []string{"S!A2:A3"},
	ScoreRanges:   []string{"S!B2:B3"},
	AverageRanges: []string{"S!C2:C3"},
	Averaging:     true,
	Window:        3,
}

func TestService_Start(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service without collaborators", t, func() {
		svc := service.New()

		Convey("Then Start fails", func() {
			So(svc.Start(ctx), ShouldEqual, service.ErrNotConfigured)
			So(svc.Sync(ctx, "api"), ShouldBeFalse)
		})
	})

	Convey("Given an unreachable spreadsheet", t, func() {
		sheet := newFakeSheet()
		sheet.readErr = model.WrapKind("fake", model.ErrSourceUnavailable, errors.New("offline"))
		svc := service.New(service.WithSheet(sheet), service.WithIngestor(&fakeIngestor{}), service.WithBaselineSpec(layout))

		Convey("Then Start reports the cause", func() {
			err := svc.Start(ctx)
			So(errors.Is(err, model.ErrSourceUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a configured service", t, func() {
		svc := service.New(
			service.WithSheet(newFakeSheet()),
			service.WithIngestor(&fakeIngestor{}),
			service.WithBaselineSpec(layout),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the baseline is loaded", func() {
			views := svc.Scenarios()
			So(views, ShouldHaveLength, 2)
			So(views[0].Name, ShouldEqual, "tile frenzy")
			So(views[0].Best, ShouldEqual, 800)
			So(views[1].Average, ShouldEqual, 450)

			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["scenarios"], ShouldEqual, 2)
			So(stats["source"], ShouldEqual, "fake")
			So(stats["accepting"], ShouldEqual, true)
		})

		Convey("Then starting twice is a no-op", func() {
			So(svc.Start(ctx), ShouldBeNil)
		})
	})
}

func TestService_RunCycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		sheet := newFakeSheet()
		ing := &fakeIngestor{}
		svc := service.New(
			service.WithSheet(sheet),
			service.WithIngestor(ing),
			service.WithBaselineSpec(layout),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a new best arrives", func() {
			ing.batches = [][]model.Record{{
				{ExerciseID: "tile frenzy", Score: 812.5},
				{ExerciseID: "unknown", Score: 9999},
			}}
			err := svc.RunCycle(ctx, "test")

			Convey("Then the highscore and average cells are written", func() {
				So(err, ShouldBeNil)
				So(sheet.written(), ShouldResemble, map[string]float64{"S!B2": 812.5, "S!C2": 812.5})
				So(svc.Scenarios()[0].Best, ShouldEqual, 812.5)

				stats := svc.GetStats()
				So(stats["cycles"], ShouldEqual, 1)
				So(stats["newHighscores"], ShouldEqual, 1)
				last := stats["lastCycle"].(map[string]interface{})
				So(last["outcome"], ShouldEqual, service.OutcomeUpdated)
				So(last["id"], ShouldNotBeBlank)
			})
		})

		Convey("When nothing is new", func() {
			err := svc.RunCycle(ctx, "test")

			Convey("Then nothing is written", func() {
				So(err, ShouldBeNil)
				So(sheet.written(), ShouldBeEmpty)
				last := svc.GetStats()["lastCycle"].(map[string]interface{})
				So(last["outcome"], ShouldEqual, service.OutcomeUpToDate)
			})
		})

		Convey("When ingestion fails", func() {
			ing.err = model.WrapKind("fake", model.ErrSourceUnavailable, errors.New("locked"))
			err := svc.RunCycle(ctx, "test")

			Convey("Then the cycle fails and the registry is untouched", func() {
				So(errors.Is(err, model.ErrSourceUnavailable), ShouldBeTrue)
				So(svc.Scenarios()[0].Best, ShouldEqual, 800)
				So(svc.GetStats()["failedCycles"], ShouldEqual, 1)
			})
		})

		Convey("When a cell write fails", func() {
			sheet.failOn = "S!C2"
			ing.batches = [][]model.Record{{{ExerciseID: "tile frenzy", Score: 900}}}
			err := svc.RunCycle(ctx, "test")

			Convey("Then the cycle halts with a write error", func() {
				So(errors.Is(err, model.ErrCellWrite), ShouldBeTrue)
				So(sheet.written(), ShouldContainKey, "S!B2")
				last := svc.GetStats()["lastCycle"].(map[string]interface{})
				So(last["error"], ShouldContainSubstring, "quota exceeded")
			})
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New(service.WithSheet(newFakeSheet()), service.WithIngestor(&fakeIngestor{}))
		So(svc.RunCycle(ctx, "test"), ShouldEqual, service.ErrNotStarted)
	})
}

func TestService_Triggers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	Convey("Given a started service", t, func() {
		sheet := newFakeSheet()
		ing := &fakeIngestor{batches: [][]model.Record{{{ExerciseID: "pasu", Score: 510}}}}
		svc := service.New(
			service.WithSheet(sheet),
			service.WithIngestor(ing),
			service.WithBaselineSpec(layout),
			service.WithDebounce(0),
		)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When a sync is requested", func() {
			So(svc.Sync(ctx, "api"), ShouldBeTrue)

			Convey("Then the runner performs the cycle", func() {
				deadline := time.Now().Add(2 * time.Second)
				for time.Now().Before(deadline) {
					if svc.GetStats()["cycles"] == 1 {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(svc.GetStats()["cycles"], ShouldEqual, 1)
				So(sheet.written()["S!B3"], ShouldEqual, 510)
				svc.Stop()
			})
		})

		Convey("When the service is stopped", func() {
			svc.Stop()

			Convey("Then further requests are refused", func() {
				So(svc.Sync(ctx, "api"), ShouldBeFalse)
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.GetStats()["accepting"], ShouldEqual, false)
			})
		})
	})
}
