package reconcile_test

import (
	"testing"
	"time"

	"github.com/okian/aimsync/internal/domain/model"
	"github.com/okian/aimsync/internal/domain/reconcile"
	"github.com/okian/aimsync/internal/domain/registry"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(id string, score float64, at time.Time) model.Record {
	return model.Record{ExerciseID: id, Score: score, PlayedAt: at}
}

func TestApply(t *testing.T) {
	t1 := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	Convey("Given gridshot with best 10, an empty window and N=3", t, func() {
		reg := registry.New(3)
		g := reg.GetOrCreate("gridshot")
		g.Best = 10

		Convey("When ingesting 8 then 12", func() {
			ch := reconcile.Apply(reg, []model.Record{rec("gridshot", 8, t1), rec("gridshot", 12, t2)}, reconcile.Options{Averaging: true})

			Convey("Then best, window and average all change", func() {
				So(g.Best, ShouldEqual, 12)
				So(ch.Highscores, ShouldResemble, []string{"gridshot"})
				So(g.Recent, ShouldResemble, []float64{8, 12})
				So(g.Average, ShouldEqual, 10.0)
				So(ch.Averages, ShouldResemble, []string{"gridshot"})
				So(ch.Empty(), ShouldBeFalse)
			})
		})

		Convey("When a score equals the current best", func() {
			ch := reconcile.Apply(reg, []model.Record{rec("gridshot", 10, t1)}, reconcile.Options{})

			Convey("Then it is not a new highscore", func() {
				So(ch.Highscores, ShouldBeEmpty)
				So(g.Best, ShouldEqual, 10)
			})
		})

		Convey("When the exercise is unknown", func() {
			ch := reconcile.Apply(reg, []model.Record{rec("pasu", 99, t1)}, reconcile.Options{Averaging: true})

			Convey("Then the record is skipped", func() {
				So(ch.Empty(), ShouldBeTrue)
				So(reg.Has("pasu"), ShouldBeFalse)
			})
		})

		Convey("When the new mean ties at the second decimal", func() {
			tied := registry.New(2)
			gs := tied.GetOrCreate("gridshot")
			gs.Best = 20
			gs.Average = 10.2
			ch := reconcile.Apply(tied, []model.Record{rec("gridshot", 10.2, t1), rec("gridshot", 10.3, t2)}, reconcile.Options{Averaging: true})

			Convey("Then the average rounds to even and is unchanged", func() {
				So(gs.Recent, ShouldResemble, []float64{10.2, 10.3})
				So(gs.Average, ShouldEqual, 10.2)
				So(ch.Averages, ShouldBeEmpty)
				So(ch.Empty(), ShouldBeTrue)
			})
		})

		Convey("When averaging is disabled", func() {
			ch := reconcile.Apply(reg, []model.Record{rec("gridshot", 11, t1)}, reconcile.Options{})

			Convey("Then only the best changes", func() {
				So(ch.Highscores, ShouldResemble, []string{"gridshot"})
				So(ch.Averages, ShouldBeEmpty)
				So(g.Recent, ShouldBeEmpty)
			})
		})

		Convey("When the same exercise beats its best twice", func() {
			ch := reconcile.Apply(reg, []model.Record{rec("gridshot", 11, t1), rec("gridshot", 13, t2)}, reconcile.Options{})

			Convey("Then it is listed once", func() {
				So(ch.Highscores, ShouldResemble, []string{"gridshot"})
				So(g.Best, ShouldEqual, 13)
			})
		})
	})

	Convey("Given an arbitrary sequence of scores", t, func() {
		reg := registry.New(4)
		g := reg.GetOrCreate("gridshot")
		scores := []float64{5, 3, 9, 9, 2, 11, 7, 1, 11.5, 4}

		Convey("Then best never decreases and the window tracks the last N", func() {
			prev := g.Best
			for i, v := range scores {
				reconcile.Apply(reg, []model.Record{rec("gridshot", v, t1)}, reconcile.Options{Averaging: true})
				So(g.Best, ShouldBeGreaterThanOrEqualTo, prev)
				prev = g.Best
				So(len(g.Recent), ShouldBeLessThanOrEqualTo, 4)
				start := max(0, i+1-4)
				So(g.Recent, ShouldResemble, scores[start:i+1])
				want, _ := g.Mean()
				So(g.Average, ShouldEqual, want)
			}
			So(g.Best, ShouldEqual, 11.5)
		})
	})

	Convey("Given an exercise whose window was filled in an earlier cycle", t, func() {
		reg := registry.New(3)
		a := reg.GetOrCreate("a")
		a.Push(10, 3)
		a.Average = 4
		b := reg.GetOrCreate("b")
		b.Average = 7

		Convey("When a cycle touches nothing", func() {
			ch := reconcile.Apply(reg, nil, reconcile.Options{Averaging: true})

			Convey("Then untouched windows are still recomputed and empty ones left alone", func() {
				So(ch.Averages, ShouldResemble, []string{"a"})
				So(a.Average, ShouldEqual, 10)
				So(b.Average, ShouldEqual, 7)
			})
		})
	})
}
