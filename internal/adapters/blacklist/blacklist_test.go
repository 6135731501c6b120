package blacklist_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/aimsync/internal/adapters/blacklist"
	"github.com/okian/aimsync/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const updateDates = `"Scenario","Date"
"Close Long Strafes","01.06.2023"
"Tile Frenzy","15.02.2023"
"Broken Row","2023-02-15"
"Lonely"
`

const levelIDs = `"Name","LevelId","Date"
"Gridshot Ultimate","CsLevel.Gridshot.Ultimate","01.03.2023"
"Spidershot","CsLevel.Spidershot","20.04.2023"
"No Id","","20.04.2023"
`

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	Convey("Given a published version blacklist", t, func() {
		cutoffs, skipped, err := blacklist.ParseVersionBlacklist(strings.NewReader(updateDates))

		Convey("Then names are normalized and bad rows skipped", func() {
			So(err, ShouldBeNil)
			So(skipped, ShouldEqual, 2)
			So(cutoffs, ShouldHaveLength, 2)
			So(cutoffs["close long strafes"], ShouldEqual, day(2023, time.June, 1))
			So(cutoffs["tile frenzy"], ShouldEqual, day(2023, time.February, 15))
		})
	})

	Convey("Given a published level-id table", t, func() {
		table, skipped, err := blacklist.ParseLevelIDs(strings.NewReader(levelIDs))

		Convey("Then level ids map to exercise ids with cutoffs", func() {
			So(err, ShouldBeNil)
			So(skipped, ShouldEqual, 1)
			So(table.Levels["CsLevel.Gridshot.Ultimate"], ShouldEqual, "gridshot ultimate")
			So(table.Levels["CsLevel.Spidershot"], ShouldEqual, "spidershot")
			So(table.Cutoffs["spidershot"], ShouldEqual, day(2023, time.April, 20))
		})
	})
}

func TestFetcher(t *testing.T) {
	ctx := context.Background()

	Convey("Given a server publishing both tables", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/versions", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(updateDates))
		})
		mux.HandleFunc("/levels", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(levelIDs))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		f := blacklist.NewFetcher(blacklist.WithHTTPClient(srv.Client()))

		Convey("When fetching the version blacklist", func() {
			cutoffs, err := f.VersionBlacklist(ctx, srv.URL+"/versions")
			So(err, ShouldBeNil)
			So(cutoffs, ShouldContainKey, "tile frenzy")
		})

		Convey("When fetching level ids", func() {
			table, err := f.LevelIDs(ctx, srv.URL+"/levels")
			So(err, ShouldBeNil)
			So(table.Levels, ShouldHaveLength, 2)
		})

		Convey("When the table is missing", func() {
			_, err := f.VersionBlacklist(ctx, srv.URL+"/missing")
			So(errors.Is(err, model.ErrSourceUnavailable), ShouldBeTrue)
		})
	})
}
