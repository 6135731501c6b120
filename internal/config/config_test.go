package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/aimsync/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it mirrors the documented defaults", func() {
			convey.So(cfg.Game, convey.ShouldEqual, config.GameKovaaks)
			convey.So(cfg.RunMode, convey.ShouldEqual, config.ModeOnce)
			convey.So(cfg.PollingInterval(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.Debounce(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.CalculateAverages, convey.ShouldBeTrue)
			convey.So(cfg.NumOfRunsToAverage, convey.ShouldEqual, 10)
			convey.So(cfg.CredentialsFile, convey.ShouldEqual, "credentials.json")
			convey.So(cfg.VersionBlacklistURL, convey.ShouldContainSubstring, "sheet=Update_Dates")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a config per game", t, func() {
		cfg := config.New(context.Background())
		cfg.SheetIDKovaaks = "k"
		cfg.SheetIDAimlab = "a"
		cfg.ScenarioNameRanges = []string{"S!A1:A2"}
		cfg.AimlabNameRanges = []string{"A!A1:A2"}
		cfg.StatsPath = "/stats"
		cfg.AimlabDBPath = "/aimlab"

		convey.Convey("Then the active sheet follows the game", func() {
			convey.So(cfg.ActiveSheet().ID, convey.ShouldEqual, "k")
			convey.So(cfg.WatchDir(), convey.ShouldEqual, "/stats")
			cfg.Game = config.GameAimlab
			convey.So(cfg.ActiveSheet().ID, convey.ShouldEqual, "a")
			convey.So(cfg.ActiveSheet().NameRanges, convey.ShouldResemble, []string{"A!A1:A2"})
			convey.So(cfg.WatchDir(), convey.ShouldEqual, "/aimlab")
		})

		convey.Convey("Then missing score ranges fail source validation", func() {
			convey.So(errors.Is(cfg.ValidateSources(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("Then a complete layout passes", func() {
			cfg.HighscoreRanges = []string{"S!B1:B2"}
			cfg.AverageRanges = []string{"S!C1:C2"}
			convey.So(cfg.ValidateSources(), convey.ShouldBeNil)
		})
	})
}
