package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	ctx := context.Background()

	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("json"), WithWriter(&buf)), ShouldBeNil)
		defer func() { _ = Init(WithWriter(&bytes.Buffer{})) }()

		Convey("When a named logger writes a record", func() {
			Named("ingest").Named("directory").Info(ctx, "finished",
				Int("new", 2), Bool("primed", true), Error(errors.New("boom")))

			var rec map[string]any
			So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)

			Convey("Then it carries the name, fields and caller", func() {
				So(rec["msg"], ShouldEqual, "finished")
				So(rec["logger"], ShouldEqual, "ingest.directory")
				So(rec["new"], ShouldEqual, 2.0)
				So(rec["primed"], ShouldEqual, true)
				So(rec["error"], ShouldEqual, "boom")
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown")

			Convey("Then lower records are dropped", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "shown")
			})
		})

		Convey("When an unknown level is set", func() {
			So(SetLevelString("loud"), ShouldNotBeNil)
		})
	})

	Convey("Given a text logger", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)
		So(SetLevelString("debug"), ShouldBeNil)
		defer func() { _ = Init(WithWriter(&bytes.Buffer{})) }()

		Get().Debug(ctx, "details", String("k", "v"))
		So(strings.Contains(buf.String(), "k=v"), ShouldBeTrue)
		So(Sync(), ShouldBeNil)
	})

	Convey("Given an unknown format", t, func() {
		So(Init(WithFormat("xml")), ShouldNotBeNil)
	})
}
