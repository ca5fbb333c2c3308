package snapshot_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/xpts/internal/adapters/snapshot"
	"github.com/okian/xpts/internal/domain/model"
)

const validDocument = `{"gameweek": 12,
 "teams": [{"name": "ARS", "expected_goals_against": 0.8, "attack_strength": 1.9}],
 "players": [
  {"id": "p1", "name": "Saliba", "team": "ARS", "position": "DEF", "price": "6.0",
   "minutes_history": [90,90,90,90], "expected_goals_per90": 0.05, "expected_assists_per90": 0.1,
   "creativity": 12.3, "expected_goals_against_team": 0.8, "bonus_per_match": 0.3, "form": 5.1,
   "fixture_opponent_strengths": [2,3,4], "selected_percent": 31.2, "season_minutes": 1020},
  {"id": "p2", "name": "Saka", "team": "ARS", "position": "mid", "price": 10.0,
   "expected_goals_against_team": 0.8}]}`

func TestCodec_Decode(t *testing.T) {
	Convey("Given a codec", t, func() {
		codec := snapshot.NewCodec()
		ctx := context.Background()

		Convey("When decoding a valid document", func() {
			snap, err := codec.Decode(ctx, strings.NewReader(validDocument))

			Convey("Then every field reaches the model", func() {
				So(err, ShouldBeNil)
				So(snap.Gameweek(), ShouldEqual, 12)
				So(snap.Len(), ShouldEqual, 2)

				p, ok := snap.Player("p1")
				So(ok, ShouldBeTrue)
				So(p.Position, ShouldEqual, model.PositionDefender)
				So(p.Price.String(), ShouldEqual, "6")
				So(p.MinutesHistory, ShouldResemble, []int{90, 90, 90, 90})
				So(p.FixtureOpponentStrengths, ShouldResemble, []float64{2, 3, 4})
				So(p.SeasonMinutes, ShouldEqual, 1020)

				mid, ok := snap.Player("p2")
				So(ok, ShouldBeTrue)
				So(mid.Position, ShouldEqual, model.PositionMidfielder)

				team, ok := snap.Team("ARS")
				So(ok, ShouldBeTrue)
				So(team.AttackStrength, ShouldEqual, 1.9)
			})
		})

		Convey("When the JSON is malformed", func() {
			_, err := codec.Decode(ctx, strings.NewReader(`{"gameweek": `))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When a player has no name", func() {
			_, err := codec.Decode(ctx, strings.NewReader(`{"gameweek": 1, "players": [{"id": "p1", "team": "ARS", "position": "FWD", "price": "5"}]}`))
			So(errors.Is(err, model.ErrDataIntegrity), ShouldBeTrue)
			So(errors.Is(err, model.ErrValidation), ShouldBeFalse)
		})

		Convey("When a player has no id", func() {
			_, err := codec.Decode(ctx, strings.NewReader(`{"gameweek": 1, "players": [{"name": "A", "team": "ARS", "position": "FWD", "price": "5"}]}`))
			So(errors.Is(err, model.ErrDataIntegrity), ShouldBeTrue)
			So(errors.Is(err, model.ErrValidation), ShouldBeFalse)
		})

		Convey("When a team entry has no name", func() {
			_, err := codec.Decode(ctx, strings.NewReader(`{"gameweek": 1, "teams": [{"attack_strength": 1}], "players": [{"id": "p1", "name": "A", "team": "ARS", "position": "FWD", "price": "5"}]}`))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When the position is unknown", func() {
			_, err := codec.Decode(ctx, strings.NewReader(`{"gameweek": 1, "players": [{"id": "p1", "name": "A", "team": "ARS", "position": "WB", "price": "5"}]}`))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When the players list is absent", func() {
			_, err := codec.Decode(ctx, strings.NewReader(`{"gameweek": 1}`))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When the document is well-formed but inconsistent", func() {
			doc := `{"gameweek": 1, "players": [
				{"id": "p1", "name": "A", "team": "ARS", "position": "FWD", "price": "5", "expected_goals_against_team": 1},
				{"id": "p2", "name": "B", "team": "ARS", "position": "FWD", "price": "5", "expected_goals_against_team": 2}]}`
			_, err := codec.Decode(ctx, strings.NewReader(doc))
			So(errors.Is(err, model.ErrDataIntegrity), ShouldBeTrue)
			So(errors.Is(err, model.ErrValidation), ShouldBeFalse)
		})

		Convey("When custom limits are stricter than the document", func() {
			strict := snapshot.NewCodec(snapshot.WithLimits(model.Limits{FixtureLookback: 2, MinutesLookback: 4}))
			_, err := strict.Decode(ctx, strings.NewReader(validDocument))
			So(errors.Is(err, model.ErrDataIntegrity), ShouldBeTrue)
		})
	})
}

func TestCodec_RoundTripAndFiles(t *testing.T) {
	Convey("Given a decoded snapshot", t, func() {
		codec := snapshot.NewCodec()
		ctx := context.Background()
		snap, err := codec.Decode(ctx, strings.NewReader(validDocument))
		So(err, ShouldBeNil)

		Convey("When it is encoded and written to disk", func() {
			var buf bytes.Buffer
			So(codec.Encode(&buf, snapshot.FromSnapshot(snap)), ShouldBeNil)

			path := filepath.Join(t.TempDir(), "snapshot.json")
			So(os.WriteFile(path, buf.Bytes(), 0o600), ShouldBeNil)

			Convey("Then loading the file yields the same pool", func() {
				loaded, err := codec.LoadFile(ctx, path)
				So(err, ShouldBeNil)
				So(loaded.Gameweek(), ShouldEqual, snap.Gameweek())
				So(loaded.Teams(), ShouldResemble, snap.Teams())
				So(loaded.Len(), ShouldEqual, snap.Len())
				for _, want := range snap.Players() {
					got, ok := loaded.Player(want.ID)
					So(ok, ShouldBeTrue)
					So(got.Price.Equal(want.Price), ShouldBeTrue)
					So(got.MinutesHistory, ShouldResemble, want.MinutesHistory)
					So(got.Form, ShouldEqual, want.Form)
					So(got.Position, ShouldEqual, want.Position)
				}
			})
		})

		Convey("When the file does not exist", func() {
			_, err := codec.LoadFile(ctx, filepath.Join(t.TempDir(), "missing.json"))
			So(err, ShouldNotBeNil)
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}
