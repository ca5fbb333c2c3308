package fixture_test

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/xpts/internal/domain/fixture"
)

func TestAdjuster(t *testing.T) {
	Convey("Given a default adjuster", t, func() {
		a := fixture.New()

		Convey("An empty fixture list is neutral", func() {
			So(a.Adjust(nil), ShouldEqual, fixture.DefaultNeutral)
			So(a.Multiplier(a.Adjust(nil)), ShouldEqual, 1.0)
		})

		Convey("A single fixture is its own difficulty", func() {
			So(a.Adjust([]float64{4.5}), ShouldEqual, 4.5)
		})

		Convey("The difficulty is the mean of the window", func() {
			So(a.Adjust([]float64{2, 3, 4}), ShouldAlmostEqual, 3.0)
			So(a.Adjust([]float64{1, 1, 1, 1, 1, 5, 5}), ShouldAlmostEqual, 1.0)
		})

		Convey("Non-finite strengths count as neutral", func() {
			So(a.Adjust([]float64{math.NaN(), 5}), ShouldAlmostEqual, 4.0)
		})

		Convey("Easier fixtures raise the multiplier and harder ones lower it", func() {
			So(a.Multiplier(2), ShouldAlmostEqual, 1.1)
			So(a.Multiplier(4), ShouldAlmostEqual, 0.9)
			So(a.Multiplier(-100), ShouldEqual, fixture.DefaultMaxMultiplier)
			So(a.Multiplier(100), ShouldEqual, fixture.DefaultMinMultiplier)
			So(a.Multiplier(math.NaN()), ShouldEqual, 1.0)
		})
	})

	Convey("Given custom options", t, func() {
		a := fixture.New(fixture.WithNeutral(2.5), fixture.WithLookback(2), fixture.WithMultiplier(0.2, 0.8, 1.2))

		So(a.Neutral(), ShouldEqual, 2.5)
		So(a.Adjust(nil), ShouldEqual, 2.5)
		So(a.Adjust([]float64{1, 3, 5}), ShouldAlmostEqual, 2.0)
		So(a.Multiplier(0), ShouldEqual, 1.2)
		So(a.Multiplier(3.5), ShouldAlmostEqual, 0.8)
	})

	Convey("Invalid options keep the defaults", t, func() {
		a := fixture.New(fixture.WithNeutral(-1), fixture.WithLookback(0), fixture.WithMultiplier(-1, 2, 1))
		So(a.Neutral(), ShouldEqual, fixture.DefaultNeutral)
		So(a.Adjust([]float64{1, 1, 1, 1, 1, 6}), ShouldAlmostEqual, 1.0)
		So(a.Multiplier(2), ShouldAlmostEqual, 1.1)
	})
}
