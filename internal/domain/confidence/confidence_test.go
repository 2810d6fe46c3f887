package confidence_test

import (
	"testing"

	confidence "github.com/herolab/herorank/internal/domain/confidence"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEstimator_Score(t *testing.T) {
	Convey("Given an estimator with default configuration", t, func() {
		est := confidence.New()

		Convey("When there are no games", func() {
			Convey("Then the score should be exactly zero", func() {
				So(est.Score(0, 0), ShouldEqual, 0)
			})
		})

		Convey("When the game count is negative", func() {
			Convey("Then the score should still be zero", func() {
				So(est.Score(0, -3), ShouldEqual, 0)
			})
		})

		Convey("When a hero has a perfect record on a small sample", func() {
			small := est.Score(10, 10)
			large := est.Score(100, 100)

			Convey("Then the small sample should be penalized harder", func() {
				So(small, ShouldBeLessThan, large)
				So(small, ShouldBeLessThan, 1.0)
			})
		})

		Convey("When a large mixed record competes with a small perfect one", func() {
			perfect := est.Score(10, 10)
			mixed := est.Score(95, 100)

			Convey("Then the larger sample should score higher", func() {
				So(mixed, ShouldBeGreaterThan, perfect)
			})
		})

		Convey("When games accumulate at a fixed win rate", func() {
			Convey("Then the score should approach the raw rate from below", func() {
				prev := est.Score(5, 10)
				for _, n := range []int{20, 50, 100, 1000} {
					cur := est.Score(n/2, n)
					So(cur, ShouldBeGreaterThan, prev)
					So(cur, ShouldBeLessThan, 0.5)
					prev = cur
				}
			})
		})

		Convey("When scoring arbitrary records", func() {
			cases := [][2]int{{0, 5}, {1, 3}, {7, 9}, {50, 100}, {99, 100}}

			Convey("Then the score should stay inside the unit interval", func() {
				for _, c := range cases {
					s := est.Score(c[0], c[1])
					So(s, ShouldBeGreaterThanOrEqualTo, 0)
					So(s, ShouldBeLessThanOrEqualTo, 1)
				}
			})
		})
	})
}

func TestEstimator_ScoreInterval(t *testing.T) {
	Convey("Given an estimator with default configuration", t, func() {
		est := confidence.New()

		Convey("When there are no games", func() {
			iv := est.ScoreInterval(0, 0)

			Convey("Then both bounds should be zero", func() {
				So(iv.Lower, ShouldEqual, 0)
				So(iv.Upper, ShouldEqual, 0)
			})
		})

		Convey("When a hero has a mixed record", func() {
			iv := est.ScoreInterval(30, 50)
			p := 30.0 / 50.0

			Convey("Then the interval should bracket the raw win rate", func() {
				So(iv.Lower, ShouldBeLessThan, p)
				So(iv.Upper, ShouldBeGreaterThan, p)
			})

			Convey("And the interval should stay inside the unit range", func() {
				So(iv.Lower, ShouldBeGreaterThanOrEqualTo, 0)
				So(iv.Upper, ShouldBeLessThanOrEqualTo, 1)
			})
		})

		Convey("When the record is perfect", func() {
			iv := est.ScoreInterval(20, 20)

			Convey("Then the upper bound should be clamped to one", func() {
				So(iv.Upper, ShouldEqual, 1)
				So(iv.Lower, ShouldBeLessThan, 1)
			})
		})

		Convey("When the record is winless", func() {
			iv := est.ScoreInterval(0, 20)

			Convey("Then the lower bound should be clamped to zero", func() {
				So(iv.Lower, ShouldEqual, 0)
				So(iv.Upper, ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given estimators at different confidence levels", t, func() {
		loose := confidence.New(confidence.WithConfidenceLevel(0.80))
		strict := confidence.New(confidence.WithConfidenceLevel(0.99))

		Convey("When scoring the same record", func() {
			looseIv := loose.ScoreInterval(60, 100)
			strictIv := strict.ScoreInterval(60, 100)

			Convey("Then the stricter level should produce a wider interval", func() {
				So(strictIv.Lower, ShouldBeLessThan, looseIv.Lower)
				So(strictIv.Upper, ShouldBeGreaterThan, looseIv.Upper)
			})
		})
	})
}

func TestEstimator_LevelFor(t *testing.T) {
	Convey("Given an estimator with default thresholds", t, func() {
		est := confidence.New()

		Convey("Then game counts should map to the expected buckets", func() {
			So(est.LevelFor(0), ShouldEqual, confidence.Low)
			So(est.LevelFor(9), ShouldEqual, confidence.Low)
			So(est.LevelFor(10), ShouldEqual, confidence.Medium)
			So(est.LevelFor(29), ShouldEqual, confidence.Medium)
			So(est.LevelFor(30), ShouldEqual, confidence.High)
			So(est.LevelFor(500), ShouldEqual, confidence.High)
		})
	})

	Convey("Given custom thresholds", t, func() {
		est := confidence.New(confidence.WithLevelThresholds(100, 50))

		Convey("Then the boundaries should move with the configuration", func() {
			So(est.LevelFor(49), ShouldEqual, confidence.Low)
			So(est.LevelFor(50), ShouldEqual, confidence.Medium)
			So(est.LevelFor(100), ShouldEqual, confidence.High)
		})
	})

	Convey("Given inverted thresholds", t, func() {
		est := confidence.New(confidence.WithLevelThresholds(5, 50))

		Convey("Then the defaults should be kept", func() {
			So(est.LevelFor(10), ShouldEqual, confidence.Medium)
			So(est.LevelFor(30), ShouldEqual, confidence.High)
		})
	})
}
