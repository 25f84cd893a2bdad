package fatigue_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/sociometry/pulse/internal/domain/fatigue"
	"github.com/sociometry/pulse/internal/domain/model"
)

func flatSeries(value float64, n int) []float64 {
	series := make([]float64, n)
	for i := range series {
		series[i] = value
	}
	return series
}

func stepSeries(older, recent float64) []float64 {
	series := make([]float64, 0, 14)
	for i := 0; i < 7; i++ {
		series = append(series, older)
	}
	for i := 0; i < 7; i++ {
		series = append(series, recent)
	}
	return series
}

func TestTrendOf(t *testing.T) {
	Convey("Given performance series of various shapes", t, func() {
		Convey("When the series is flat", func() {
			trend := fatigue.TrendOf(flatSeries(100, 14))

			Convey("Then the trend is stable", func() {
				So(trend, ShouldEqual, model.TrendStable)
			})
		})

		Convey("When the slope is below the stability epsilon", func() {
			series := make([]float64, 14)
			for i := range series {
				series[i] = 100 + float64(i)*0.05
			}

			Convey("Then tiny drift still counts as stable", func() {
				So(fatigue.TrendOf(series), ShouldEqual, model.TrendStable)
			})
		})

		Convey("When the series rises steadily", func() {
			series := make([]float64, 14)
			for i := range series {
				series[i] = 100 + float64(i)*2
			}

			Convey("Then the trend is improving", func() {
				So(fatigue.TrendOf(series), ShouldEqual, model.TrendImproving)
			})
		})

		Convey("When the series falls steadily", func() {
			series := make([]float64, 14)
			for i := range series {
				series[i] = 100 - float64(i)*2
			}

			Convey("Then the trend is declining", func() {
				So(fatigue.TrendOf(series), ShouldEqual, model.TrendDeclining)
			})
		})
	})
}

func TestScore(t *testing.T) {
	Convey("Given a flat healthy series", t, func() {
		series := flatSeries(100, 14)

		Convey("When scoring", func() {
			score := fatigue.Score(series, model.TrendStable)

			Convey("Then the score is zero", func() {
				So(score, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a sharp drop from 200 to 50", t, func() {
		series := stepSeries(200, 50)

		Convey("When scoring with the declining trend", func() {
			score := fatigue.Score(series, model.TrendDeclining)

			Convey("Then the 75 percent decline plus adjustments clamp at 100", func() {
				So(score, ShouldEqual, 100)
			})
		})
	})

	Convey("Given an improving series", t, func() {
		series := stepSeries(50, 200)

		Convey("When scoring with the improving trend", func() {
			score := fatigue.Score(series, model.TrendImproving)

			Convey("Then the score floors at zero", func() {
				So(score, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a moderate decline without volatility", t, func() {
		// 25 percent decline, two perfectly flat windows
		series := stepSeries(100, 75)

		Convey("When scoring with a stable trend", func() {
			score := fatigue.Score(series, model.TrendStable)

			Convey("Then the score is the decline plus the volatility term", func() {
				So(score, ShouldBeGreaterThan, 25)
				So(score, ShouldBeLessThan, 30)
			})
		})
	})
}

func TestVolatility(t *testing.T) {
	Convey("Given a constant series", t, func() {
		So(fatigue.Volatility(flatSeries(42, 10)), ShouldEqual, 0)
	})

	Convey("Given an all-zero series", t, func() {
		Convey("Then a zero mean yields zero, not a division by zero", func() {
			So(fatigue.Volatility(flatSeries(0, 10)), ShouldEqual, 0)
		})
	})

	Convey("Given a noisy series", t, func() {
		So(fatigue.Volatility([]float64{50, 150, 50, 150}), ShouldBeGreaterThan, 0)
	})
}

func TestConfidence(t *testing.T) {
	Convey("Given a long steady series", t, func() {
		confidence := fatigue.Confidence(flatSeries(100, 30))

		Convey("Then confidence is maximal", func() {
			So(confidence, ShouldEqual, 100)
		})
	})

	Convey("Given a short steady series", t, func() {
		confidence := fatigue.Confidence(flatSeries(100, 15))

		Convey("Then the data-points half is proportional to length", func() {
			So(confidence, ShouldEqual, 75)
		})
	})

	Convey("Given an extremely volatile series", t, func() {
		confidence := fatigue.Confidence([]float64{1, 1000, 1, 1000, 1, 1000, 1})

		Convey("Then the consistency half bottoms out at zero", func() {
			So(confidence, ShouldBeLessThanOrEqualTo, float64(7)/30*50+0.0001)
		})
	})
}

func TestRecommendationFor(t *testing.T) {
	const threshold = 70.0

	Convey("Given the recommendation ladder at threshold 70", t, func() {
		Convey("When the score reaches threshold plus twenty", func() {
			So(fatigue.RecommendationFor(95, model.TrendDeclining, threshold), ShouldEqual, model.RecommendRetire)
			So(fatigue.RecommendationFor(90, model.TrendStable, threshold), ShouldEqual, model.RecommendRetire)
		})

		Convey("When the score reaches the threshold", func() {
			So(fatigue.RecommendationFor(75, model.TrendStable, threshold), ShouldEqual, model.RecommendRefresh)
			So(fatigue.RecommendationFor(70, model.TrendImproving, threshold), ShouldEqual, model.RecommendRefresh)
		})

		Convey("When a declining series sits just under the threshold", func() {
			So(fatigue.RecommendationFor(60, model.TrendDeclining, threshold), ShouldEqual, model.RecommendBoost)
			So(fatigue.RecommendationFor(50, model.TrendDeclining, threshold), ShouldEqual, model.RecommendBoost)
		})

		Convey("When nothing is wrong", func() {
			So(fatigue.RecommendationFor(60, model.TrendStable, threshold), ShouldEqual, model.RecommendContinue)
			So(fatigue.RecommendationFor(49, model.TrendDeclining, threshold), ShouldEqual, model.RecommendContinue)
			So(fatigue.RecommendationFor(0, model.TrendImproving, threshold), ShouldEqual, model.RecommendContinue)
		})
	})
}
