// Package fatigue scores content for creative fatigue: declining
// performance relative to the content's own history.
package fatigue

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/sociometry/pulse/internal/domain/model"
)

// Scoring policy constants. The trend adjustment, volatility multiplier and
// the 7-point window split are tuned heuristics, not derived values; change
// them only together with the product side.
const (
	stableSlopeEpsilon   = 0.1
	windowPoints         = 7
	decliningAdjustment  = 20.0
	improvingAdjustment  = -20.0
	volatilityMultiplier = 10.0
	maxScore             = 100.0

	// Confidence weighting.
	fullConfidencePoints = 30.0
	confidenceHalfScale  = 50.0
)

// TrendOf classifies the slope of a simple index-position linear
// regression over the series. Points are assumed uniformly spaced.
func TrendOf(series []float64) model.Trend {
	slope := regressionSlope(series)
	switch {
	case math.Abs(slope) < stableSlopeEpsilon:
		return model.TrendStable
	case slope > 0:
		return model.TrendImproving
	default:
		return model.TrendDeclining
	}
}

// regressionSlope fits value against index position and returns the
// coefficient. Series shorter than two points have no slope.
func regressionSlope(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	coords := make(stats.Series, len(series))
	for i, v := range series {
		coords[i] = stats.Coordinate{X: float64(i), Y: v}
	}
	fitted, err := stats.LinearRegression(coords)
	if err != nil || len(fitted) < 2 {
		return 0
	}
	first, last := fitted[0], fitted[len(fitted)-1]
	if last.X == first.X {
		return 0
	}
	return (last.Y - first.Y) / (last.X - first.X)
}

// Score computes the 0-100 fatigue score for a series given its trend:
// the percentage decline of the recent window against the oldest window,
// adjusted for trend direction and volatility.
func Score(series []float64, trend model.Trend) float64 {
	base := clamp(declinePercent(series), 0, maxScore)

	switch trend {
	case model.TrendDeclining:
		base += decliningAdjustment
	case model.TrendImproving:
		base += improvingAdjustment
	}

	base += Volatility(series) * volatilityMultiplier

	return clamp(base, 0, maxScore)
}

// declinePercent compares the average of the earliest window points with
// the average of the most recent ones. A non-positive older average means
// no decline can be stated.
func declinePercent(series []float64) float64 {
	if len(series) < windowPoints {
		return 0
	}
	older := mean(series[:windowPoints])
	recent := mean(series[len(series)-windowPoints:])
	if older <= 0 {
		return 0
	}
	return (older - recent) / older * 100
}

// Volatility is the coefficient of variation of the series, 0 when the
// mean is 0.
func Volatility(series []float64) float64 {
	avg := mean(series)
	if avg == 0 {
		return 0
	}
	stddev, err := stats.StandardDeviationSample(series)
	if err != nil {
		return 0
	}
	return stddev / avg
}

// Confidence estimates how trustworthy a trend classification is: more
// data points and a steadier series both raise it. The result is in
// [0, 100] and is reported to callers, never stored on the record.
func Confidence(series []float64) float64 {
	dataPoints := math.Min(float64(len(series))/fullConfidencePoints, 1) * confidenceHalfScale
	consistency := math.Max(0, confidenceHalfScale-Volatility(series)*confidenceHalfScale)
	return dataPoints + consistency
}

// RecommendationFor maps a score and trend onto the action ladder.
func RecommendationFor(score float64, trend model.Trend, threshold float64) model.Recommendation {
	switch {
	case score >= threshold+decliningAdjustment:
		return model.RecommendRetire
	case score >= threshold:
		return model.RecommendRefresh
	case trend == model.TrendDeclining && score >= threshold-decliningAdjustment:
		return model.RecommendBoost
	default:
		return model.RecommendContinue
	}
}

func mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
