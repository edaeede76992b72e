package clustering

import "math"

// ThresholdFunc maps the number of ideas already present in a discussion
// to the minimum cosine similarity required to join an existing topic.
// The curve is a runtime tunable, never a hard-coded constant: small
// discussions group loosely, large ones tighten so topics stay useful.
type ThresholdFunc func(ideaCount int) float64

// NewLogThreshold builds the default monotonic curve
//
//	min(max, base + slope*ln(1+n))
func NewLogThreshold(base, slope, max float64) ThresholdFunc {
	return func(ideaCount int) float64 {
		if ideaCount < 0 {
			ideaCount = 0
		}
		t := base + slope*math.Log1p(float64(ideaCount))
		if t > max {
			return max
		}
		return t
	}
}
