package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// ZVal returns the two-tailed Z-value associated with a specific confidence interval.
// The interval is a number from 0 to 100 percent.
func ZVal(confidenceInterval float64) float64 {
	area := (1 + (confidenceInterval / 100)) / 2
	return stdNormal.Quantile(area)
}

// Significant tells whether a Tally's score differs from an even match at
// the given confidence, using a two-tailed z-test against p = 0.5.
func Significant(t *Tally, confidenceInterval float64) bool {
	g := t.Games()
	if g == 0 {
		return false
	}
	z := (t.Score() - 0.5) / math.Sqrt(0.25/float64(g))
	return math.Abs(z) > ZVal(confidenceInterval)
}
