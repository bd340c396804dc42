package leaderboard

import "math"

// z for a two-sided 95% confidence interval.
const z95 = 1.96

// WilsonScore returns the lower bound of the Wilson score interval for the
// share of positive votes. Photos without votes score 0.
func WilsonScore(up, down int) float64 {
	if up < 0 {
		up = 0
	}
	if down < 0 {
		down = 0
	}
	n := float64(up + down)
	if n == 0 {
		return 0
	}
	p := float64(up) / n
	z2 := z95 * z95
	centre := p + z2/(2*n)
	spread := z95 * math.Sqrt((p*(1-p)+z2/(4*n))/n)
	return (centre - spread) / (1 + z2/n)
}
