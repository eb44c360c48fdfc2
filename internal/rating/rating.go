package rating

import "math"

// Baseline is the rating every player starts with and is reset to when a
// season closes.
const Baseline = 1500

// ShutoutBonus is added to the winners' gain when the losing team scored
// zero goals. It never increases the losers' loss.
const ShutoutBonus = 5

// ComputeDelta calculates the symmetric rating deltas for a finished match
// from the two teams' average ratings.
//
// The dynamic part is round(10 + (avgLoser-avgWinner)/40), clamped to [1, 20],
// so an upset (loser rated higher) moves more points. Rounding is half away
// from zero (math.Round). Winners gain winDelta, losers lose loseDelta.
func ComputeDelta(avgWinner, avgLoser float64, shutout bool) (winDelta, loseDelta int) {
	diff := avgLoser - avgWinner
	dynamic := int(math.Round(10 + diff/40))
	if dynamic < 1 {
		dynamic = 1
	}
	if dynamic > 20 {
		dynamic = 20
	}
	winDelta = dynamic
	if shutout {
		winDelta += ShutoutBonus
	}
	return winDelta, dynamic
}

// TeamAverage returns the average rating of a two-player team.
func TeamAverage(a, b int) float64 {
	return float64(a+b) / 2
}
