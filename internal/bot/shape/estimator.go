// Package shape scores hand shapes: distance to tenpai and the draws that
// improve it. Two estimators share one interface, a fast heuristic for the
// inner lookahead loop and an exact searcher for final checks.
package shape

import "janshi/internal/domain"

// Hand34 is a tile histogram over the dense 34-tile index.
type Hand34 [34]uint8

// FromTiles tallies a hand, folding red fives into their plain bucket.
func FromTiles(tiles []domain.Tile) Hand34 {
	var h Hand34
	for _, t := range tiles {
		h[t.Index34()]++
	}
	return h
}

// Total returns the number of tiles in the histogram.
func (h Hand34) Total() int {
	n := 0
	for _, c := range h {
		n += int(c)
	}
	return n
}

// Estimator scores a concealed hand with fixedMelds open sets beside it.
type Estimator interface {
	// Shanten returns the distance to tenpai: 0 is tenpai, exact
	// implementations return -1 for a complete hand. The heuristic
	// returns a coarse 0..3 scale instead.
	Shanten(h Hand34, fixedMelds int) int
	// Improvers lists the 34-indexes whose draw advances the hand.
	Improvers(h Hand34, fixedMelds int) []int
}

func isNumberIndex(i int) bool { return i < 27 }

func suitOfIndex(i int) int {
	if i >= 27 {
		return -1
	}
	return i / 9
}
