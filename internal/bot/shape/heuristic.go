package shape

// Heuristic is a cheap block-counting estimator. It scans each suit once,
// greedily pairing adjacent tiles into sequences and pairs, and maps the
// block score onto a coarse 0..3 shanten scale. Good enough to rank
// candidate discards inside the lookahead, where the exact searcher would
// be called thousands of times per turn.
type Heuristic struct{}

var _ Estimator = Heuristic{}

// Shanten maps the greedy block score to 0 (tenpai-ish) through 3. An open
// meld weighs 1.5 blocks, what its three tiles would score in hand.
func (Heuristic) Shanten(h Hand34, fixedMelds int) int {
	seq := 1.5 * float64(fixedMelds)
	pair := 0.0

	for suit := 0; suit < 3; suit++ {
		base := suit * 9
		var ranks []int
		for r := 0; r < 9; r++ {
			for c := uint8(0); c < h[base+r]; c++ {
				ranks = append(ranks, r)
			}
		}
		for i := 0; i < len(ranks); {
			if i+1 < len(ranks) {
				d := ranks[i+1] - ranks[i]
				if d == 0 {
					pair++
					i += 2
					continue
				}
				if d <= 2 {
					seq++
					i += 2
					continue
				}
			}
			i++
		}
	}
	for i := 27; i < 34; i++ {
		pair += float64(h[i] / 2)
	}

	score := seq + 0.8*pair
	switch {
	case score >= 6:
		return 0
	case score >= 4:
		return 1
	case score >= 2:
		return 2
	default:
		return 3
	}
}

// Improvers returns draws adjacent to what the hand already holds: the
// held tiles themselves (pair and triplet growth) plus numeral neighbors
// within two ranks (sequence growth). Buckets already holding four copies
// are skipped.
func (Heuristic) Improvers(h Hand34, fixedMelds int) []int {
	var mark [34]bool
	for i := 0; i < 34; i++ {
		if h[i] == 0 {
			continue
		}
		mark[i] = true
		if !isNumberIndex(i) {
			continue
		}
		for _, d := range []int{-2, -1, 1, 2} {
			j := i + d
			if j >= 0 && j < 34 && suitOfIndex(j) == suitOfIndex(i) {
				mark[j] = true
			}
		}
	}
	var out []int
	for i := 0; i < 34; i++ {
		if mark[i] && h[i] < 4 {
			out = append(out, i)
		}
	}
	return out
}
