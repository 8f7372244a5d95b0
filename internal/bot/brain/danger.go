package brain

import (
	"janshi/internal/config"
	"janshi/internal/domain"
)

// Level buckets a danger value for logging and the fold selector.
type Level uint8

const (
	LevelZero Level = iota
	LevelLow
	LevelMid
	LevelHigh
	LevelVeryHigh
)

func (l Level) String() string {
	switch l {
	case LevelZero:
		return "zero"
	case LevelLow:
		return "low"
	case LevelMid:
		return "mid"
	case LevelHigh:
		return "high"
	default:
		return "vhigh"
	}
}

// BucketDanger maps a danger value onto its level.
func BucketDanger(v float64) Level {
	switch {
	case v <= 0.1:
		return LevelZero
	case v <= 0.35:
		return LevelLow
	case v <= 0.7:
		return LevelMid
	case v <= 1.1:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}

// RiverTile is one discard in a pond. Tsumogiri marks a drawn-and-dropped
// tile; hand cuts are the reads that matter.
type RiverTile struct {
	Tile      domain.Tile
	Tsumogiri bool
}

// TableView is the slice of tracker state the danger estimator reads.
// Seats index all arrays; absent seats stay empty.
type TableView struct {
	Me             int
	Hand           []domain.Tile
	Rivers         [4][]RiverTile
	Riichi         [4]bool
	RiichiTurn     [4]int // discard count when declared, -1 otherwise
	Dealer         int
	DoraIndicators []domain.Tile
	LiveWall       int
	RedSeen        [3]bool
}

func (v *TableView) riichiCount() int {
	n := 0
	for seat, r := range v.Riichi {
		if r && seat != v.Me {
			n++
		}
	}
	return n
}

// Danger estimates how likely a discard is to deal in. Values are
// dimensionless weights in [0, 1.8]; a tile an opponent already discarded
// themselves is exactly 0 against them.
type Danger struct {
	cfg config.Danger
}

func NewDanger(cfg config.Danger) *Danger {
	return &Danger{cfg: cfg}
}

// Suji partners that must all be in the pond for the middle read to hold.
// A 5 needs both ends.
var sujiPartners = map[uint8][]uint8{
	1: {4}, 2: {5}, 3: {6}, 4: {7}, 5: {2, 8}, 6: {3}, 7: {4}, 8: {5}, 9: {6},
}

// Urasuji partner whose presence makes the tile a touch more dangerous.
var urasujiPartner = map[uint8]uint8{
	1: 4, 2: 5, 3: 6, 4: 7, 5: 8, 6: 3, 7: 4, 8: 5, 9: 6,
}

// Against scores tile against one opponent, clamped to [0, 1.6].
func (d *Danger) Against(v *TableView, tile domain.Tile, opp int) float64 {
	if d.isGenbutsu(v, tile, opp) {
		return 0
	}
	visible := d.visibleCounts(v)
	endgame := v.LiveWall <= 14

	danger := 1.0
	if !tile.IsHonor() {
		r := tile.Rank
		switch {
		case d.sujiOn(v, tile, opp):
			danger -= 0.35 * min(d.sequenceConfidence(v, opp), 1.3)
		case d.urasujiOn(v, tile, opp):
			danger += 0.15
		}
		danger -= kabeBonus(r, suitCounts(visible, tile.Suit), endgame)
		danger -= noChanceBonus(r, suitCounts(visible, tile.Suit), endgame)
		danger += d.redPressure(v, tile)
		danger += doraPressure(tile, v.DoraIndicators)
	}
	if opp == v.Dealer && v.Riichi[opp] && v.RiichiTurn[opp] >= 0 &&
		v.RiichiTurn[opp] <= d.cfg.EarlyDealerRiichiTurn {
		danger += d.cfg.EarlyDealerRiichiAdd
	}
	return clamp(danger, 0, 1.6)
}

// Aggregate scores tile against the whole table, clamped to [0, 1.8].
// With no riichi out it degrades to a wall-and-dora pressure estimate.
func (d *Danger) Aggregate(v *TableView, tile domain.Tile) float64 {
	visible := d.visibleCounts(v)
	endgame := v.LiveWall <= 14

	if v.riichiCount() == 0 {
		danger := 0.7
		if !tile.IsHonor() {
			danger -= kabeBonus(tile.Rank, suitCounts(visible, tile.Suit), endgame)
		}
		if danger < 0 {
			danger = 0
		}
		danger += 0.5 * doraPressure(tile, v.DoraIndicators)
		danger += 0.5 * d.redPressure(v, tile)
		return clamp(danger, 0, 1.2)
	}

	worst := 0.0
	for seat := range v.Riichi {
		if seat == v.Me || !v.Riichi[seat] {
			continue
		}
		if a := d.Against(v, tile, seat); a > worst {
			worst = a
		}
	}
	if worst == 0 {
		// Genbutsu against every declared hand stays exactly zero.
		return 0
	}
	if v.riichiCount() >= 2 {
		worst += 0.15
	}
	if v.LiveWall <= 18 {
		worst += 0.15
	}
	worst -= d.honorSafety(v, tile, visible, endgame)
	return clamp(worst, 0, 1.8)
}

func (d *Danger) isGenbutsu(v *TableView, tile domain.Tile, opp int) bool {
	norm := tile.Normalize()
	for _, rt := range v.Rivers[opp] {
		if rt.Tile.Normalize() == norm {
			return true
		}
	}
	return false
}

// visibleCounts tallies every pond plus the own hand.
func (d *Danger) visibleCounts(v *TableView) [34]uint8 {
	var counts [34]uint8
	for seat := range v.Rivers {
		for _, rt := range v.Rivers[seat] {
			counts[rt.Tile.Index34()]++
		}
	}
	for _, t := range v.Hand {
		counts[t.Index34()]++
	}
	return counts
}

// handCuts returns the ranks an opponent cut from hand in the given suit.
func handCuts(v *TableView, opp int, suit domain.Suit) []uint8 {
	var out []uint8
	for _, rt := range v.Rivers[opp] {
		if !rt.Tsumogiri && rt.Tile.Suit == suit {
			out = append(out, rt.Tile.Rank)
		}
	}
	return out
}

func (d *Danger) sujiOn(v *TableView, tile domain.Tile, opp int) bool {
	partners := sujiPartners[tile.Rank]
	cuts := handCuts(v, opp, tile.Suit)
	for _, p := range partners {
		found := false
		for _, c := range cuts {
			if c == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return len(partners) > 0
}

func (d *Danger) urasujiOn(v *TableView, tile domain.Tile, opp int) bool {
	partner := urasujiPartner[tile.Rank]
	for _, c := range handCuts(v, opp, tile.Suit) {
		if c == partner {
			return true
		}
	}
	return false
}

// sequenceConfidence reads the opponent's last three hand cuts: adjacent
// ranks in one suit suggest a finished shape and strengthen suji trust.
func (d *Danger) sequenceConfidence(v *TableView, opp int) float64 {
	var recent []domain.Tile
	for i := len(v.Rivers[opp]) - 1; i >= 0 && len(recent) < 3; i-- {
		if !v.Rivers[opp][i].Tsumogiri {
			recent = append(recent, v.Rivers[opp][i].Tile)
		}
	}
	bumps := 0
	for s := domain.Man; s <= domain.Sou; s++ {
		var ranks []int
		for _, t := range recent {
			if t.Suit == s {
				ranks = append(ranks, int(t.Rank))
			}
		}
		for i := 0; i+1 < len(ranks); i++ {
			gap := ranks[i] - ranks[i+1]
			if gap < 0 {
				gap = -gap
			}
			if gap <= 1 {
				bumps++
			}
		}
	}
	switch {
	case bumps >= 2:
		return 1.25
	case bumps == 1:
		return 1.15
	default:
		return 1.0
	}
}

func suitCounts(visible [34]uint8, suit domain.Suit) [10]uint8 {
	var v [10]uint8
	if suit == domain.Honor {
		return v
	}
	base := int(suit) * 9
	for r := 1; r <= 9; r++ {
		v[r] = visible[base+r-1]
	}
	return v
}

// kabeBonus discounts tiles walled off by four visible copies of a
// neighbor.
func kabeBonus(r uint8, v [10]uint8, endgame bool) float64 {
	bonus := 0.0
	if r == 2 && v[1] >= 4 {
		bonus += 0.25
	}
	if r == 8 && v[9] >= 4 {
		bonus += 0.25
	}
	for n := 2; n <= 8; n++ {
		if v[n] < 4 {
			continue
		}
		diff := int(r) - n
		if diff == 1 || diff == -1 {
			bonus += 0.15
		}
	}
	if endgame {
		bonus *= 1.3
	}
	return bonus
}

// noChanceBonus discounts edge tiles whose feeding shapes are nearly dead.
func noChanceBonus(r uint8, v [10]uint8, endgame bool) float64 {
	bonus := 0.0
	if r == 2 && v[1] >= 4 && v[3]+v[4] >= 3 {
		bonus += 0.08
	}
	if r == 8 && v[9] >= 4 && v[6]+v[7] >= 3 {
		bonus += 0.08
	}
	if endgame {
		bonus *= 1.5
	}
	return bonus
}

func (d *Danger) redPressure(v *TableView, tile domain.Tile) float64 {
	if tile.Red {
		return 0.20
	}
	if tile.Suit != domain.Honor && tile.Rank >= 4 && tile.Rank <= 6 && !v.RedSeen[tile.Suit] {
		return 0.05
	}
	return 0
}

// doraPressure raises tiles on or beside a live dora; a tile straddled by
// two doras is worth even more.
func doraPressure(tile domain.Tile, indicators []domain.Tile) float64 {
	pressure := 0.0
	straddleLo, straddleHi := false, false
	for _, ind := range indicators {
		dora := ind.NextDora()
		if tile.IsHonor() || dora.Suit == domain.Honor {
			if dora.Suit == tile.Suit && dora.Rank == tile.Rank && pressure < 0.10 {
				pressure = 0.10
			}
			continue
		}
		if dora.Suit != tile.Suit {
			continue
		}
		diff := int(tile.Rank) - int(dora.Rank)
		if diff >= -1 && diff <= 1 && pressure < 0.10 {
			pressure = 0.10
		}
		if diff == 1 {
			straddleLo = true
		}
		if diff == -1 {
			straddleHi = true
		}
	}
	if straddleLo && straddleHi {
		pressure = 0.15
	}
	return pressure
}

// honorSafety rewards honors with visible copies; a fresh yakuhai or an
// honor dora keeps its teeth.
func (d *Danger) honorSafety(v *TableView, tile domain.Tile, visible [34]uint8, endgame bool) float64 {
	if !tile.IsHonor() {
		return 0
	}
	seen := visible[tile.Index34()]
	bonus := d.cfg.HonorBaseBonus
	if seen >= 3 {
		bonus += d.cfg.HonorSeen3Bonus
	} else if seen >= 2 {
		bonus += d.cfg.HonorSeen2Bonus
	}
	if endgame {
		bonus *= d.cfg.HonorEndgameBoost
	}
	for _, ind := range v.DoraIndicators {
		if ind.NextDora() == tile.Normalize() {
			bonus -= d.cfg.HonorDoraPenalty
		}
	}
	if tile.IsDragon() && seen == 0 {
		bonus -= d.cfg.HonorYakuhaiUnseenPenal
	}
	if bonus < 0 {
		bonus = 0
	}
	return bonus
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
