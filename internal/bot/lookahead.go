package bot

import (
	"math"
	"sort"

	"janshi/internal/bot/brain"
	"janshi/internal/bot/shape"
	"janshi/internal/domain"
)

// discardChoice is one candidate cut, scored for value kept and danger
// shipped.
type discardChoice struct {
	Tile     domain.Tile
	Eval     float64
	Danger   float64
	Shanten  int
	GoodWait bool
}

// lookahead ranks the discard candidates of a hand: shape value through
// a one-draw search over the live counts, minus the defensive price of
// the tile leaving.
type lookahead struct {
	est    shape.Estimator
	danger *brain.Danger
	tuning Tuning
}

func newLookahead(est shape.Estimator, danger *brain.Danger, t Tuning) *lookahead {
	return &lookahead{est: est, danger: danger, tuning: t}
}

// roundsLeft is a coarse 1..4 clock of the current hand read off the
// live wall.
func (la *lookahead) roundsLeft(c *Context) int {
	rl := int(math.Round(float64(c.LiveWall) / 70 * 4))
	if rl < 1 {
		rl = 1
	}
	return rl
}

// tableThreat summarizes the opposition: the average threat level, the
// worst single opponent, and whether the dealer is the one attacking.
func (la *lookahead) tableThreat(view *brain.TableView, c *Context) (level, worst float64, parent bool) {
	n := 0
	for seat := 0; seat < c.Players; seat++ {
		if view != nil && seat == view.Me {
			continue
		}
		if view == nil && seat == c.Me {
			continue
		}
		t := c.OppAggression
		if view != nil && view.Riichi[seat] {
			t += 1.0
			if seat == view.Dealer {
				parent = true
			}
		}
		level += t
		if t > worst {
			worst = t
		}
		n++
	}
	if n > 0 {
		level /= float64(n)
	}
	return level, worst, parent
}

// expectedLoss is the payout a deal-in costs right now.
func (la *lookahead) expectedLoss(parentThreat bool, worst float64) float64 {
	base := la.tuning.DealInChild
	if parentThreat {
		base = la.tuning.DealInParent
	}
	return base * (1 + math.Max(0, worst))
}

// placementAdjust turns the score table into three shifts: a defense
// multiplier on tile danger, a push allowance on the call gate, and a
// value requirement on the riichi gate. Last place loosens both gates
// and skips the brackets; every other seat tightens as the cushion over
// last thins. The shifts may go negative; the gates floor the absolute
// thresholds at zero.
func (la *lookahead) placementAdjust(c *Context) (def, push, gain float64) {
	t := la.tuning
	def = 1.0
	if c.Bakaze != domain.East {
		push += t.SouthDefense
	}
	if c.Rank() == 4 {
		push -= 0.05
		gain -= t.LastPlaceAggression
		return def, push, gain
	}
	idx := bracketIndex(c.DiffToLast(), t.PlacementBrackets)
	def *= t.PlacementDefense[idx]
	push += t.PlacementPush[idx]
	gain += t.PlacementGain[idx]
	return def, push, gain
}

func bracketIndex(v int, brackets [2]int) int {
	if v <= brackets[0] {
		return 0
	}
	if v <= brackets[1] {
		return 1
	}
	return 2
}

// shapeValue scores a thirteen-tile hand. Tenpai hands live above 1 and
// scale with the live width of the wait; deeper hands stay below their
// width cap so a shanten lost is never bought back by width alone.
func (la *lookahead) shapeValue(h shape.Hand34, melds int, paishu *brain.Paishu) (float64, int, bool) {
	t := la.tuning
	sh := la.est.Shanten(h, melds)
	if sh < 0 {
		return t.Width[0] * 3, sh, true
	}
	if sh == 0 {
		wq := 0.0
		for _, w := range la.est.Improvers(h, melds) {
			wq += paishu.Val(w)
		}
		return t.Width[0] * (1 + 0.2*wq), 0, wq >= 2.2
	}
	if sh > t.MaxShantenLookahead {
		sum := 0.0
		for _, r := range la.est.Improvers(h, melds) {
			sum += paishu.Val(r)
		}
		return t.Width[2] * math.Tanh(0.4*sum) / float64(sh-1), sh, false
	}

	// One draw deep: weight each live improver by how wide the hand
	// gets after taking it, with the counts rescaled as if it left the
	// wall.
	expv := 0.0
	for _, r := range la.est.Improvers(h, melds) {
		w := paishu.Val(r)
		if w <= 0 {
			continue
		}
		restore := paishu.Borrow(r)
		h[r]++
		base := 0.0
		for _, n := range la.est.Improvers(h, melds) {
			base += paishu.Val(n)
		}
		h[r]--
		restore()

		gain := base
		if sh == 1 {
			gain *= 1.25
		}
		expv += w * math.Tanh(0.3*gain)
	}
	return t.Width[sh] * math.Tanh(0.12*expv), sh, false
}

// tileDanger prices shipping one tile. With a table view the full
// estimator runs; without one a flat threat term stands in.
func (la *lookahead) tileDanger(view *brain.TableView, c *Context, tile domain.Tile, worst float64) float64 {
	if view == nil {
		d := worst * la.tuning.ThreatScale
		if c.RiichiCount > 0 {
			d += la.tuning.RiichiDangerPenalty
		}
		return d
	}
	d := la.danger.Aggregate(view, tile)
	if c.RiichiCount > 0 || c.ThreatActive {
		d *= la.tuning.ThreatScale
	}
	return d
}

// rankDiscards scores every distinct cut of a fourteen-tile hand and
// returns them best first. Ties go to the safer tile, then to notation
// order so the ranking is reproducible.
func (la *lookahead) rankDiscards(snap *Snapshot) []discardChoice {
	tiles := make([]domain.Tile, 0, len(snap.Hand)+1)
	tiles = append(tiles, snap.Hand...)
	if !snap.Drawn.Zero() {
		tiles = append(tiles, snap.Drawn)
	}
	if len(tiles) == 0 {
		return nil
	}

	c := &snap.Ctx
	defMult, _, _ := la.placementAdjust(c)
	_, worst, parent := la.tableThreat(snap.View, c)
	loss := la.expectedLoss(parent, worst)
	lossScale := 1 + loss/8000
	if c.Rank() != 4 && loss >= float64(c.DiffToLast()) {
		lossScale = math.Max(lossScale, 1+la.tuning.LastSafeCap)
	}

	seen := make(map[domain.Tile]bool, len(tiles))
	choices := make([]discardChoice, 0, len(tiles))
	for i, cut := range tiles {
		if seen[cut] {
			continue
		}
		seen[cut] = true

		rest := make([]domain.Tile, 0, len(tiles)-1)
		rest = append(rest, tiles[:i]...)
		rest = append(rest, tiles[i+1:]...)

		h := shape.FromTiles(rest)
		val, sh, good := la.shapeValue(h, len(snap.Melds), snap.Paishu)

		doraN, redN := 0, 0
		for _, kept := range rest {
			if kept.Red {
				redN++
			}
			if snap.View != nil {
				for _, ind := range snap.View.DoraIndicators {
					if kept.Normalize() == ind.NextDora() {
						doraN++
					}
				}
			}
		}

		t := la.tuning
		eval := t.ShapeWeight*val +
			t.ScoreWeight*(t.DoraWeight*float64(doraN)+t.AkaWeight*float64(redN))
		dgr := la.tileDanger(snap.View, c, cut, worst)
		eval -= t.DefenseWeight * dgr * defMult * lossScale

		choices = append(choices, discardChoice{
			Tile:     cut,
			Eval:     eval,
			Danger:   dgr,
			Shanten:  sh,
			GoodWait: good,
		})
	}

	sort.Slice(choices, func(i, j int) bool {
		if choices[i].Eval != choices[j].Eval {
			return choices[i].Eval > choices[j].Eval
		}
		if choices[i].Danger != choices[j].Danger {
			return choices[i].Danger < choices[j].Danger
		}
		return choices[i].Tile.String() < choices[j].Tile.String()
	})
	return choices
}

// riichiGate decides whether a tenpai cut is worth declaring on. A thin
// wait needs wall left to back it; a safe lead late in the hand raises
// the bar, last place lowers it.
func (la *lookahead) riichiGate(c *Context, choice discardChoice, gainAdd float64) bool {
	if choice.Shanten != 0 {
		return false
	}
	t := la.tuning
	need := math.Max(0, t.RiichiMinGain+gainAdd)
	allowBad := t.AllowBadWaitEarly && c.LiveWall >= t.BadWaitWallFloor

	rank := c.Rank()
	if rank <= 2 && la.roundsLeft(c) <= 2 && c.LeadMargin() >= t.LeadSafeMargin {
		need += t.LeadDefenseBonus
		allowBad = false
	}
	if rank == 4 {
		need = math.Max(0, need-t.LastRiichiDrop)
	}
	if !choice.GoodWait && !allowBad {
		return false
	}
	return choice.Eval >= need
}

// kanGate accepts a kan while the ura upside outweighs the threat on
// the table.
func (la *lookahead) kanGate(threatLevel float64) bool {
	return la.tuning.KanUraBonus-la.tuning.KanRiskPenalty*threatLevel > 0
}

// callGate opens the hand when the table is calm enough, or when last
// place late in the hand needs the speed regardless.
func (la *lookahead) callGate(c *Context, threatLevel, pushAdd float64) bool {
	thr := math.Max(0, la.tuning.PushThreshold+pushAdd)
	needSpeed := c.Rank() == 4 && la.roundsLeft(c) <= 3 && c.DiffToAbove() <= 4000
	return threatLevel < thr || needSpeed
}
