package brain

import "janshi/internal/domain"

// Profile tracks one opponent's observable tendencies across a hand.
// Aggression and Defense are soft reads in [0, 1] that nudge the deal-in
// model; they never gate a decision on their own.
type Profile struct {
	Calls           int
	Riichi          bool
	RiichiTurn      int
	TsumogiriStreak int

	discards        int
	earlyYaochuu    int // terminals or honors cut in the first six turns
	foldCuts        int // hand cuts after some riichi was already out
	lastHandCut     domain.Tile
	lastHandCutSeen bool

	// Career carry: seeded priors and the per-game running averages.
	seedAggr float64
	seedDef  float64
	seeded   bool
	hands    int
	aggrSum  float64
	defSum   float64
}

func NewProfile() *Profile {
	return &Profile{RiichiTurn: -1}
}

// Seed primes the reads from stored priors. The seed carries the early
// turns and fades as live observations come in.
func (p *Profile) Seed(aggr, def float64) {
	p.seedAggr = clamp(aggr, 0, 1)
	p.seedDef = clamp(def, 0, 1)
	p.seeded = true
}

// Reset clears the per-hand reads. Called on every hand start; a hand
// with enough discards to mean something folds into the career averages
// behind Summary first.
func (p *Profile) Reset() {
	if p.discards >= 4 {
		p.hands++
		p.aggrSum += p.observedAggression()
		p.defSum += p.observedDefense()
	}
	carry := *p
	*p = Profile{
		RiichiTurn: -1,
		seedAggr:   carry.seedAggr,
		seedDef:    carry.seedDef,
		seeded:     carry.seeded,
		hands:      carry.hands,
		aggrSum:    carry.aggrSum,
		defSum:     carry.defSum,
	}
}

// Summary is the career read for the priors store: averages over the
// hands seen, the seed when nothing was observed yet.
func (p *Profile) Summary() (aggr, def float64, hands int) {
	if p.hands == 0 {
		return p.seedAggr, p.seedDef, 0
	}
	return p.aggrSum / float64(p.hands), p.defSum / float64(p.hands), p.hands
}

// RecordDiscard folds in one discard. underFire is true when any opponent
// riichi was live at the time.
func (p *Profile) RecordDiscard(tile domain.Tile, tsumogiri bool, underFire bool) {
	p.discards++
	if tsumogiri {
		p.TsumogiriStreak++
		return
	}
	p.TsumogiriStreak = 0
	p.lastHandCut = tile
	p.lastHandCutSeen = true
	if p.discards <= 6 && tile.IsYaochuu() {
		p.earlyYaochuu++
	}
	if underFire {
		p.foldCuts++
	}
}

// RecordCall folds in a claimed meld.
func (p *Profile) RecordCall() {
	p.Calls++
	p.TsumogiriStreak = 0
}

// RecordRiichi marks the declaration at the given discard count.
func (p *Profile) RecordRiichi(turn int) {
	p.Riichi = true
	if p.RiichiTurn < 0 {
		p.RiichiTurn = turn
	}
}

// Aggression grows with claims, early terminal shedding and a fast riichi.
// A seeded profile starts on the stored prior and hands over to the live
// read as discards accumulate.
func (p *Profile) Aggression() float64 {
	return p.blend(p.observedAggression(), p.seedAggr)
}

func (p *Profile) observedAggression() float64 {
	a := 0.22*float64(p.Calls) + 0.05*float64(p.earlyYaochuu)
	if p.Riichi && p.RiichiTurn >= 0 && p.RiichiTurn <= 6 {
		a += 0.25
	}
	return clamp(a, 0, 1)
}

// Defense grows with hand cuts made while dodging a live riichi.
func (p *Profile) Defense() float64 {
	return p.blend(p.observedDefense(), p.seedDef)
}

func (p *Profile) observedDefense() float64 {
	return clamp(0.12*float64(p.foldCuts), 0, 1)
}

func (p *Profile) blend(observed, seed float64) float64 {
	if !p.seeded {
		return observed
	}
	w := 4 / float64(4+p.discards)
	return clamp(w*seed+(1-w)*observed, 0, 1)
}

// RecentSafeShift reports a fresh hand cut of a terminal or honor, the
// usual tell of a hand giving up shape for safety.
func (p *Profile) RecentSafeShift() bool {
	return p.lastHandCutSeen && p.lastHandCut.IsYaochuu()
}
