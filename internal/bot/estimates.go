package bot

import (
	"janshi/internal/bot/brain"
	"janshi/internal/bot/shape"
	"janshi/internal/domain"
)

// buildContext assembles the scoring context for the current decision
// point. Everything the tracker can measure is measured; what it cannot
// stays on the NewContext priors.
func (t *Tracker) buildContext(l *Legal) Context {
	c := NewContext()
	c.Me = t.me
	c.Oya = t.view.Dealer
	c.Players = t.players
	c.Scores = append([]int(nil), t.scores...)
	c.Bakaze = t.bakaze
	c.Kyoku = t.kyoku
	c.Round = windOrdinal(t.bakaze)*t.players + t.kyoku
	c.Honba = t.honba
	c.Kyotaku = t.kyotaku

	c.Turn = t.turn
	c.LiveWall = t.view.LiveWall
	if t.players > 0 {
		c.TurnsLeft = t.view.LiveWall / t.players
	}
	c.AllLast = t.allLast()
	c.StasisTurns = t.stasis
	c.TargetPoints = t.eng.WestInTarget

	if t.suan == nil {
		return c
	}
	t.fillSafety(&c)
	t.fillHand(&c)
	t.fillPressure(&c)
	t.fillCalls(&c, l)
	t.fillGoals(&c)
	return c
}

func windOrdinal(w domain.Tile) int {
	if w.Suit != domain.Honor || w.Rank < 1 || w.Rank > 4 {
		return 0
	}
	return int(w.Rank) - 1
}

// allLast covers the scheduled final hand and everything past it; in
// overtime every hand is the last one.
func (t *Tracker) allLast() bool {
	switch t.bakaze {
	case domain.South:
		return t.kyoku >= t.players
	case domain.West, domain.North:
		return true
	}
	return false
}

// winPrior and tempaiPrior are flat per-shanten rates; the policies layer
// shape, speed and opposition adjustments on top.
var (
	winPrior    = []float64{0.44, 0.26, 0.15, 0.07, 0.03}
	tempaiPrior = []float64{1.0, 0.72, 0.48, 0.26, 0.12}

	// Non-dealer win value by rough han count, 30fu-flavored.
	valueLadder = []float64{1000, 1300, 2600, 3900, 7700, 8000, 12000}
)

func ladder(table []float64, i int) float64 {
	if i < 0 {
		i = 0
	}
	if i >= len(table) {
		i = len(table) - 1
	}
	return table[i]
}

// visibleOutside counts the copies visible outside the given hand, the
// form the wait arithmetic wants.
func (t *Tracker) visibleOutside(h shape.Hand34) *[34]uint8 {
	var v [34]uint8
	for i := 0; i < 34; i++ {
		out := 4 - t.suan.Unseen(i) - int(h[i])
		if out < 0 {
			out = 0
		}
		v[i] = uint8(out)
	}
	return &v
}

func (t *Tracker) fillHand(c *Context) {
	full := t.fullTiles()
	if len(full) == 0 {
		return
	}
	h := shape.FromTiles(full)
	fixed := len(t.melds)
	visible := t.visibleOutside(h)

	sh := t.srch.Shanten(h, fixed)
	if sh < 0 {
		sh = 0
	}
	c.Shanten = sh
	c.ClosedHand = t.closedHand()
	c.ReachDeclared = t.reached

	// Waits and ukeire. A 14-tile hand is scored by its best cut; a
	// 13-tile hand by its own wait, or by its improvers beyond tenpai.
	var waits []int
	ukeire := 0
	if len(full)+3*fixed >= 14 {
		for _, cand := range t.srch.SeekCandidates(h, fixed, visible) {
			if cand.Ukeire > ukeire {
				ukeire = cand.Ukeire
				waits = cand.Waits
			}
		}
	} else {
		waits, ukeire = t.srch.Waits(h, fixed, visible)
	}

	improvers := t.srch.Improvers(h, fixed)
	liveImprove := 0
	for _, idx := range improvers {
		add := 4 - int(h[idx]) - int(visible[idx])
		if add > 0 {
			liveImprove += add
		}
	}
	if ukeire == 0 {
		ukeire = liveImprove / 2
	}
	c.Ukeire = ukeire
	c.ImproveCount = len(improvers)

	c.WinRate = ladder(winPrior, sh)
	c.TempaiRate = ladder(tempaiPrior, sh)
	c.DealInRate = clampRange(0.05+0.004*float64(min(10, t.turn)), 0.03, 0.13)

	t.fillValue(c, full)
	t.fillShapeQuality(c, h, sh, waits, ukeire, liveImprove, visible)
	t.fillChitoi(c, h, fixed, sh, waits, ukeire, visible)
}

// fillValue prices the hand off its visible carriers: dora, reds, a
// yakuhai triple and the closed-hand bonus.
func (t *Tracker) fillValue(c *Context, full []domain.Tile) {
	dora := 0
	for _, tile := range full {
		for _, ind := range t.view.DoraIndicators {
			if tile.Normalize() == ind.NextDora() {
				dora++
			}
		}
		if tile.Red {
			c.RedCount++
		}
	}
	for _, m := range t.melds {
		for _, tile := range m.Tiles {
			for _, ind := range t.view.DoraIndicators {
				if tile.Normalize() == ind.NextDora() {
					dora++
				}
			}
			if tile.Red {
				c.RedCount++
			}
		}
	}
	c.DoraVisible = dora

	han := 1 + dora + c.RedCount
	if c.ClosedHand {
		han++
	}
	if yakuhaiTriple(full, t.melds, t.bakaze, t.seatWind()) {
		han++
	}
	c.BasePoints = ladder(valueLadder, han)
	if c.ClosedHand {
		c.UraLuck = clamp01(0.2 + 0.1*float64(min(3, c.RedCount)))
	}
}

func (t *Tracker) fillShapeQuality(c *Context, h shape.Hand34, sh int, waits []int, ukeire, liveImprove int, visible *[34]uint8) {
	if sh == 0 {
		c.GoodWait = clamp01(float64(ukeire) / 6)
		c.Ryanmen = twoSidedWait(waits)
		c.BadWaitHardness = 1 - c.GoodWait
		if len(waits) > 0 {
			c.WaitKind = t.classifyWait(waits[0])
			seen := 0
			for _, w := range waits {
				seen += int(visible[w])
			}
			c.VisibleWaits = seen
		}
	}
	c.GoodShapeQ = clamp01(float64(ukeire) / 10)
	c.ShantenQ = clamp01(1 - float64(sh)/4)
	c.RyanmenPot = clamp01(float64(partialRuns(h)) / 3)
	c.UpgradeNext2 = clamp01(float64(liveImprove) / 16)
	c.NextTurnUpgrade = clamp01(float64(liveImprove) / 24)
	if c.ImproveCount > 0 {
		c.WallInfo = clamp01(float64(liveImprove) / float64(4*c.ImproveCount))
	}
	c.RiskGradient = clampRange(float64(t.riichiCountOthers())*(1-c.SafetyScore)*1.5, 0, 2)
	c.SafeNextCount = c.GenbutsuCount
}

func (t *Tracker) fillChitoi(c *Context, h shape.Hand34, fixed, sh int, waits []int, ukeire int, visible *[34]uint8) {
	if fixed != 0 {
		return
	}
	chSh := shape.ShantenChiitoi(h)
	pairs := 0
	for _, n := range h {
		if n >= 2 {
			pairs++
		}
	}
	if chSh != sh || sh > 1 || pairs < 5 {
		return
	}
	c.Chitoi = true
	if sh == 0 {
		c.ChitoiWaits = ukeire
		if len(waits) > 0 {
			w := waits[0]
			c.WaitKind = t.classifyWait(w)
			tile := domain.TileFrom34(w)
			for _, ind := range t.view.DoraIndicators {
				if tile.Normalize() == ind.NextDora() {
					c.DoraTouch = 1
				}
			}
		}
	}
	singlesLive := 0
	for idx, n := range h {
		if n == 1 {
			add := 4 - int(n) - int(visible[idx])
			if add > 0 {
				singlesLive += add
			}
		}
	}
	c.TankiImprove = clamp01(float64(singlesLive) / 8)
}

func (t *Tracker) classifyWait(idx int) WaitClass {
	tile := domain.TileFrom34(idx)
	switch {
	case tile.IsYakuhai(t.bakaze, t.seatWind()):
		return WaitYakuhai
	case tile.IsHonor():
		return WaitHonor
	case tile.IsTerminal():
		return WaitTerminal
	case tile.Rank == 2 || tile.Rank == 8:
		return WaitEdge
	default:
		return WaitMiddle
	}
}

func twoSidedWait(waits []int) bool {
	for i := 0; i < len(waits); i++ {
		for j := i + 1; j < len(waits); j++ {
			a, b := waits[i], waits[j]
			if b < 27 && a/9 == b/9 && b-a == 3 {
				return true
			}
		}
	}
	return false
}

// partialRuns counts the open-ended two-tile sequences still in the hand.
func partialRuns(h shape.Hand34) int {
	n := 0
	for suit := 0; suit < 3; suit++ {
		base := suit * 9
		for r := 1; r < 8; r++ {
			if h[base+r] > 0 && h[base+r+1] > 0 {
				n++
			}
		}
	}
	return n
}

// fillSafety measures the own safe-tile stock against the declared
// threats. A calm table keeps the neutral priors instead.
func (t *Tracker) fillSafety(c *Context) {
	var threats []int
	for seat := 0; seat < t.players; seat++ {
		if seat != t.me && seat < len(t.view.Riichi) && t.view.Riichi[seat] {
			threats = append(threats, seat)
		}
	}
	if len(threats) == 0 || len(t.hand) == 0 {
		c.NoSujiCount = 0
		c.SafeSujiCount = 18
		return
	}

	primary := threats[0]
	for _, seat := range threats[1:] {
		if t.view.RiichiTurn[seat] >= 0 && t.view.RiichiTurn[seat] < t.view.RiichiTurn[primary] {
			primary = seat
		}
	}

	gen, suji, shared := 0, 0, 0
	for _, tile := range t.hand {
		if riverHolds(t.view.Rivers[primary], tile) {
			gen++
		} else if sujiCovered(t.view.Rivers[primary], tile) {
			suji++
		}
		all := true
		for _, seat := range threats {
			if !riverHolds(t.view.Rivers[seat], tile) {
				all = false
				break
			}
		}
		if all {
			shared++
		}
	}
	c.GenbutsuCount = gen
	c.SujiCount = suji
	c.SharedSafeCount = shared
	c.SafetyScore = clamp01((float64(gen) + 0.5*float64(suji)) / float64(len(t.hand)))

	covered := coveredSuji(t.view.Rivers[primary])
	c.SafeSujiCount = covered
	c.NoSujiCount = 18 - covered
}

func riverHolds(river []brain.RiverTile, tile domain.Tile) bool {
	for _, rt := range river {
		if rt.Tile.Normalize() == tile.Normalize() {
			return true
		}
	}
	return false
}

// sujiCovered reports whether the river makes the tile suji: middle tiles
// need both partners, edge-side tiles one.
func sujiCovered(river []brain.RiverTile, tile domain.Tile) bool {
	if tile.IsHonor() {
		return false
	}
	has := func(rank uint8) bool {
		return riverHolds(river, domain.Tile{Suit: tile.Suit, Rank: rank})
	}
	switch {
	case tile.Rank <= 3:
		return has(tile.Rank + 3)
	case tile.Rank >= 7:
		return has(tile.Rank - 3)
	default:
		return has(tile.Rank-3) && has(tile.Rank+3)
	}
}

// coveredSuji counts the 18 half-suji lines the river already protects.
func coveredSuji(river []brain.RiverTile) int {
	n := 0
	for suit := domain.Man; suit <= domain.Sou; suit++ {
		for low := uint8(1); low <= 6; low++ {
			if riverHolds(river, domain.Tile{Suit: suit, Rank: low}) ||
				riverHolds(river, domain.Tile{Suit: suit, Rank: low + 3}) {
				n++
			}
		}
	}
	return n
}

func (t *Tracker) fillPressure(c *Context) {
	c.RiichiCount = t.riichiCountOthers()
	c.ThreatActive = c.RiichiCount > 0

	earliest := -1
	for seat := 0; seat < t.players; seat++ {
		if seat == t.me || seat >= len(t.view.Riichi) || !t.view.Riichi[seat] {
			continue
		}
		if turn := t.view.RiichiTurn[seat]; turn >= 0 && (earliest < 0 || turn < earliest) {
			earliest = turn
		}
	}
	c.EarliestRiichi = earliest

	for seat, p := range t.profiles {
		if seat == t.me || seat >= t.players || p == nil {
			continue
		}
		if a := p.Aggression(); a > c.OppAggression {
			c.OppAggression = a
		}
		if d := p.Defense(); d > c.OppDefense {
			c.OppDefense = d
		}
		if p.TsumogiriStreak > c.TsumogiriStreak {
			c.TsumogiriStreak = p.TsumogiriStreak
		}
		if p.RecentSafeShift() {
			c.RecentSafeShift = true
		}
	}
	if c.OppAggression > 0.75 {
		c.ThreatActive = true
	}

	if ev := t.lastEvent; ev.Type == domain.EventDahai && ev.Actor != t.me {
		if tile, err := domain.ParseTile(ev.Pai); err == nil {
			c.LastCutYakuhai = tile.IsDragon() || tile.Normalize() == t.bakaze.Normalize()
		}
	}
	c.DrawRate = clampRange(0.10+0.03*float64(c.RiichiCount)+0.02*float64(t.stasis), 0, 0.4)
}

func (t *Tracker) fillCalls(c *Context, l *Legal) {
	t.fillYakuRoutes(c)
	if len(l.Chi) == 0 && len(l.Pon) == 0 && len(l.Daiminkan) == 0 {
		return
	}

	claim := l.ClaimTile
	c.OtakazeCall = claim.IsWind() &&
		claim.Normalize() != t.bakaze.Normalize() &&
		claim.Normalize() != t.seatWind().Normalize()

	h13 := shape.FromTiles(t.hand)
	fixed := len(t.melds)
	before := t.srch.Shanten(h13, fixed)

	best := before + 1
	try := func(consumed []domain.Tile) {
		after := h13
		for _, tile := range consumed {
			idx := tile.Index34()
			if after[idx] == 0 {
				return
			}
			after[idx]--
		}
		if sh := t.srch.Shanten(after, fixed+1); sh < best {
			best = sh
		}
	}
	for _, opt := range l.Chi {
		try(opt)
	}
	for _, opt := range l.Pon {
		try(opt)
	}
	for _, opt := range l.Daiminkan {
		try(opt)
	}

	switch {
	case best < before:
		c.CallShapeGain = clamp01(0.5 + 0.3*float64(before-best))
	case best == before:
		c.CallShapeGain = 0.25
	default:
		c.CallShapeGain = 0
	}
}

// fillYakuRoutes scores the cheap open-hand routes 0..1 from what the
// hand already holds and what is still live.
func (t *Tracker) fillYakuRoutes(c *Context) {
	full := t.fullTiles()
	counts := map[int]int{}
	total := 0
	simples := 0
	suitTiles := [3]int{}
	honors := 0
	pairish := 0

	note := func(tile domain.Tile) {
		counts[tile.Index34()]++
		total++
		if !tile.IsYaochuu() {
			simples++
		}
		if tile.IsHonor() {
			honors++
		} else {
			suitTiles[tile.Suit]++
		}
	}
	for _, tile := range full {
		note(tile)
	}
	for _, m := range t.melds {
		for _, tile := range m.Tiles {
			note(tile)
		}
	}
	for _, n := range counts {
		if n >= 2 {
			pairish++
		}
	}
	if total == 0 {
		return
	}

	route := func(idx int) float64 {
		held := counts[idx]
		live := t.suan.Unseen(idx)
		switch {
		case held >= 3:
			return 1
		case held == 2 && live > 0:
			return 0.8
		case held == 1 && live >= 2:
			return 0.25
		default:
			return 0
		}
	}
	c.Yaku.YakuhaiDragon = maxf(route(domain.Haku.Index34()),
		maxf(route(domain.Hatsu.Index34()), route(domain.Chun.Index34())))
	c.Yaku.YakuhaiSeat = route(t.seatWind().Index34())
	c.Yaku.YakuhaiRound = route(t.bakaze.Index34())

	simpleShare := float64(simples) / float64(total)
	switch {
	case simpleShare >= 1:
		c.Yaku.Tanyao = 0.9
	case simpleShare >= 0.85:
		c.Yaku.Tanyao = 0.5
	default:
		c.Yaku.Tanyao = 0.1
	}

	bestSuit := 0
	for _, n := range suitTiles {
		if n > bestSuit {
			bestSuit = n
		}
	}
	suitShare := float64(bestSuit+honors) / float64(total)
	switch {
	case suitShare >= 0.85:
		c.Yaku.Honitsu = 0.8
	case suitShare >= 0.7:
		c.Yaku.Honitsu = 0.45
	}

	if pairish >= 4 {
		c.Yaku.Toitoi = clamp01(0.2 + 0.15*float64(pairish))
	}
}

func (t *Tracker) fillGoals(c *Context) {
	c.RankUpNeed = c.DiffToAbove()

	rank := c.Rank()
	my := c.Scores[c.Me]
	if rank == 1 {
		c.NeedTop = 0.4
	} else {
		gapTop := bestScore(c.Scores, c.Me) - my
		c.NeedTop = clamp01(1 - float64(gapTop)/16000)
	}
	if rank <= 2 {
		c.NeedSecond = 0.3
	} else {
		c.NeedSecond = clamp01(1 - float64(c.DiffToAbove())/12000)
	}

	if c.IsDealer() {
		c.OyaFutureGain = 2500
		c.RenchanChance = clampRange(0.25+0.15*ladder(tempaiPrior, c.Shanten), 0, 0.6)
	} else if t.dealershipAhead() {
		c.OyaFutureGain = 1200
	}

	if n := len(t.hand); n > 0 {
		c.CoverageNext = clamp01(float64(c.GenbutsuCount) / float64(n))
		c.CoverageNext2 = clamp01(float64(c.GenbutsuCount+c.SujiCount) / float64(n))
	}
}

func bestScore(scores []int, me int) int {
	best := scores[me]
	for seat, s := range scores {
		if seat != me && s > best {
			best = s
		}
	}
	return best
}

// dealershipAhead reports whether the own deal is still to come this wind.
func (t *Tracker) dealershipAhead() bool {
	if t.bakaze == domain.West || t.bakaze == domain.North {
		return false
	}
	seatOrd := (t.me - t.view.Dealer + t.players) % t.players
	return seatOrd > 0 && t.kyoku+seatOrd <= t.players
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
