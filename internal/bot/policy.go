package bot

import (
	"math"
)

// One-shot scalars of the EV engine. These were fit together as a set;
// the config-exposed knobs live in config.Engine instead.
const (
	reachStickCost        = 1000.0
	shapeRyanmenBonus     = 1.04
	shapeDeadShantenPenal = 0.92
	doraVisBonusPer       = 0.01
	redCountBonusPer      = 0.01
	safetyGoodBonus       = 0.96
	turnLateDefPenal      = 1.06
	topLeadMargin         = 6000
	reachLeadUpweight     = 1.03
	reachRiskAversion     = 0.95
	forbidKanTopLead      = true
	tenpaiValueScale      = 0.012
	evalMode              = "final_layer"
)

// capitalCost is the expected loss of the reach stick itself. A fat pot
// in all-last makes parting with it worse.
func capitalCost(c *Context) float64 {
	cost := reachStickCost
	if c.AllLast && c.Kyotaku >= 2 {
		cost *= 1.25
	}
	return cost
}

// applyWaitVisibility discounts a win estimate as the river eats into
// the wait.
func applyWaitVisibility(c *Context, winRate float64) float64 {
	return winRate * (0.9 + 0.2*remainRatio(c))
}

// reachComponentsBonus folds the visible value carriers into the reach
// payout multiplier.
func reachComponentsBonus(c *Context) float64 {
	return 1 + 0.02*float64(min(4, c.DoraVisible)) +
		0.02*float64(min(3, c.RedCount)) +
		0.01*c.GoodWait +
		0.008*float64(c.HiddenDora)
}

// hasAnyCallYaku reports whether some open route plausibly carries the
// hand to a legal win.
func hasAnyCallYaku(c *Context) bool {
	return c.Yaku.Best() >= 0.5
}

// parentBoost lifts the dealer's win estimate, harder late and in
// all-last, and returns the payout multiplier that comes with the seat.
func parentBoost(c *Context, winRate float64) (float64, float64) {
	if !c.IsDealer() {
		return winRate, 1
	}
	boost := 1.06 + 0.08*phase(c)
	bpMul := 1.0
	if c.AllLast {
		boost *= 1.10
		bpMul = 1.05
	}
	boost *= 1 + 0.10*c.RenchanChance
	return clamp01(winRate * boost), bpMul
}

// tableSpeedTag marks a fast table: multiple declarations, a short
// clock, or opponents visibly folding or racing.
func tableSpeedTag(c *Context) bool {
	return c.RiichiCount >= 2 || c.TurnsLeft <= 4 || c.TsumogiriStreak >= 3 ||
		(c.EarliestRiichi >= 0 && c.EarliestRiichi <= 6) ||
		c.CallShapeGain >= 0.6
}

// speedFallbackBoost is the small win credit a quick shape keeps on a
// fast table.
func speedFallbackBoost(c *Context, winRate float64) float64 {
	if c.Ryanmen {
		winRate *= 1.01
	}
	if c.CallShapeGain >= 0.5 {
		winRate *= 1.01
	}
	return winRate
}

// adjustRatesByShapeSafety folds the hand's shape quality into the win
// estimate and the own safety stock into the deal-in estimate. The
// seven-pairs line has its own wait arithmetic.
func adjustRatesByShapeSafety(c *Context, winRate, dealIn float64) (float64, float64) {
	if c.Ryanmen {
		winRate *= shapeRyanmenBonus
	}
	if c.Shanten >= 2 {
		winRate *= shapeDeadShantenPenal
	}
	winRate *= 1 + float64(c.DoraVisible)*doraVisBonusPer + float64(c.RedCount)*redCountBonusPer
	winRate *= 1 + 0.02*c.UpgradeNext2

	if c.Chitoi {
		w := clampRange(float64(c.ChitoiWaits), 0, 4)
		winRate *= math.Min(1.06, 0.74+0.08*w)
		winRate *= 1 + 0.05*c.TankiImprove
		switch c.WaitKind {
		case WaitHonor, WaitYakuhai:
			winRate *= 1.08
			dealIn *= 0.96
		case WaitTerminal, WaitEdge:
			winRate *= 1.03
			dealIn *= 0.99
		}
		winRate *= 1 + 0.03*c.DoraTouch
		winRate *= 1 - 0.02*float64(min(3, c.VisibleWaits))
	} else {
		winRate *= 1 + 0.015*float64(min(12, c.Ukeire))
		winRate *= 1 + 0.04*c.GoodShapeQ + 0.04*c.ShantenQ
		winRate *= 1 + 0.012*float64(min(10, c.ImproveCount))
		winRate *= 1 + 0.04*c.RyanmenPot
		winRate *= 1 - 0.02*c.RiskGradient
		if remainRatio(c) > 0.6 && c.SafeNextCount <= 1 {
			winRate *= 0.98
		}
	}

	safetyFactor := 0.5*c.SafetyScore + 0.02*float64(c.GenbutsuCount) +
		0.01*float64(c.SujiCount) + 0.1*c.WallInfo
	if safetyFactor > 0.6 {
		dealIn *= safetyGoodBonus
	}
	if c.TurnsLeft <= 5 {
		dealIn *= turnLateDefPenal
	}

	winRate = applyWaitVisibility(c, winRate)
	return clamp01(winRate), clamp01(dealIn)
}

// opponentAwareLose scales the deal-in estimate by everything the rivers
// say about the opposition: declarations, their timing, how little suji
// cover remains, and the opponents' observed styles.
func opponentAwareLose(c *Context, dealIn float64) float64 {
	power := 0.0
	if c.LastCutYakuhai {
		power += 0.02
	}
	if c.RiichiCount >= 1 {
		power += 0.06
	}
	if c.RiichiCount >= 2 {
		power += 0.05
	}
	if c.EarliestRiichi >= 0 {
		if c.EarliestRiichi <= 6 {
			power += 0.04
		} else if c.EarliestRiichi <= 9 {
			power += 0.02
		}
	}
	if c.NoSujiCount >= 10 {
		power += 0.05
	} else if c.NoSujiCount >= 6 {
		power += 0.03
	}
	if c.SafeSujiCount < 4 {
		power += 0.04
	} else if c.SafeSujiCount >= 8 {
		power -= 0.02
	}
	if c.SharedSafeCount <= 1 {
		power += 0.03
	}
	if c.RecentSafeShift {
		power += 0.02
	}
	power += 0.05*c.OppAggression - 0.03*c.OppDefense
	return clamp01(dealIn * (1 + power))
}

// reachEV prices declaring riichi: the locked-in payout bonus and ura
// chance against the stick, the frozen hand and the opposition.
func reachEV(c *Context, t Tuning) float64 {
	eng := t.Engine
	obj := resolveObjective(c)

	winRate, dealIn := adjustRatesByShapeSafety(c, c.WinRate, c.DealInRate)
	winRate, bpMul := parentBoost(c, winRate)
	winRate = calibratedProbability(winRate, 1.05, 0)
	dealIn = calibratedProbability(dealIn, 1.05, 0)
	winRate = speedAdjustedWinRate(winRate, c.Ukeire, c.TurnsLeft)
	dealIn = clamp01(opponentAwareLose(c, dealIn) * riskBudget(c, obj))

	bp := math.Max(1000, c.BasePoints) * bpMul
	reachBonus := 1.2
	if c.IsDealer() {
		reachBonus = 1.3
	}
	reachBonus *= reachComponentsBonus(c)
	if c.LeadMargin() >= topLeadMargin {
		reachBonus *= reachLeadUpweight
	}

	if tableSpeedTag(c) {
		dealIn = clamp01(dealIn * 1.10)
		winRate = clamp01(speedFallbackBoost(c, winRate))
	}
	if c.Chitoi && c.ChitoiWaits <= 1 {
		dealIn = clamp01(dealIn * 1.02)
	}
	winRate = clamp01(winRate * expectedUraCoef(c))

	gain := applyTableBonus(winRate*bp*reachBonus, winRate, c)
	cost := dealIn * bp * reachRiskAversion
	ev := gain - cost - capitalCost(c)*(1-winRate)
	if c.Rank() == 4 {
		ev *= eng.LastEscapeBonus
	}
	ev = goalTargeting(c, ev, bp*reachBonus)
	ev = endgameAdjust(lineReach, c, ev, bp*reachBonus, eng)
	ev = goalDrivenOverride(c, ev)
	ev = softDefend(ev, winRate, dealIn, bp, c, eng)
	if c.Chitoi {
		ev *= 1 - 0.05*c.BadWaitHardness
	}
	ev = futureKeepBoost(c, ev)
	ev -= 0.01 * float64(c.StasisTurns)
	ev = topSafetyBufferAdjust(c, ev, bp, true)
	return ev * eng.ScaleReach
}

// damaEV prices staying silent on a ready hand: a thinner win cut, no
// stick at risk, and the option to fold kept open.
func damaEV(c *Context, t Tuning) float64 {
	eng := t.Engine
	winRate := clamp01(c.WinRate * 0.8)
	dealIn := clamp01(c.DealInRate * 0.8)
	winRate = calibratedProbability(winRate, 1.05, 0)
	dealIn = calibratedProbability(dealIn, 1.05, 0)
	winRate = clamp01(winRate * (1 + 0.03*c.NextTurnUpgrade))

	if c.Chitoi {
		if c.LeadMargin() >= 4000 {
			dealIn *= 0.95
		}
		if c.ChitoiWaits >= 3 {
			winRate = clamp01(winRate * 1.03)
		}
		if c.WaitKind == WaitHonor || c.WaitKind == WaitYakuhai {
			winRate = clamp01(winRate * 1.05)
			dealIn *= 0.97
		}
	}

	bp := math.Max(1000, c.BasePoints)
	if c.Yaku.Best() < 0.5 {
		winRate *= eng.DamaNoYakuWinMul
		bp *= eng.DamaNoYakuBpMul
	}

	gain := applyTableBonus(winRate*bp, winRate, c)
	cost := dealIn * bp * 0.85
	if c.Rank() == 4 {
		gain *= 1.05
	}
	ev := gain - cost
	ev = tempaiNotenAdjust(c, ev, true, eng)
	ev *= 1 + 0.02*c.BadWaitHardness
	ev += 0.01 * float64(c.StasisTurns)
	ev = topSafetyBufferAdjust(c, ev, bp, c.Shanten == 0)
	return ev * eng.ScaleDama
}

// callEV prices opening the hand for speed: the shape gain buys tempo,
// the lost concealment caps the payout, and the yaku routes gate it all.
func callEV(c *Context, t Tuning) float64 {
	eng := t.Engine
	obj := resolveObjective(c)

	speedMul := 0.92 + 0.30*c.CallShapeGain + 0.06*c.RyanmenPot +
		0.04*math.Min(1, float64(c.ImproveCount)/10)
	speedMul *= 1.02 - 0.06*phase(c)
	speedMul = clampRange(speedMul, 0.80, 1.30)
	winRate := math.Min(0.96, c.WinRate*speedMul)

	threat := 0.0
	if c.ThreatActive || c.RiichiCount > 0 {
		threat = 1
	}
	loseMul := 1.02 + 0.08*threat + 0.05*c.OppAggression - 0.03*c.OppDefense
	loseMul *= 1.02 - 0.05*c.SafetyScore
	loseMul = clampRange(loseMul, 0.90, 1.30)
	dealIn := clamp01(c.DealInRate * loseMul)

	bp := math.Max(1000, c.BasePoints)
	if !hasAnyCallYaku(c) {
		winRate *= eng.CallNoYakuWinMul
		bp *= eng.CallNoYakuBpMul
	} else {
		if c.Yaku.Tanyao >= 0.7 {
			winRate *= 1.03
			bp *= 1.02
		}
		if c.Yaku.Honitsu >= 0.7 {
			winRate *= 1.04
			bp *= 1.06
		}
		if c.Yaku.Toitoi >= 0.7 {
			winRate *= 1.03
			bp *= 1.04
		}
	}
	if c.OtakazeCall {
		winRate *= 0.94
		bp *= 0.96
	}

	winRate, dealIn = adjustRatesByShapeSafety(c, winRate, dealIn)
	winRate, bpMul := parentBoost(c, winRate)
	bp *= bpMul
	winRate = calibratedProbability(winRate, 1.03, 0)
	dealIn = calibratedProbability(dealIn, 1.05, 0)
	if tableSpeedTag(c) {
		dealIn = clamp01(dealIn * 1.08)
	}
	dealIn = clamp01(opponentAwareLose(c, dealIn) * riskBudget(c, obj))
	switch obj {
	case ObjectiveGoTop:
		winRate = clamp01(winRate * 1.02)
	case ObjectiveAvoidLast:
		dealIn = clamp01(dealIn * 1.03)
	case ObjectiveMaintain:
		winRate *= 0.99
		dealIn = clamp01(dealIn * 1.02)
	}
	gain := applyTableBonus(winRate*bp, winRate, c)
	cost := dealIn * bp * 0.90
	if c.Rank() == 4 {
		gain *= 1.07
	}
	ev := gain - cost
	ev = goalTargeting(c, ev, bp)
	ev = endgameAdjust(lineCall, c, ev, bp, eng)
	ev = goalDrivenOverride(c, ev)
	ev = tempaiNotenAdjust(c, ev, c.Shanten == 0, eng)
	ev = softDefend(ev, winRate, dealIn, bp, c, eng)
	ev = futureKeepBoost(c, ev)
	ev += 0.01 * float64(c.StasisTurns)
	ev = topSafetyBufferAdjust(c, ev, bp, c.Shanten == 0)
	return ev * eng.ScaleCall
}

// kanEV prices adding a kan: a bigger payout for everyone against the
// new dora feeding the opposition too.
func kanEV(c *Context, t Tuning) float64 {
	eng := t.Engine
	obj := resolveObjective(c)

	bp := math.Max(1000, c.BasePoints)
	bp *= 1.10 * expectedUraCoef(c) * (1 + 0.01*c.GoodWait)

	winRate, dealIn := adjustRatesByShapeSafety(c, c.WinRate, c.DealInRate)
	winRate, bpMul := parentBoost(c, winRate)
	bp *= bpMul
	winRate = calibratedProbability(winRate, 1.05, 0)
	dealIn = calibratedProbability(dealIn, 1.05, 0)
	if tableSpeedTag(c) {
		dealIn = clamp01(dealIn * 1.12)
	}
	dangerMul := 1.0
	if c.ThreatActive || c.RiichiCount > 0 {
		dangerMul *= 1.08
	}
	if c.TurnsLeft <= 6 {
		dangerMul *= 1.03
	}
	dealIn = clamp01(opponentAwareLose(c, dealIn) * dangerMul * riskBudget(c, obj))

	gain := applyTableBonus(winRate*bp, winRate, c)
	cost := dealIn * bp * 0.97
	ev := gain - cost
	ev = goalTargeting(c, ev, bp)
	ev = endgameAdjust(lineKan, c, ev, bp, eng)
	ev = goalDrivenOverride(c, ev)
	ev = tempaiNotenAdjust(c, ev, true, eng)
	ev = softDefend(ev, winRate, dealIn, bp, c, eng)
	ev = futureKeepBoost(c, ev)
	ev = topSafetyBufferAdjust(c, ev, bp, true)
	return ev * eng.ScaleKan
}

// ActionScore is one action line priced in points and placement value.
type ActionScore struct {
	EV        float64
	Placement float64
	Total     float64
}

// Verdict is the scorer's output for one decision point: the four priced
// lines and the permissions derived from them. A permission means the
// line strictly beats every other; legality stays with the caller.
type Verdict struct {
	AllowReach bool
	AllowPon   bool
	AllowChi   bool
	AllowKan   bool

	ExpectedBasePoints float64
	Threat             bool
	AllLast            bool
	Mode               string

	Reach ActionScore
	Dama  ActionScore
	Call  ActionScore
	Kan   ActionScore
}

func scoreLineTotal(line scoreLine, c *Context, t Tuning) ActionScore {
	var ev float64
	switch line {
	case lineReach:
		ev = reachEV(c, t)
	case lineDama:
		ev = damaEV(c, t)
	case lineCall:
		ev = callEV(c, t)
	default:
		ev = kanEV(c, t)
	}
	pl := placementEV(line, c, t)
	return ActionScore{EV: ev, Placement: pl, Total: ev + pl}
}

// Decide prices all four action lines for one decision point and grants
// permissions to the strict winners. The scorer is a pure function of
// the context; calling it twice yields the same verdict.
func Decide(c *Context, t Tuning) Verdict {
	v := Verdict{
		ExpectedBasePoints: math.Max(1000, c.BasePoints),
		Threat:             c.ThreatActive || c.RiichiCount >= 1,
		AllLast:            c.AllLast,
		Mode:               evalMode,
	}
	v.Reach = scoreLineTotal(lineReach, c, t)
	v.Dama = scoreLineTotal(lineDama, c, t)
	v.Call = scoreLineTotal(lineCall, c, t)
	v.Kan = scoreLineTotal(lineKan, c, t)

	v.AllowReach = c.Shanten == 0 && c.ClosedHand && !c.ReachDeclared &&
		v.Reach.Total > v.Dama.Total &&
		v.Reach.Total > v.Call.Total &&
		v.Reach.Total > v.Kan.Total
	push := shouldPush(c.WinRate, c.DealInRate, c)
	v.AllowPon = push &&
		v.Call.Total > v.Reach.Total &&
		v.Call.Total > v.Dama.Total &&
		v.Call.Total > v.Kan.Total
	v.AllowChi = v.AllowPon
	v.AllowKan = v.Kan.Total > v.Reach.Total &&
		v.Kan.Total > v.Dama.Total &&
		v.Kan.Total > v.Call.Total
	if forbidKanTopLead && c.LeadMargin() >= topLeadMargin {
		v.AllowKan = false
	}
	return v
}
