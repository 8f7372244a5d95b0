package bot

import (
	"math"

	"janshi/internal/config"
)

// scoreLine is one of the four scored action lines. Every decision point
// prices all four; legality is the agent's problem, not the scorer's.
type scoreLine uint8

const (
	lineReach scoreLine = iota
	lineDama
	lineCall
	lineKan
)

func (l scoreLine) String() string {
	switch l {
	case lineReach:
		return "reach"
	case lineDama:
		return "dama"
	case lineCall:
		return "call"
	default:
		return "kan"
	}
}

// remainRatio is the fraction of the hand still ahead, 1 at the deal and
// 0 once the clock runs past eighteen own turns.
func remainRatio(c *Context) float64 {
	return clamp01(float64(c.TurnsLeft) / 18)
}

// phase is the mirror of remainRatio: 0 early, 1 at the end of the hand.
func phase(c *Context) float64 {
	return 1 - remainRatio(c)
}

// autoObjective picks a placement goal from the score table. Last place
// always runs from fourth; a thin third in the south rounds does too,
// with the cushion requirement shrinking as the hand ages.
func autoObjective(c *Context) Objective {
	rank := c.Rank()
	if rank == 4 {
		return ObjectiveAvoidLast
	}
	if c.Round >= 5 && rank == 3 &&
		float64(c.DiffToLast()) <= 3000+5000*(1-remainRatio(c)) {
		return ObjectiveAvoidLast
	}
	if rank == 1 && c.LeadMargin() >= 8000 {
		return ObjectiveMaintain
	}
	return ObjectiveGoTop
}

func resolveObjective(c *Context) Objective {
	if c.Objective != ObjectiveAuto {
		return c.Objective
	}
	return autoObjective(c)
}

// riskBudget scales the deal-in estimate by how much a loss hurts right
// now. Above 1 means careful, below 1 means the loss is cheap.
func riskBudget(c *Context, obj Objective) float64 {
	b := 1.0
	if c.Round <= 2 {
		b *= 0.98
	}
	if c.Round >= 5 && c.Rank() == 4 {
		b *= 1.05
	}
	lead := c.LeadMargin()
	if lead >= 8000 {
		b *= 1.06
	} else if lead >= 4000 {
		b *= 1.03
	}
	switch obj {
	case ObjectiveAvoidLast:
		b *= 1.08
	case ObjectiveMaintain:
		b *= 1.03
	}
	return clampRange(b, 0.90, 1.35)
}

// expectedUraCoef lifts the reach payout by the hidden-dora luck estimate.
func expectedUraCoef(c *Context) float64 {
	return 1 + 0.02*clamp01(c.UraLuck)
}

// renchanValue is the dealer's additive bonus for keeping the deal: a
// share of the projected repeat gain plus the repeat chance itself.
func renchanValue(c *Context) float64 {
	if !c.IsDealer() {
		return 0
	}
	v := 0.00012*c.OyaFutureGain + 0.06*c.RenchanChance
	lead := float64(c.LeadMargin())
	if lead < 0 {
		v *= 1.15
	} else if lead > 12000 && phase(c) > 0.6 {
		v *= 0.75
	}
	return v
}

// applyTableBonus folds the riichi sticks and honba already on the table
// into a win line's gain. Only a win collects the pot, so the deal-in
// cost never carries it.
func applyTableBonus(gain, winRate float64, c *Context) float64 {
	return gain + kyotakuHonbaEV(winRate, c.Kyotaku, c.Honba)
}

// coverage is the stock of safe tiles for the next cuts, the second turn
// discounted.
func coverage(c *Context) float64 {
	return c.CoverageNext + 0.7*c.CoverageNext2
}

// softDefendScale shaves an EV when the defend value overtakes the keep
// value, saturating at a fifteen percent cut.
func softDefendScale(defend, keep float64) float64 {
	gap := math.Max(0, defend-keep)
	return 1 - 0.15*(1-math.Exp(-gap/math.Max(1e-6, keep+1e-6)))
}

func softDefend(ev, winRate, dealIn, bp float64, c *Context, eng config.Engine) float64 {
	keep := winRate * bp
	covMul := 0.9
	if coverage(c) <= 1.5 {
		covMul = 1.2
	}
	defend := dealIn * bp * eng.DefendValueScalar * covMul
	return ev * softDefendScale(defend, keep)
}

// placementProbFromMargin maps a point margin to the chance of holding
// it through the hands left. More turns widen the sigmoid.
func placementProbFromMargin(margin float64, turns int) float64 {
	t := turns
	if t < 0 {
		t = 0
	} else if t > 12 {
		t = 12
	}
	scale := 2000 + 300*float64(t)
	return clamp01(sigmoid(margin / math.Max(1, scale)))
}

// approxActionWin is the win chance after the action's own haircut: dama
// loses a fifth, a call trades width for speed.
func approxActionWin(line scoreLine, winRate, callShapeGain float64) float64 {
	switch line {
	case lineDama:
		return winRate * 0.8
	case lineCall:
		return math.Min(0.95, winRate*(0.9+0.25*callShapeGain))
	default:
		return winRate
	}
}

// estimateDeltaPoints is the rough expected score swing of one action
// line, feeding the placement projection only. The full EV flows price
// the same lines far more carefully.
func estimateDeltaPoints(line scoreLine, c *Context, eng config.Engine) float64 {
	winRate := c.WinRate
	dealIn := c.DealInRate
	bp := math.Max(1000, c.BasePoints)
	threat := 0.0
	if c.ThreatActive || c.RiichiCount > 0 {
		threat = 1
	}

	var gain, cost float64
	switch line {
	case lineReach:
		mul := 1.2
		if c.IsDealer() {
			mul = 1.3
		}
		gain = winRate * bp * mul
		cost = dealIn * bp * 0.95
	case lineDama:
		gain = winRate * 0.8 * bp
		cost = dealIn * 0.8 * bp * 0.85
	case lineCall:
		winAdj := approxActionWin(lineCall, winRate, c.CallShapeGain)
		loseAdj := dealIn * (1.05 + 0.15*threat)
		gain = winAdj * bp * (0.75 + 0.1*c.CallShapeGain)
		cost = loseAdj * bp * 0.90
	case lineKan:
		gain = winRate * bp * 1.10
		cost = dealIn * bp * 0.97
	}
	if c.IsDealer() {
		gain *= eng.OyaPlacementWinMul
		cost *= eng.OyaPlacementLossMul
	}
	return gain - cost
}

// placementEV prices an action line in placement points: project the
// score after the action, turn the margins into top and last
// probabilities, and weight the expected uma by how much placement
// matters right now.
func placementEV(line scoreLine, c *Context, t Tuning) float64 {
	eng := t.Engine
	future := float64(c.Scores[c.Me]) + estimateDeltaPoints(line, c, eng)
	pTop := placementProbFromMargin(future-float64(c.BestOther()), c.TurnsLeft)
	pLast := clamp01(1 - placementProbFromMargin(future-float64(c.WorstOther()), c.TurnsLeft))
	mid := clamp01(1 - pTop - pLast)

	above, below := 0, 0
	my := c.Scores[c.Me]
	for seat, s := range c.Scores {
		if seat == c.Me {
			continue
		}
		if s > my {
			above++
		} else if s < my {
			below++
		}
	}
	var midUma float64
	switch {
	case above == 0:
		midUma = eng.UmaSecond*0.7 + eng.UmaThird*0.3
	case below == 0:
		midUma = eng.UmaSecond*0.3 + eng.UmaThird*0.7
	default:
		midUma = (eng.UmaSecond + eng.UmaThird) / 2
	}
	expectedUma := pTop*eng.UmaTop + mid*midUma + pLast*eng.UmaLast

	w := eng.PlacementWeight * (0.9 + 0.6*phase(c))
	if c.AllLast {
		w *= 1.1
	}
	lead := c.LeadMargin()
	if lead > 15000 {
		w *= 0.85
	} else if lead < -8000 {
		w *= 1.1
	}
	w *= 1 + 0.3*c.DrawRate
	w = clampRange(w, 0.10, 0.90)
	if c.Round >= 7 {
		w *= 1.1
	}

	points := expectedUma * eng.UmaPointUnit * w
	if c.IsDealer() {
		points += eng.OyaRenchanPlacementK * c.RenchanChance *
			approxActionWin(line, c.WinRate, c.CallShapeGain) * w
	}
	return points
}
