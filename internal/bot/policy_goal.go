package bot

import (
	"math"
	"sort"

	"janshi/internal/config"
)

// stepGain rewards closing a point gap: the shorter the clock, the more
// each thousand points of shortfall is worth chasing.
func stepGain(need, effective float64, turns int) float64 {
	gap := math.Max(0, need-effective)
	k := 0.0025 * (1 + float64(max(0, 5-min(5, turns))))
	return 1 + k*gap/1000
}

// goalPressure multiplies an EV by how far the action's payout moves the
// seat toward top, with a half-weight pull toward second.
func goalPressure(c *Context, effective float64) float64 {
	my := float64(c.Scores[c.Me])
	others := make([]float64, 0, len(c.Scores)-1)
	for seat, s := range c.Scores {
		if seat != c.Me {
			others = append(others, float64(s))
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(others)))

	needTop := math.Max(0, others[0]-my)
	needSecond := 0.0
	if len(others) > 1 {
		needSecond = math.Max(0, others[1]-my)
	}
	p := stepGain(needTop, effective, c.TurnsLeft)
	p *= 0.5*stepGain(needSecond, effective, c.TurnsLeft) + 0.5
	return p
}

// gainThresholds are the payout rungs the targeting ladder climbs, from
// the cheapest hands up through baiman.
var gainThresholds = [...]float64{200, 500, 800, 1200, 2000, 3900, 5200, 8000, 12000, 16000}

// goalTargeting scales an EV by how well the payout serves the placement
// goal: each cleared rung compounds, good waits and a long clock help,
// and the dealer's repeat value rides on top.
func goalTargeting(c *Context, ev, effective float64) float64 {
	step := 1.0
	strength := 1 + 0.01*float64(max(0, 5-min(5, c.TurnsLeft)))
	for _, th := range gainThresholds {
		if effective < th {
			break
		}
		step *= 1.015 * strength
	}
	step *= 1 + 0.03*c.GoodWait
	step *= 0.9 + 0.1*remainRatio(c)

	if c.AllLast {
		switch {
		case effective >= 16000:
			step *= 1.10
		case effective >= 12000:
			step *= 1.08
		case effective >= 8000:
			step *= 1.06
		}
	}
	switch {
	case c.NeedSecond >= 0.9:
		step *= 1.08
	case c.NeedSecond >= 0.7:
		step *= 1.04
	default:
		step *= 0.96
	}
	if c.AllLast {
		if c.NeedTop >= 0.9 {
			step *= 1.08
		} else if c.NeedTop < 0.6 {
			step *= 0.95
		}
	}
	step *= 0.9 + 0.2*c.WinRate
	step += renchanValue(c)
	return ev * step * goalPressure(c, effective)
}

// endgameAdjust layers the score-level rules onto an EV: crossing the
// return threshold, the dealer's stop options in all-last, and sudden
// death targets.
func endgameAdjust(line scoreLine, c *Context, ev, effective float64, eng config.Engine) float64 {
	mul, add := 1.0, 0.0
	my := float64(c.Scores[c.Me])
	firstAfterGain := my+effective > float64(c.BestOther())
	canCross := my+effective >= float64(eng.WestInTarget)

	if c.AllLast && c.IsDealer() {
		if canCross {
			mul *= 1.10
			add += 0.01 * effective / 1000
		}
		if eng.AllowAgariyame && firstAfterGain && canCross {
			mul *= 1.08
			if line == lineReach {
				mul *= 1.02
			}
		}
		if eng.AllowTenpaiyame && firstAfterGain && c.TurnsLeft <= 2 {
			add += 0.02 * c.TempaiRate * effective / 1000
		}
	}
	if c.Rank() == 1 && !canCross && c.TurnsLeft <= 4 {
		if line == lineReach || line == lineCall {
			mul *= 1.04
		} else {
			mul *= 0.98
		}
	}
	if c.AllLast && c.Rank() != 1 && firstAfterGain && canCross {
		mul *= 1.05
	}
	if !c.AllLast && eng.SuddenDeathAfterWest && c.TargetPoints > 0 &&
		my+effective >= float64(c.TargetPoints) {
		mul *= 1.03
	}
	return ev*mul + add
}

// goalDrivenOverride boosts an EV when the hand's payout covers a known
// rank-up shortfall outright, or scales with the chance of getting there
// when it falls short.
func goalDrivenOverride(c *Context, ev float64) float64 {
	need := float64(c.RankUpNeed)
	if need <= 0 {
		return ev
	}
	bp := math.Max(1000, c.BasePoints) * 1.2
	if bp >= need {
		return ev * 1.25
	}
	pHit := math.Min(1, c.WinRate*(0.3+float64(c.Ukeire)/20)*(1+0.05*float64(c.TurnsLeft)))
	short := 0.6
	if need-bp <= 2000 {
		short = 1
	}
	return ev * (1 + 0.15*pHit*short)
}

// tempaiNotenAdjust prices the exhaustive-draw payments: tenpai lines
// earn the settlement as the hand ages, noten lines pay it. A seat that
// must reach tenpai, last in all-last or the dealer holding a stop
// option, feels both sides harder.
func tempaiNotenAdjust(c *Context, ev float64, tenpaiLine bool, eng config.Engine) float64 {
	stage := phase(c)
	scale := tenpaiValueScale * eng.UmaPointUnit * (0.3 + 1.7*stage)
	must := (c.AllLast && c.Rank() == 4) ||
		(c.AllLast && c.IsDealer() && eng.AllowTenpaiyame && c.Rank() == 1 && c.TurnsLeft <= 2)
	if must {
		scale *= 2.5
	}
	if tenpaiLine {
		if stage < 0.6 && c.WinRate <= 0.12 && !must {
			return ev - scale*(0.5-c.WinRate)
		}
		return ev + scale*(0.25+0.75*c.WinRate)
	}
	notenScale := scale
	if stage < 0.4 && !must {
		notenScale *= 0.3
	}
	return ev - notenScale*(0.2+0.8*stage)*(0.5+0.5*(1-c.WinRate))
}

// futureKeepBoost credits lines that keep the dealer's seat alive.
func futureKeepBoost(c *Context, ev float64) float64 {
	return ev + 0.0005*c.OyaFutureGain
}

// topSafetyBufferAdjust shaves thin pushes from a leading seat with no
// safe tiles banked for the coming turns. Big hands are exempt unless
// the all-last tenpai case forces the trade.
func topSafetyBufferAdjust(c *Context, ev, bp float64, tenpaiLine bool) float64 {
	lead := float64(c.LeadMargin())
	if coverage(c) >= 0.9 || c.Rank() != 1 || lead <= 0 || c.Round <= 4 {
		return ev
	}
	if bp >= 4000 && !(c.AllLast && tenpaiLine && lead > 0) {
		return ev
	}
	penalty := (0.03 + 0.07*phase(c)) *
		(1 + math.Min(0.4, math.Max(0, (lead-4000)/20000)))
	return ev * math.Max(0.85, 1-penalty)
}
