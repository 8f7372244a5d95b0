package bot

import "math"

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// calibratedProbability sharpens or flattens a raw estimate in logit
// space. a > 1 trusts the estimate more, b shifts it. A NaN estimate
// calibrates to zero rather than poisoning the comparisons downstream.
func calibratedProbability(p, a, b float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	p = clampRange(p, 1e-6, 1-1e-6)
	return sigmoid(a*logit(p) + b)
}

// kyotakuHonbaEV is the expected table-stick pickup: a thousand per riichi
// stick and three hundred per honba, realized only on a win.
func kyotakuHonbaEV(winRate float64, kyotaku, honba int) float64 {
	return winRate * (float64(kyotaku)*1000 + float64(honba)*300)
}

// speedGain scales acceptance width by the draws left to use it.
func speedGain(ukeire, draws int) float64 {
	d := draws
	if d < 1 {
		d = 1
	}
	return (float64(ukeire) / 20) * math.Sqrt(float64(d))
}

// speedAdjustedWinRate folds the hand's acceptance into the win estimate.
func speedAdjustedWinRate(winRate float64, ukeire, draws int) float64 {
	return clamp01(winRate * (1 + speedGain(ukeire, draws)))
}

// pushThreshold is the win-to-deal-in ratio a push must clear. The deal,
// a short clock and last place all lower the bar.
func pushThreshold(c *Context) float64 {
	thr := 1.1
	if c.IsDealer() {
		thr = 1.0
	}
	switch {
	case c.TurnsLeft <= 2:
		thr -= 0.2
	case c.TurnsLeft <= 5:
		thr -= 0.15
	}
	if c.Rank() == 4 {
		thr -= 0.2
	}
	if thr < 0.4 {
		thr = 0.4
	}
	return thr
}

// shouldPush gates open calls on the win-to-deal-in ratio.
func shouldPush(winRate, dealInRate float64, c *Context) bool {
	if dealInRate < 1e-6 {
		dealInRate = 1e-6
	}
	return winRate/dealInRate >= pushThreshold(c)
}
