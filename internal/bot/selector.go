package bot

import (
	"janshi/internal/bot/brain"
	"janshi/internal/config"
	"janshi/internal/domain"
)

// selector makes the final discard pick from the ranked candidates,
// trading hand value against the table situation so a doomed hand folds
// through its safest tiles instead of feeding the attacker.
type selector struct {
	cfg config.LastAvoid
}

func newSelector(cfg config.LastAvoid) *selector {
	return &selector{cfg: cfg}
}

// globalRisk scores how dangerous the table is as a whole, independent
// of any single tile.
func (s *selector) globalRisk(c *Context, view *brain.TableView) float64 {
	risk := 0.0
	if c.Bakaze != domain.East {
		risk += 0.8
	}
	if c.LiveWall <= 18 {
		risk += 0.7
	}
	switch {
	case c.RiichiCount >= 2:
		risk += 1.2
	case c.RiichiCount == 1:
		risk += 0.6
	}
	if view != nil && view.Dealer != view.Me && view.Riichi[view.Dealer] {
		risk += 0.4
	}
	return risk
}

// choose picks the discard. A hopeless last place under real pressure
// folds outright; a risky table keeps only candidates under the tight
// danger bar; otherwise the best-valued candidate stands.
func (s *selector) choose(c *Context, view *brain.TableView, choices []discardChoice) (discardChoice, bool) {
	if len(choices) == 0 {
		return discardChoice{}, false
	}
	if !s.cfg.Enabled {
		return choices[0], true
	}

	risk := s.globalRisk(c, view)
	rank := c.Rank()
	diffUp := c.DiffToAbove()

	if rank == 4 && diffUp >= s.cfg.MustFoldPointDiff && risk >= 1.5 {
		return safestChoice(choices), true
	}

	bar := s.cfg.DangerThresholdLow
	if rank == 4 || risk >= 1.2 {
		bar = s.cfg.DangerThresholdHigh
	}
	for _, ch := range choices {
		if ch.Danger <= bar {
			return ch, true
		}
	}
	return safestChoice(choices), true
}

// safestChoice returns the lowest-danger candidate, value breaking ties.
func safestChoice(choices []discardChoice) discardChoice {
	best := choices[0]
	for _, ch := range choices[1:] {
		if ch.Danger < best.Danger ||
			(ch.Danger == best.Danger && ch.Eval > best.Eval) {
			best = ch
		}
	}
	return best
}
