package bot

import (
	"context"

	"janshi/internal/bot/brain"
	"janshi/internal/bot/shape"
	"janshi/internal/config"
	"janshi/internal/domain"
)

// localStrategy is the built-in decision stack: the expected-value engine
// grants the action permissions, the lookahead ranks the discards and the
// last-avoid selector has the final word on what leaves the hand.
type localStrategy struct {
	tuning Tuning
	look   *lookahead
	pick   *selector
}

func newLocalStrategy(est shape.Estimator, dangerCfg config.Danger, avoidCfg config.LastAvoid, t Tuning) *localStrategy {
	return &localStrategy{
		tuning: t,
		look:   newLookahead(est, brain.NewDanger(dangerCfg), t),
		pick:   newSelector(avoidCfg),
	}
}

var _ Strategy = (*localStrategy)(nil)

func (s *localStrategy) Decide(_ context.Context, snap *Snapshot) (domain.Decision, error) {
	legal := &snap.Legal
	c := &snap.Ctx

	// Wins need no pricing.
	if legal.Tsumo {
		return domain.Decision{Action: domain.ActTsumoAgari, Target: -1}, nil
	}
	if legal.Ron {
		return domain.Decision{Action: domain.ActRon, Target: legal.ClaimFrom}, nil
	}

	verdict := Decide(c, s.tuning)
	threatLevel, _, _ := s.look.tableThreat(snap.View, c)
	_, pushAdd, gainAdd := s.look.placementAdjust(c)

	if !legal.Discard {
		return s.decideClaim(snap, &verdict, threatLevel, pushAdd), nil
	}
	return s.decideTurn(snap, &verdict, threatLevel, gainAdd), nil
}

// decideClaim answers another seat's discard: take the meld when the
// engine allows the line and the table is calm enough, pass otherwise.
func (s *localStrategy) decideClaim(snap *Snapshot, v *Verdict, threatLevel, pushAdd float64) domain.Decision {
	legal := &snap.Legal
	c := &snap.Ctx

	if len(legal.Daiminkan) > 0 && v.AllowKan && s.look.kanGate(threatLevel) {
		return domain.Decision{
			Action:   domain.ActDaiminkan,
			Tile:     legal.ClaimTile,
			Consumed: legal.Daiminkan[0],
			Target:   legal.ClaimFrom,
		}
	}
	if !s.look.callGate(c, threatLevel, pushAdd) {
		return domain.Decision{Action: domain.ActNone, Target: -1}
	}
	if len(legal.Pon) > 0 && v.AllowPon {
		return domain.Decision{
			Action:   domain.ActPon,
			Tile:     legal.ClaimTile,
			Consumed: s.bestConsume(snap, legal.Pon),
			Target:   legal.ClaimFrom,
		}
	}
	if len(legal.Chi) > 0 && v.AllowChi {
		return domain.Decision{
			Action:   domain.ActChi,
			Tile:     legal.ClaimTile,
			Consumed: s.bestConsume(snap, legal.Chi),
			Target:   legal.ClaimFrom,
		}
	}
	return domain.Decision{Action: domain.ActNone, Target: -1}
}

// decideTurn answers an own draw: kans and the north pull first, then the
// ranked discard, with the riichi declaration folded onto the best cut.
func (s *localStrategy) decideTurn(snap *Snapshot, v *Verdict, threatLevel, gainAdd float64) domain.Decision {
	legal := &snap.Legal
	c := &snap.Ctx

	if v.AllowKan && s.look.kanGate(threatLevel) {
		if len(legal.Ankan) > 0 {
			return domain.Decision{
				Action:   domain.ActAnkan,
				Consumed: s.bestConsume(snap, legal.Ankan),
				Target:   -1,
			}
		}
		if len(legal.Kakan) > 0 {
			return domain.Decision{Action: domain.ActKakan, Tile: legal.Kakan[0], Target: -1}
		}
	}
	if legal.Nuki {
		return domain.Decision{Action: domain.ActNukidora, Tile: domain.North, Target: -1}
	}

	choices := s.look.rankDiscards(snap)
	choices = filterForbidden(choices, snap)
	if declaringNow(snap) {
		choices = keepTenpai(choices)
	}
	choice, ok := s.pick.choose(c, snap.View, choices)
	if !ok {
		return fallbackDiscard(snap)
	}

	if legal.Riichi && v.AllowReach && s.look.riichiGate(c, choice, gainAdd) {
		return domain.Decision{Action: domain.ActRiichi, Target: -1}
	}
	return domain.Decision{
		Action:    domain.ActDiscard,
		Tile:      choice.Tile,
		Target:    -1,
		Tsumogiri: !snap.Drawn.Zero() && choice.Tile == snap.Drawn,
	}
}

// bestConsume picks the consume set that leaves the cheapest shape; ties
// keep red fives in hand.
func (s *localStrategy) bestConsume(snap *Snapshot, options [][]domain.Tile) []domain.Tile {
	if len(options) == 1 {
		return options[0]
	}
	h := shape.FromTiles(snap.Hand)
	fixed := len(snap.Melds)

	best := options[0]
	bestSh := 99
	bestRed := 99
	for _, opt := range options {
		after := h
		bad := false
		reds := 0
		for _, tile := range opt {
			idx := tile.Index34()
			if after[idx] == 0 {
				bad = true
				break
			}
			after[idx]--
			if tile.Red {
				reds++
			}
		}
		if bad {
			continue
		}
		sh := s.look.est.Shanten(after, fixed+1)
		if sh < bestSh || (sh == bestSh && reds < bestRed) {
			best, bestSh, bestRed = opt, sh, reds
		}
	}
	return best
}

// declaringNow marks the window between the reach echo and its acceptance:
// the next cut must keep tenpai.
func declaringNow(snap *Snapshot) bool {
	return snap.View != nil && snap.Seat < len(snap.View.Riichi) &&
		snap.View.Riichi[snap.Seat] && !snap.Ctx.ReachDeclared
}

func keepTenpai(choices []discardChoice) []discardChoice {
	out := choices[:0]
	for _, ch := range choices {
		if ch.Shanten == 0 {
			out = append(out, ch)
		}
	}
	return out
}

// filterForbidden drops the swap-call cut: straight after an own chi or
// pon the claimed tile itself may not leave the hand.
func filterForbidden(choices []discardChoice, snap *Snapshot) []discardChoice {
	if len(snap.Events) == 0 {
		return choices
	}
	ev := snap.Events[len(snap.Events)-1]
	if ev.Actor != snap.Seat ||
		(ev.Type != domain.EventChi && ev.Type != domain.EventPon) {
		return choices
	}
	claim, err := domain.ParseTile(ev.Pai)
	if err != nil {
		return choices
	}
	out := choices[:0]
	for _, ch := range choices {
		if ch.Tile.Normalize() == claim.Normalize() {
			continue
		}
		out = append(out, ch)
	}
	if len(out) == 0 {
		return choices
	}
	return out
}

func fallbackDiscard(snap *Snapshot) domain.Decision {
	if !snap.Drawn.Zero() {
		return domain.Decision{
			Action: domain.ActDiscard, Tile: snap.Drawn, Target: -1, Tsumogiri: true,
		}
	}
	if len(snap.Hand) > 0 {
		return domain.Decision{
			Action: domain.ActDiscard, Tile: snap.Hand[len(snap.Hand)-1], Target: -1,
		}
	}
	return domain.Decision{Action: domain.ActNone, Target: -1}
}
