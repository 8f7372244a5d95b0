// Package brain holds the agent's private view of the table: which tiles
// are still live, how dangerous a discard is against each opponent, and
// what each opponent's habits suggest.
package brain

import "janshi/internal/domain"

// SuanPai counts the tiles the agent has not seen yet. Everything visible
// feeds it: the own hand, every river, melds, dora indicators.
type SuanPai struct {
	unseen  [34]int8
	redSeen [3]bool
	live    int
}

// NewSuanPai starts with four unseen copies of every tile and the given
// live wall size.
func NewSuanPai(liveWall int) *SuanPai {
	s := &SuanPai{live: liveWall}
	for i := range s.unseen {
		s.unseen[i] = 4
	}
	return s
}

// ObserveInitial folds in the dealt hand and the first dora indicator.
func (s *SuanPai) ObserveInitial(hand []domain.Tile, indicators []domain.Tile) {
	s.SeeTiles(hand)
	s.SeeTiles(indicators)
}

// See marks one more copy of t as visible.
func (s *SuanPai) See(t domain.Tile) {
	idx := t.Index34()
	if s.unseen[idx] > 0 {
		s.unseen[idx]--
	}
	if t.Red {
		s.redSeen[t.Suit] = true
	}
}

func (s *SuanPai) SeeTiles(tiles []domain.Tile) {
	for _, t := range tiles {
		s.See(t)
	}
}

// Unseen returns how many copies of the 34-index are still unaccounted for.
func (s *SuanPai) Unseen(idx int) int { return int(s.unseen[idx]) }

// RedLive reports whether the red five of a numeral suit is still unseen.
func (s *SuanPai) RedLive(suit domain.Suit) bool {
	if suit == domain.Honor {
		return false
	}
	return !s.redSeen[suit]
}

// Live returns the remaining wall draw count.
func (s *SuanPai) Live() int { return s.live }

// SetLive syncs the wall counter; the tracker owns the authoritative count.
func (s *SuanPai) SetLive(n int) {
	if n < 0 {
		n = 0
	}
	s.live = n
}

// Paishu is a weighted snapshot of the live wall for lookahead. Weights
// are unseen counts rescaled by how much wall is left, so deep lookahead
// lines discount draws the wall can no longer supply.
type Paishu struct {
	counts [34]int
	wall   int
	vals   [34]float64
}

// NewPaishu snapshots the current unseen counts and wall.
func (s *SuanPai) NewPaishu() *Paishu {
	p := &Paishu{wall: s.live}
	for i := range p.counts {
		p.counts[i] = int(s.unseen[i])
	}
	p.rescale()
	return p
}

// Val returns the draw weight of the 34-index.
func (p *Paishu) Val(idx int) float64 { return p.vals[idx] }

// Count returns the raw unseen count of the 34-index.
func (p *Paishu) Count(idx int) int { return p.counts[idx] }

// Wall returns the snapshot's remaining wall size.
func (p *Paishu) Wall() int { return p.wall }

// Borrow speculatively draws one copy of idx and returns the restore that
// puts the snapshot back exactly as it was. Restores nest LIFO.
func (p *Paishu) Borrow(idx int) func() {
	tookCount := p.counts[idx] > 0
	if tookCount {
		p.counts[idx]--
	}
	tookWall := p.wall > 0
	if tookWall {
		p.wall--
	}
	p.rescale()
	return func() {
		if tookCount {
			p.counts[idx]++
		}
		if tookWall {
			p.wall++
		}
		p.rescale()
	}
}

func (p *Paishu) rescale() {
	total := 0
	for _, c := range p.counts {
		total += c
	}
	if total == 0 {
		p.vals = [34]float64{}
		return
	}
	scale := float64(p.wall) / float64(total)
	for i, c := range p.counts {
		p.vals[i] = float64(c) * scale
	}
}
