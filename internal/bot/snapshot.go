package bot

import (
	"janshi/internal/bot/shape"
	"janshi/internal/domain"
)

// Snapshot freezes the current decision point: hand, legality mask and the
// scoring context. Strategies never touch the tracker itself.
func (t *Tracker) Snapshot() *Snapshot {
	snap := &Snapshot{
		Seat:   t.me,
		Hand:   append([]domain.Tile(nil), t.hand...),
		Melds:  append([]Meld(nil), t.melds...),
		View:   &t.view,
		Events: t.events,
	}
	if t.hasDrawn {
		snap.Drawn = t.drawn
	}
	if t.suan != nil {
		snap.Paishu = t.suan.NewPaishu()
	}
	snap.Legal = t.legal()
	snap.Ctx = t.buildContext(&snap.Legal)
	return snap
}

// legal computes the move mask for the last event seen. Everything the
// mask admits is rule-legal; whether it is wise stays with the policies.
func (t *Tracker) legal() Legal {
	var l Legal
	l.ClaimFrom = -1
	if !t.inHand || t.suan == nil {
		return l
	}
	ev := t.lastEvent
	switch {
	case ev.Type == domain.EventTsumo && ev.Actor == t.me && t.hasDrawn:
		t.legalOwnDraw(&l)
	case ev.Type == domain.EventDahai && ev.Actor != t.me:
		t.legalClaim(&l, ev)
	case ev.Type == domain.EventReach && ev.Actor == t.me && !t.reached:
		// Declaration echo: the table waits for the riichi discard.
		l.Discard = true
	case (ev.Type == domain.EventChi || ev.Type == domain.EventPon) && ev.Actor == t.me:
		l.Discard = true
	case ev.Type == domain.EventKakan && ev.Actor != t.me:
		t.legalChankan(&l, ev)
	}
	return l
}

func (t *Tracker) legalOwnDraw(l *Legal) {
	l.Discard = true
	full := t.fullTiles()
	h := shape.FromTiles(full)
	fixed := len(t.melds)

	if t.srch.IsAgari(h, fixed) && t.winnable(full, true) {
		l.Tsumo = true
	}
	if !t.reached && t.closedHand() && t.me < len(t.scores) &&
		t.scores[t.me] >= 1000 && t.view.LiveWall >= 4 &&
		t.srch.Shanten(h, fixed) == 0 {
		l.Riichi = true
	}
	if t.view.LiveWall > 0 {
		t.kanOptions(l, full, h, fixed)
	}
	if t.players == 3 && !t.reached {
		for _, tile := range full {
			if tile == domain.North {
				l.Nuki = true
				break
			}
		}
	}
}

func (t *Tracker) legalClaim(l *Legal, ev domain.Event) {
	tile, err := domain.ParseTile(ev.Pai)
	if err != nil {
		return
	}
	l.ClaimTile = tile
	l.ClaimFrom = ev.Actor

	h13 := shape.FromTiles(t.hand)
	fixed := len(t.melds)
	win := h13
	win[tile.Index34()]++
	if t.srch.IsAgari(win, fixed) && t.winnable(append(t.fullTiles(), tile), false) &&
		!t.furiten(h13, fixed) {
		l.Ron = true
	}

	// Declared hands and the very last discard admit nothing but the win.
	if t.reached || t.view.LiveWall == 0 {
		return
	}

	matches := tilesMatching(t.hand, tile)
	if len(matches) >= 2 {
		l.Pon = pairOptions(matches)
	}
	if len(matches) >= 3 {
		l.Daiminkan = [][]domain.Tile{append([]domain.Tile(nil), matches[:3]...)}
	}
	if t.players == 4 && !tile.IsHonor() &&
		ev.Actor == (t.me+t.players-1)%t.players {
		l.Chi = chiOptions(t.hand, tile)
	}
}

// legalChankan covers robbing an added kan; the rob itself carries the yaku.
func (t *Tracker) legalChankan(l *Legal, ev domain.Event) {
	tile, err := domain.ParseTile(ev.Pai)
	if err != nil {
		return
	}
	h13 := shape.FromTiles(t.hand)
	fixed := len(t.melds)
	win := h13
	win[tile.Index34()]++
	if t.srch.IsAgari(win, fixed) && !t.furiten(h13, fixed) {
		l.Ron = true
		l.ClaimTile = tile
		l.ClaimFrom = ev.Actor
	}
}

func (t *Tracker) kanOptions(l *Legal, full []domain.Tile, h shape.Hand34, fixed int) {
	for idx := 0; idx < 34; idx++ {
		if h[idx] != 4 {
			continue
		}
		if t.reached && !t.ankanKeepsWaits(idx, fixed) {
			continue
		}
		four := make([]domain.Tile, 0, 4)
		for _, tile := range full {
			if tile.Index34() == idx {
				four = append(four, tile)
			}
		}
		l.Ankan = append(l.Ankan, four)
	}
	if t.reached {
		return
	}
	for _, m := range t.melds {
		if m.Kind != MeldPon {
			continue
		}
		want := m.Tiles[0].Index34()
		for _, tile := range full {
			if tile.Index34() == want {
				l.Kakan = append(l.Kakan, tile)
				break
			}
		}
	}
}

// ankanKeepsWaits checks the riichi restriction: the concealed kan must be
// of the drawn tile's group and must leave the wait untouched.
func (t *Tracker) ankanKeepsWaits(idx, fixed int) bool {
	if !t.hasDrawn || t.drawn.Index34() != idx {
		return false
	}
	before := shape.FromTiles(t.hand)
	waitsBefore, _ := t.srch.Waits(before, fixed, nil)

	after := before
	after[idx] -= 3
	waitsAfter, _ := t.srch.Waits(after, fixed+1, nil)

	if len(waitsBefore) != len(waitsAfter) {
		return false
	}
	for i := range waitsBefore {
		if waitsBefore[i] != waitsAfter[i] {
			return false
		}
	}
	return len(waitsAfter) > 0
}

// furiten reports whether the own river holds any tile the hand waits on.
func (t *Tracker) furiten(h13 shape.Hand34, fixed int) bool {
	waits, _ := t.srch.Waits(h13, fixed, nil)
	if len(waits) == 0 {
		return false
	}
	for _, rt := range t.view.Rivers[t.me] {
		for _, w := range waits {
			if rt.Tile.Index34() == w {
				return true
			}
		}
	}
	return false
}

// winnable is the structural yaku screen behind tsumo and ron. It knows the
// shapes a legality check can prove cheaply: riichi, menzen tsumo, yakuhai
// triplets, tanyao, flushes, seven pairs, kokushi. A closed ron that rides
// on nothing but pinfu-grade yaku is passed up rather than risked.
func (t *Tracker) winnable(full []domain.Tile, tsumo bool) bool {
	if t.reached {
		return true
	}
	closed := t.closedHand()
	if closed && tsumo {
		return true
	}

	if yakuhaiTriple(full, t.melds, t.bakaze, t.seatWind()) {
		return true
	}
	if allSimples(full, t.melds) {
		return true
	}
	if oneSuit(full, t.melds) {
		return true
	}
	if closed {
		h := shape.FromTiles(full)
		if shape.IsAgariChiitoi(h) || shape.IsAgariKokushi(h) {
			return true
		}
	}
	return false
}

func yakuhaiTriple(full []domain.Tile, melds []Meld, bakaze, jikaze domain.Tile) bool {
	counts := map[int]int{}
	for _, tile := range full {
		counts[tile.Index34()]++
	}
	for _, m := range melds {
		if m.Kind != MeldChi {
			counts[m.Tiles[0].Index34()] += 3
		}
	}
	for idx, n := range counts {
		if n < 3 {
			continue
		}
		if domain.TileFrom34(idx).IsYakuhai(bakaze, jikaze) {
			return true
		}
	}
	return false
}

func allSimples(full []domain.Tile, melds []Meld) bool {
	for _, tile := range full {
		if tile.IsYaochuu() {
			return false
		}
	}
	for _, m := range melds {
		for _, tile := range m.Tiles {
			if tile.IsYaochuu() {
				return false
			}
		}
	}
	return true
}

func oneSuit(full []domain.Tile, melds []Meld) bool {
	suit := domain.Honor
	check := func(tile domain.Tile) bool {
		if tile.IsHonor() {
			return true
		}
		if suit == domain.Honor {
			suit = tile.Suit
			return true
		}
		return tile.Suit == suit
	}
	for _, tile := range full {
		if !check(tile) {
			return false
		}
	}
	for _, m := range melds {
		for _, tile := range m.Tiles {
			if !check(tile) {
				return false
			}
		}
	}
	return suit != domain.Honor
}

// tilesMatching lists the hand tiles in the claim tile's group, plain
// copies before red so the cheap consume options come first.
func tilesMatching(hand []domain.Tile, claim domain.Tile) []domain.Tile {
	idx := claim.Index34()
	var plain, red []domain.Tile
	for _, tile := range hand {
		if tile.Index34() != idx {
			continue
		}
		if tile.Red {
			red = append(red, tile)
		} else {
			plain = append(plain, tile)
		}
	}
	return append(plain, red...)
}

// pairOptions enumerates the distinct two-tile consume sets for a pon.
func pairOptions(matches []domain.Tile) [][]domain.Tile {
	seen := map[string]bool{}
	var out [][]domain.Tile
	for i := 0; i < len(matches)-1; i++ {
		for j := i + 1; j < len(matches); j++ {
			key := matches[i].String() + "|" + matches[j].String()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, []domain.Tile{matches[i], matches[j]})
		}
	}
	return out
}

// chiOptions enumerates the distinct consume pairs that chain the claim
// tile into a run, red variants included.
func chiOptions(hand []domain.Tile, claim domain.Tile) [][]domain.Tile {
	seen := map[string]bool{}
	var out [][]domain.Tile
	for _, d := range [][2]int{{-2, -1}, {-1, 1}, {1, 2}} {
		r1, r2 := int(claim.Rank)+d[0], int(claim.Rank)+d[1]
		if r1 < 1 || r2 > 9 {
			continue
		}
		for _, a := range rankVariants(hand, claim.Suit, r1) {
			for _, b := range rankVariants(hand, claim.Suit, r2) {
				key := a.String() + "|" + b.String()
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, []domain.Tile{a, b})
			}
		}
	}
	return out
}

func rankVariants(hand []domain.Tile, suit domain.Suit, rank int) []domain.Tile {
	seen := map[bool]bool{}
	var out []domain.Tile
	for _, tile := range hand {
		if tile.Suit != suit || int(tile.Rank) != rank || seen[tile.Red] {
			continue
		}
		seen[tile.Red] = true
		out = append(out, tile)
	}
	return out
}
