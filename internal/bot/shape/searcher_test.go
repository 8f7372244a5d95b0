package shape

import (
	"testing"

	"janshi/internal/domain"
)

func hand(t *testing.T, compact string) Hand34 {
	t.Helper()
	tiles, err := domain.ParseCompactHand(compact)
	if err != nil {
		t.Fatal(err)
	}
	return FromTiles(tiles)
}

func TestSearcherKokushi(t *testing.T) {
	s := NewSearcher()

	// 13-sided kokushi tenpai: all 13 terminals and honors, no pair.
	h13 := hand(t, "19m19p19s1234567z")
	if got := s.Shanten(h13, 0); got != 0 {
		t.Fatalf("kokushi shanten = %d, want 0", got)
	}

	h14 := h13
	h14[domain.MustTile("1m").Index34()]++
	if !s.IsAgari(h14, 0) {
		t.Fatal("kokushi agari expected")
	}
}

func TestSearcherChiitoi(t *testing.T) {
	s := NewSearcher()

	// 6 pairs + 1 single: chiitoi tenpai waiting on the single.
	h13 := hand(t, "112233m1122p11sE")
	if got := s.Shanten(h13, 0); got != 0 {
		t.Fatalf("chiitoi shanten = %d, want 0", got)
	}
	waits, ukeire := s.Waits(h13, 0, nil)
	if len(waits) != 1 || waits[0] != domain.East.Index34() {
		t.Fatalf("chiitoi waits = %v, want [E]", waits)
	}
	if ukeire != 3 {
		t.Fatalf("chiitoi ukeire = %d, want 3", ukeire)
	}

	h14 := h13
	h14[domain.East.Index34()]++
	if !s.IsAgari(h14, 0) {
		t.Fatal("chiitoi agari expected")
	}
}

func TestSearcherNormalAgari(t *testing.T) {
	s := NewSearcher()

	if !s.IsAgari(hand(t, "123789m123p123sEE"), 0) {
		t.Fatal("four runs plus pair should be agari")
	}
	// One meld open, three concealed runs plus pair.
	if !s.IsAgari(hand(t, "789m123p123sEE"), 1) {
		t.Fatal("agari with fixed meld expected")
	}
	// Open hands never count chiitoi or kokushi.
	if got := s.Shanten(hand(t, "19m19p19s1234567z"), 1); got == 0 {
		t.Fatalf("kokushi must not count with open meld, shanten = %d", got)
	}
}

func TestSearcherShantenLadder(t *testing.T) {
	s := NewSearcher()

	tests := []struct {
		name    string
		compact string
		want    int
	}{
		{"complete hand", "123789m123p123sEE", -1},
		{"ryanmen tenpai", "12378m123p123sEE", 0},
		{"kanchan tenpai", "1237m123p123s9mEE", 0},
		{"iishanten", "1267m123p123sEEW", 1},
		{"shanpon tenpai", "123m456p789sEEWW", 0},
		{"pair blocks with floater", "1239m456p66sEEWW", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Shanten(hand(t, tt.compact), 0); got != tt.want {
				t.Fatalf("shanten(%s) = %d, want %d", tt.compact, got, tt.want)
			}
		})
	}
}

func TestSearcherSeekCandidates(t *testing.T) {
	s := NewSearcher()

	// Discarding 1s from this 14-tile hand leaves 78m waiting on 6m/9m.
	h14 := hand(t, "12378m123p1123sEE")
	cands := s.SeekCandidates(h14, 0, nil)

	var found *Candidate
	for i := range cands {
		if cands[i].Discard == domain.MustTile("1s").Index34() {
			found = &cands[i]
		}
	}
	if found == nil {
		t.Fatalf("no candidate discarding 1s in %v", cands)
	}
	wantWaits := map[int]bool{
		domain.MustTile("6m").Index34(): true,
		domain.MustTile("9m").Index34(): true,
	}
	for _, w := range found.Waits {
		if !wantWaits[w] {
			t.Fatalf("unexpected wait %v", domain.TileFrom34(w))
		}
		delete(wantWaits, w)
	}
	if len(wantWaits) != 0 {
		t.Fatalf("missing waits %v", wantWaits)
	}
	if found.Ukeire != 8 {
		t.Fatalf("ukeire = %d, want 8", found.Ukeire)
	}

	// Visible copies shrink the count.
	var visible [34]uint8
	visible[domain.MustTile("6m").Index34()] = 2
	cands = s.SeekCandidates(h14, 0, &visible)
	for i := range cands {
		if cands[i].Discard == domain.MustTile("1s").Index34() {
			if cands[i].Ukeire != 6 {
				t.Fatalf("ukeire with 2 visible = %d, want 6", cands[i].Ukeire)
			}
		}
	}
}

func TestSearcherImprovers(t *testing.T) {
	s := NewSearcher()

	// 12m kanchan/penchan: 3m completes the run and reaches tenpai.
	h := hand(t, "12567m123p123sEE")
	base := s.Shanten(h, 0)
	if base != 0 {
		// 12m + EE: actually already tenpai on 3m.
		t.Fatalf("base shanten = %d, want 0", base)
	}
	improvers := s.Improvers(h, 0)
	want := domain.MustTile("3m").Index34()
	found := false
	for _, i := range improvers {
		if i == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("improvers %v missing 3m", improvers)
	}
}
