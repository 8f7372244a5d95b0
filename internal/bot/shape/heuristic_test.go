package shape

import (
	"testing"

	"janshi/internal/domain"
)

func TestHeuristicShantenOrdering(t *testing.T) {
	var est Heuristic

	// The coarse scale only needs to rank shapes: a near-complete hand
	// must score better than a scattered one.
	good := hand(t, "12345678m123p55p")
	bad := hand(t, "159m159p159sEWNC")

	if g, b := est.Shanten(good, 0), est.Shanten(bad, 0); g >= b {
		t.Fatalf("good hand %d should rank below scattered hand %d", g, b)
	}
	if got := est.Shanten(bad, 0); got != 3 {
		t.Fatalf("scattered hand = %d, want 3", got)
	}
}

func TestHeuristicShantenBounds(t *testing.T) {
	var est Heuristic
	hands := []string{
		"123789m123p123sEE",
		"1122334455667m",
		"19m19p19s1234567z",
		"5m",
	}
	for _, compact := range hands {
		got := est.Shanten(hand(t, compact), 0)
		if got < 0 || got > 3 {
			t.Errorf("shanten(%s) = %d, outside 0..3", compact, got)
		}
	}
}

func TestHeuristicMeldsCount(t *testing.T) {
	var est Heuristic

	// Two open melds leave seven concealed tiles; the open sets must keep
	// the scale comparable to a closed hand of the same completeness.
	concealed := hand(t, "123m55p89s")
	withMelds := est.Shanten(concealed, 2)
	without := est.Shanten(concealed, 0)
	if withMelds >= without {
		t.Fatalf("open melds should improve the score: %d vs %d", withMelds, without)
	}
}

func TestHeuristicImprovers(t *testing.T) {
	var est Heuristic

	h := hand(t, "46m111p")
	improvers := est.Improvers(h, 0)

	want := map[int]bool{
		domain.MustTile("2m").Index34(): true, // extends 4m down
		domain.MustTile("5m").Index34(): true, // fills 46m
		domain.MustTile("4m").Index34(): true, // pairs up
		domain.MustTile("2p").Index34(): true, // neighbor of 1p
	}
	got := map[int]bool{}
	for _, i := range improvers {
		got[i] = true
	}
	for idx := range want {
		if !got[idx] {
			t.Errorf("improvers missing %v: %v", domain.TileFrom34(idx), improvers)
		}
	}
	// 1p already holds three copies in hand plus one would be fine, but a
	// full bucket must be excluded.
	full := h
	full[domain.MustTile("1p").Index34()] = 4
	for _, i := range est.Improvers(full, 0) {
		if i == domain.MustTile("1p").Index34() {
			t.Error("full bucket offered as improver")
		}
	}
	// Honors never suggest neighbors.
	honors := hand(t, "EE")
	for _, i := range est.Improvers(honors, 0) {
		if i != domain.East.Index34() {
			t.Errorf("honor hand suggested %v", domain.TileFrom34(i))
		}
	}
}
