package brain

import (
	"testing"

	"janshi/internal/domain"
)

func TestSuanPaiAccounting(t *testing.T) {
	s := NewSuanPai(70)

	idx := domain.MustTile("5m").Index34()
	if got := s.Unseen(idx); got != 4 {
		t.Fatalf("fresh unseen = %d, want 4", got)
	}

	s.See(domain.MustTile("5m"))
	s.See(domain.MustTile("5mr"))
	if got := s.Unseen(idx); got != 2 {
		t.Fatalf("unseen after two sightings = %d, want 2", got)
	}
	if s.RedLive(domain.Man) {
		t.Error("red five man should be spent")
	}
	if !s.RedLive(domain.Pin) {
		t.Error("red five pin should still be live")
	}
	if s.RedLive(domain.Honor) {
		t.Error("honor suit has no red five")
	}

	// Counts never go negative even on over-observation.
	for i := 0; i < 6; i++ {
		s.See(domain.East)
	}
	if got := s.Unseen(domain.East.Index34()); got != 0 {
		t.Fatalf("over-observed unseen = %d, want 0", got)
	}
}

func TestSuanPaiObserveInitial(t *testing.T) {
	s := NewSuanPai(70)
	hand, err := domain.ParseCompactHand("123m44p5sEE")
	if err != nil {
		t.Fatal(err)
	}
	s.ObserveInitial(hand, []domain.Tile{domain.MustTile("9s")})

	if got := s.Unseen(domain.East.Index34()); got != 2 {
		t.Errorf("east unseen = %d, want 2", got)
	}
	if got := s.Unseen(domain.MustTile("9s").Index34()); got != 3 {
		t.Errorf("indicator unseen = %d, want 3", got)
	}
}

func TestPaishuBorrowRestores(t *testing.T) {
	s := NewSuanPai(70)
	s.SeeTiles([]domain.Tile{domain.MustTile("1m"), domain.MustTile("1m")})
	p := s.NewPaishu()

	before := *p
	idx := domain.MustTile("1m").Index34()

	restore := p.Borrow(idx)
	if p.Count(idx) != before.Count(idx)-1 {
		t.Fatalf("borrow did not take: %d", p.Count(idx))
	}
	if p.Wall() != before.Wall()-1 {
		t.Fatalf("borrow did not shrink wall: %d", p.Wall())
	}
	restore()
	if *p != before {
		t.Fatalf("restore did not round-trip: %+v vs %+v", *p, before)
	}

	// Nested borrows restore in reverse order.
	r1 := p.Borrow(idx)
	r2 := p.Borrow(idx)
	r2()
	r1()
	if *p != before {
		t.Fatalf("nested restore did not round-trip")
	}
}

func TestPaishuBorrowExhaustedBucket(t *testing.T) {
	s := NewSuanPai(4)
	for i := 0; i < 4; i++ {
		s.See(domain.East)
	}
	p := s.NewPaishu()
	before := *p

	// The bucket is empty; wall still shrinks, and restore must still
	// round-trip exactly rather than inventing a fifth copy.
	restore := p.Borrow(domain.East.Index34())
	if p.Count(domain.East.Index34()) != 0 {
		t.Fatalf("empty bucket went to %d", p.Count(domain.East.Index34()))
	}
	restore()
	if *p != before {
		t.Fatalf("restore after empty borrow: %+v vs %+v", *p, before)
	}
}

func TestPaishuWeightsScaleWithWall(t *testing.T) {
	s := NewSuanPai(70)
	p := s.NewPaishu()

	idx := domain.MustTile("5p").Index34()
	full := p.Val(idx)
	if full <= 0 {
		t.Fatalf("weight should be positive, got %v", full)
	}

	// Half the wall gone means every weight shrinks.
	s2 := NewSuanPai(35)
	half := s2.NewPaishu().Val(idx)
	if half >= full {
		t.Fatalf("weight %v should shrink with wall (full %v)", half, full)
	}
}
