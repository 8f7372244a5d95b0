package domain

import (
	"fmt"
	"strings"
)

// Letter-first notation puts the suit before the rank: "m5", "m5r", "z1".
// Honors are z1..z7 in the same order as the wire letters. Upstream game
// logs use this form, the table protocol uses the wire form; both parse to
// the same Tile.

// ParseLetterTile reads letter-first notation.
func ParseLetterTile(s string) (Tile, error) {
	if len(s) < 2 || len(s) > 3 {
		return Tile{}, fmt.Errorf("bad tile %q", s)
	}
	var suit Suit
	switch s[0] {
	case 'm':
		suit = Man
	case 'p':
		suit = Pin
	case 's':
		suit = Sou
	case 'z':
		suit = Honor
	default:
		return Tile{}, fmt.Errorf("bad tile %q", s)
	}
	r := s[1]
	if suit == Honor {
		if len(s) != 2 || r < '1' || r > '7' {
			return Tile{}, fmt.Errorf("bad tile %q", s)
		}
		return Tile{Suit: Honor, Rank: r - '0'}, nil
	}
	if r < '1' || r > '9' {
		return Tile{}, fmt.Errorf("bad tile %q", s)
	}
	t := Tile{Suit: suit, Rank: r - '0'}
	if len(s) == 3 {
		if s[2] != 'r' || t.Rank != 5 {
			return Tile{}, fmt.Errorf("bad tile %q", s)
		}
		t.Red = true
	}
	return t, nil
}

// LetterString renders t in letter-first notation.
func LetterString(t Tile) string {
	if t.Suit == Honor {
		return fmt.Sprintf("z%d", t.Rank)
	}
	s := fmt.Sprintf("%s%d", t.Suit, t.Rank)
	if t.Red {
		s += "r"
	}
	return s
}

// ParseAnyTile accepts either notation. Wire honors are single letters so
// the forms never collide.
func ParseAnyTile(s string) (Tile, error) {
	if t, err := ParseTile(s); err == nil {
		return t, nil
	}
	return ParseLetterTile(s)
}

// ParseCompactHand reads the compact hand form "123m055p99sEEP": runs of
// digits bind to the next suit letter, 0 marks a red five, and bare honor
// letters stand alone. "11z" style honor runs are accepted too.
func ParseCompactHand(s string) ([]Tile, error) {
	var tiles []Tile
	var pending []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			pending = append(pending, c)
		case c == 'm' || c == 'p' || c == 's' || c == 'z':
			if len(pending) == 0 {
				return nil, fmt.Errorf("bad hand %q: suit %q with no ranks", s, c)
			}
			for _, d := range pending {
				t, err := compactTile(c, d)
				if err != nil {
					return nil, fmt.Errorf("bad hand %q: %w", s, err)
				}
				tiles = append(tiles, t)
			}
			pending = pending[:0]
		case strings.IndexByte(honorLetters, c) >= 0:
			if len(pending) != 0 {
				return nil, fmt.Errorf("bad hand %q: dangling ranks before %q", s, c)
			}
			tiles = append(tiles, Tile{Suit: Honor, Rank: uint8(strings.IndexByte(honorLetters, c) + 1)})
		default:
			return nil, fmt.Errorf("bad hand %q: unexpected %q", s, c)
		}
	}
	if len(pending) != 0 {
		return nil, fmt.Errorf("bad hand %q: trailing ranks", s)
	}
	SortTiles(tiles)
	return tiles, nil
}

func compactTile(suit, digit byte) (Tile, error) {
	var s Suit
	switch suit {
	case 'm':
		s = Man
	case 'p':
		s = Pin
	case 's':
		s = Sou
	case 'z':
		if digit < '1' || digit > '7' {
			return Tile{}, fmt.Errorf("honor rank %q out of range", digit)
		}
		return Tile{Suit: Honor, Rank: digit - '0'}, nil
	}
	if digit == '0' {
		return Tile{Suit: s, Rank: 5, Red: true}, nil
	}
	return Tile{Suit: s, Rank: digit - '0'}, nil
}

// CompactHand renders tiles in the compact form, honors as wire letters.
func CompactHand(tiles []Tile) string {
	sorted := make([]Tile, len(tiles))
	copy(sorted, tiles)
	SortTiles(sorted)

	var b strings.Builder
	var run []Tile
	flush := func() {
		if len(run) == 0 {
			return
		}
		for _, t := range run {
			if t.Red {
				b.WriteByte('0')
			} else {
				b.WriteByte('0' + t.Rank)
			}
		}
		b.WriteString(run[0].Suit.String())
		run = run[:0]
	}
	for _, t := range sorted {
		if t.Suit == Honor {
			flush()
			b.WriteString(t.String())
			continue
		}
		if len(run) > 0 && run[0].Suit != t.Suit {
			flush()
		}
		run = append(run, t)
	}
	flush()
	return b.String()
}
