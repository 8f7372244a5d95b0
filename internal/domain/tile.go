package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Suit of a tile. Honor covers winds and dragons.
type Suit uint8

const (
	Man Suit = iota
	Pin
	Sou
	Honor
)

func (s Suit) String() string {
	switch s {
	case Man:
		return "m"
	case Pin:
		return "p"
	case Sou:
		return "s"
	default:
		return "z"
	}
}

// Tile is a single mahjong tile. Numeral ranks run 1..9; honor ranks run
// 1..7 in the order east, south, west, north, haku, hatsu, chun. Red marks
// the red five of a numeral suit.
type Tile struct {
	Suit Suit
	Rank uint8
	Red  bool
}

// Honor tiles by name, in wire order.
var (
	East  = Tile{Suit: Honor, Rank: 1}
	South = Tile{Suit: Honor, Rank: 2}
	West  = Tile{Suit: Honor, Rank: 3}
	North = Tile{Suit: Honor, Rank: 4}
	Haku  = Tile{Suit: Honor, Rank: 5}
	Hatsu = Tile{Suit: Honor, Rank: 6}
	Chun  = Tile{Suit: Honor, Rank: 7}
)

const honorLetters = "ESWNPFC"

// String renders the wire notation: "1m".."9s", "5mr" for red fives and a
// single letter E/S/W/N/P/F/C for honors.
func (t Tile) String() string {
	if t.Suit == Honor {
		if t.Rank < 1 || t.Rank > 7 {
			return "?"
		}
		return string(honorLetters[t.Rank-1])
	}
	var b strings.Builder
	b.WriteByte('0' + t.Rank)
	b.WriteString(t.Suit.String())
	if t.Red {
		b.WriteByte('r')
	}
	return b.String()
}

// ParseTile reads the wire notation emitted by String.
func ParseTile(s string) (Tile, error) {
	switch len(s) {
	case 1:
		if i := strings.IndexByte(honorLetters, s[0]); i >= 0 {
			return Tile{Suit: Honor, Rank: uint8(i + 1)}, nil
		}
	case 2, 3:
		r := s[0]
		if r < '1' || r > '9' {
			break
		}
		var suit Suit
		switch s[1] {
		case 'm':
			suit = Man
		case 'p':
			suit = Pin
		case 's':
			suit = Sou
		default:
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
	return Tile{}, fmt.Errorf("bad tile %q", s)
}

// MustTile parses s and panics on error. Test and fixture helper.
func MustTile(s string) Tile {
	t, err := ParseTile(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTiles parses a slice of wire notations.
func ParseTiles(ss []string) ([]Tile, error) {
	out := make([]Tile, 0, len(ss))
	for _, s := range ss {
		t, err := ParseTile(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Zero reports whether t is the zero Tile, which is never a legal tile.
func (t Tile) Zero() bool {
	return t.Rank == 0
}

// Normalize strips the red flag so red and plain fives compare equal.
func (t Tile) Normalize() Tile {
	t.Red = false
	return t
}

// Index34 maps the tile to the dense 0..33 index: man 0..8, pin 9..17,
// sou 18..26, honors 27..33. Red fives map like plain fives.
func (t Tile) Index34() int {
	return int(t.Suit)*9 + int(t.Rank) - 1
}

// TileFrom34 is the inverse of Index34.
func TileFrom34(idx int) Tile {
	return Tile{Suit: Suit(idx / 9), Rank: uint8(idx%9 + 1)}
}

func (t Tile) IsHonor() bool { return t.Suit == Honor }

func (t Tile) IsTerminal() bool {
	return t.Suit != Honor && (t.Rank == 1 || t.Rank == 9)
}

// IsYaochuu reports a terminal or honor tile.
func (t Tile) IsYaochuu() bool { return t.IsHonor() || t.IsTerminal() }

func (t Tile) IsDragon() bool { return t.Suit == Honor && t.Rank >= 5 }

func (t Tile) IsWind() bool { return t.Suit == Honor && t.Rank <= 4 }

// IsYakuhai reports whether a triplet of t scores on its own: any dragon,
// the round wind, or the holder's seat wind.
func (t Tile) IsYakuhai(bakaze, jikaze Tile) bool {
	return t.IsDragon() || t.Normalize() == bakaze.Normalize() || t.Normalize() == jikaze.Normalize()
}

// NextDora returns the dora a dora indicator points at: winds cycle
// E-S-W-N, dragons cycle P-F-C, numerals wrap 9 to 1.
func (t Tile) NextDora() Tile {
	switch {
	case t.IsWind():
		if t.Rank == 4 {
			return Tile{Suit: Honor, Rank: 1}
		}
		return Tile{Suit: Honor, Rank: t.Rank + 1}
	case t.IsDragon():
		if t.Rank == 7 {
			return Tile{Suit: Honor, Rank: 5}
		}
		return Tile{Suit: Honor, Rank: t.Rank + 1}
	default:
		if t.Rank == 9 {
			return Tile{Suit: t.Suit, Rank: 1}
		}
		return Tile{Suit: t.Suit, Rank: t.Rank + 1}
	}
}

// Before orders tiles man, pin, sou, honors, rank ascending, red after plain.
func (t Tile) Before(o Tile) bool {
	if t.Suit != o.Suit {
		return t.Suit < o.Suit
	}
	if t.Rank != o.Rank {
		return t.Rank < o.Rank
	}
	return !t.Red && o.Red
}

// SortTiles orders a hand in place in notation order.
func SortTiles(tiles []Tile) {
	sort.Slice(tiles, func(i, j int) bool { return tiles[i].Before(tiles[j]) })
}

// CountTiles tallies tiles into a 34-bucket histogram, folding red fives
// into their plain bucket.
func CountTiles(tiles []Tile) [34]uint8 {
	var counts [34]uint8
	for _, t := range tiles {
		counts[t.Index34()]++
	}
	return counts
}
