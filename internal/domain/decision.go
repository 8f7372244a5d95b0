package domain

import (
	"encoding/json"
	"fmt"
)

// Action is the closed set of moves the agent can answer with.
type Action uint8

const (
	ActNone Action = iota
	ActDiscard
	ActRiichi
	ActChi
	ActPon
	ActDaiminkan
	ActKakan
	ActAnkan
	ActNukidora
	ActTsumoAgari
	ActRon
)

func (a Action) String() string {
	switch a {
	case ActNone:
		return "none"
	case ActDiscard:
		return "dahai"
	case ActRiichi:
		return "reach"
	case ActChi:
		return "chi"
	case ActPon:
		return "pon"
	case ActDaiminkan:
		return "daiminkan"
	case ActKakan:
		return "kakan"
	case ActAnkan:
		return "ankan"
	case ActNukidora:
		return "nukidora"
	case ActTsumoAgari:
		return "tsumo"
	case ActRon:
		return "ron"
	default:
		return fmt.Sprintf("action(%d)", uint8(a))
	}
}

// Decision is one resolved move. Tile and Consumed are meaningful only for
// the actions that carry them; Target is the claimed-from seat or -1.
type Decision struct {
	Action    Action
	Tile      Tile
	Consumed  []Tile
	Target    int
	Tsumogiri bool
}

// Record is the wire form of a Decision, one JSON object per line.
type Record struct {
	Type      string   `json:"type"`
	Actor     *int     `json:"actor,omitempty"`
	Target    *int     `json:"target,omitempty"`
	Pai       string   `json:"pai,omitempty"`
	Consumed  []string `json:"consumed,omitempty"`
	Tsumogiri *bool    `json:"tsumogiri,omitempty"`
}

func intp(v int) *int { return &v }

func boolp(v bool) *bool { return &v }

// Record converts the decision to its wire form for the given seat.
func (d Decision) Record(actor int) Record {
	switch d.Action {
	case ActDiscard:
		return Record{Type: EventDahai, Actor: intp(actor), Pai: d.Tile.String(), Tsumogiri: boolp(d.Tsumogiri)}
	case ActRiichi:
		return Record{Type: EventReach, Actor: intp(actor)}
	case ActChi, ActPon:
		return Record{
			Type:     d.Action.String(),
			Actor:    intp(actor),
			Target:   intp(d.Target),
			Pai:      d.Tile.String(),
			Consumed: tileStrings(d.Consumed),
		}
	case ActDaiminkan:
		return Record{
			Type:     EventDaiminkan,
			Actor:    intp(actor),
			Target:   intp(d.Target),
			Pai:      d.Tile.String(),
			Consumed: tileStrings(d.Consumed),
		}
	case ActKakan:
		return Record{Type: EventKakan, Actor: intp(actor), Pai: d.Tile.String()}
	case ActAnkan:
		return Record{Type: EventAnkan, Actor: intp(actor), Consumed: tileStrings(d.Consumed)}
	case ActNukidora:
		return Record{Type: EventNukidora, Actor: intp(actor), Pai: North.String()}
	case ActTsumoAgari:
		return Record{Type: "tsumo", Actor: intp(actor)}
	case ActRon:
		return Record{Type: "ron", Actor: intp(actor), Target: intp(d.Target)}
	default:
		return Record{Type: EventNone}
	}
}

func tileStrings(tiles []Tile) []string {
	out := make([]string, len(tiles))
	for i, t := range tiles {
		out[i] = t.String()
	}
	return out
}

// ParseRecord decodes a wire record back into a Decision. It accepts the
// combined "hora" form some engines emit for wins, splitting it on whether
// target equals actor.
func ParseRecord(line []byte) (Decision, error) {
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return Decision{}, fmt.Errorf("decode record: %w", err)
	}
	d := Decision{Target: -1}
	if r.Target != nil {
		d.Target = *r.Target
	}
	var err error
	switch r.Type {
	case EventDahai:
		d.Action = ActDiscard
		d.Tile, err = ParseTile(r.Pai)
		d.Tsumogiri = r.Tsumogiri != nil && *r.Tsumogiri
	case EventReach:
		d.Action = ActRiichi
	case EventChi:
		d.Action = ActChi
		d.Tile, d.Consumed, err = claimTiles(r)
	case EventPon:
		d.Action = ActPon
		d.Tile, d.Consumed, err = claimTiles(r)
	case EventDaiminkan:
		d.Action = ActDaiminkan
		d.Tile, d.Consumed, err = claimTiles(r)
	case EventKakan:
		d.Action = ActKakan
		d.Tile, err = ParseTile(r.Pai)
	case EventAnkan:
		d.Action = ActAnkan
		d.Consumed, err = ParseTiles(r.Consumed)
	case EventNukidora:
		d.Action = ActNukidora
		d.Tile = North
	case "tsumo":
		d.Action = ActTsumoAgari
	case "ron":
		d.Action = ActRon
	case EventHora:
		if r.Actor != nil && r.Target != nil && *r.Actor == *r.Target {
			d.Action = ActTsumoAgari
		} else {
			d.Action = ActRon
		}
	case EventNone, "pass":
		d.Action = ActNone
	default:
		return Decision{}, fmt.Errorf("decode record: unknown type %q", r.Type)
	}
	if err != nil {
		return Decision{}, fmt.Errorf("decode record: %w", err)
	}
	return d, nil
}

func claimTiles(r Record) (Tile, []Tile, error) {
	t, err := ParseTile(r.Pai)
	if err != nil {
		return Tile{}, nil, err
	}
	consumed, err := ParseTiles(r.Consumed)
	if err != nil {
		return Tile{}, nil, err
	}
	return t, consumed, nil
}
