package domain

import (
	"encoding/json"
	"fmt"
)

// Table event types, one JSON object per line on the wire.
const (
	EventStartGame     = "start_game"
	EventStartKyoku    = "start_kyoku"
	EventTsumo         = "tsumo"
	EventDahai         = "dahai"
	EventReach         = "reach"
	EventReachAccepted = "reach_accepted"
	EventDora          = "dora"
	EventChi           = "chi"
	EventPon           = "pon"
	EventDaiminkan     = "daiminkan"
	EventKakan         = "kakan"
	EventAnkan         = "ankan"
	EventNukidora      = "nukidora"
	EventHora          = "hora"
	EventRyukyoku      = "ryukyoku"
	EventEndKyoku      = "end_kyoku"
	EventEndGame       = "end_game"
	EventNone          = "none"
)

// Event is one decoded table event. Integer fields use -1 for "absent"
// because seat 0 is a valid actor. Tile fields stay in wire notation; the
// tracker parses them where it needs typed tiles. Raw keeps the original
// line so events can be relayed byte for byte.
type Event struct {
	Type       string
	ID         int // start_game: our seat
	Actor      int
	Target     int
	Pai        string
	Consumed   []string
	Tehais     [][]string
	DoraMarker string
	Oya        int
	Bakaze     string
	Kyoku      int
	Honba      int
	Kyotaku    int
	Scores     []int
	Deltas     []int
	Tsumogiri  bool
	Names      []string

	Raw json.RawMessage
}

type wireEvent struct {
	Type       string     `json:"type"`
	ID         *int       `json:"id"`
	Actor      *int       `json:"actor"`
	Target     *int       `json:"target"`
	Pai        string     `json:"pai"`
	Consumed   []string   `json:"consumed"`
	Tehais     [][]string `json:"tehais"`
	DoraMarker string     `json:"dora_marker"`
	Oya        *int       `json:"oya"`
	Bakaze     string     `json:"bakaze"`
	Kyoku      *int       `json:"kyoku"`
	Honba      *int       `json:"honba"`
	Kyotaku    *int       `json:"kyotaku"`
	Scores     []int      `json:"scores"`
	Deltas     []int      `json:"deltas"`
	Tsumogiri  *bool      `json:"tsumogiri"`
	Names      []string   `json:"names"`
}

func orMinusOne(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}

// ParseEvent decodes one event line.
func ParseEvent(line []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(line, &w); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if w.Type == "" {
		return Event{}, fmt.Errorf("decode event: missing type")
	}
	e := Event{
		Type:       w.Type,
		ID:         orMinusOne(w.ID),
		Actor:      orMinusOne(w.Actor),
		Target:     orMinusOne(w.Target),
		Pai:        w.Pai,
		Consumed:   w.Consumed,
		Tehais:     w.Tehais,
		DoraMarker: w.DoraMarker,
		Oya:        orMinusOne(w.Oya),
		Bakaze:     w.Bakaze,
		Kyoku:      orMinusOne(w.Kyoku),
		Honba:      orMinusOne(w.Honba),
		Kyotaku:    orMinusOne(w.Kyotaku),
		Scores:     w.Scores,
		Deltas:     w.Deltas,
		Tsumogiri:  w.Tsumogiri != nil && *w.Tsumogiri,
		Names:      w.Names,
	}
	e.Raw = append(json.RawMessage(nil), line...)
	return e, nil
}

// MarshalJSON re-emits Raw verbatim when present; synthesized events are
// encoded from the set fields, omitting absent ones.
func (e Event) MarshalJSON() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}
	m := map[string]any{"type": e.Type}
	if e.ID >= 0 {
		m["id"] = e.ID
	}
	if e.Actor >= 0 {
		m["actor"] = e.Actor
	}
	if e.Target >= 0 {
		m["target"] = e.Target
	}
	if e.Pai != "" {
		m["pai"] = e.Pai
	}
	if len(e.Consumed) > 0 {
		m["consumed"] = e.Consumed
	}
	if len(e.Tehais) > 0 {
		m["tehais"] = e.Tehais
	}
	if e.DoraMarker != "" {
		m["dora_marker"] = e.DoraMarker
	}
	if e.Oya >= 0 {
		m["oya"] = e.Oya
	}
	if e.Bakaze != "" {
		m["bakaze"] = e.Bakaze
	}
	if e.Kyoku >= 0 {
		m["kyoku"] = e.Kyoku
	}
	if e.Honba >= 0 {
		m["honba"] = e.Honba
	}
	if e.Kyotaku >= 0 {
		m["kyotaku"] = e.Kyotaku
	}
	if len(e.Scores) > 0 {
		m["scores"] = e.Scores
	}
	if len(e.Deltas) > 0 {
		m["deltas"] = e.Deltas
	}
	if e.Type == EventDahai {
		m["tsumogiri"] = e.Tsumogiri
	}
	if len(e.Names) > 0 {
		m["names"] = e.Names
	}
	return json.Marshal(m)
}

// SynthDahai builds a discard event that did not come off the wire, used
// when a north-tile draw is rewritten as a discard in three-player play.
func SynthDahai(actor int, pai string, tsumogiri bool) Event {
	return Event{
		Type:      EventDahai,
		ID:        -1,
		Actor:     actor,
		Target:    -1,
		Pai:       pai,
		Oya:       -1,
		Kyoku:     -1,
		Honba:     -1,
		Kyotaku:   -1,
		Tsumogiri: tsumogiri,
	}
}
