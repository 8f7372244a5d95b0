package bot

import (
	"fmt"

	"janshi/internal/bot/brain"
	"janshi/internal/bot/shape"
	"janshi/internal/config"
	"janshi/internal/domain"
)

// Tracker mirrors the table for one seat out of the event stream: the
// own hand, every river, the declarations, the live wall and the score
// table. It owns all legality questions; strategies only ever see the
// snapshots it builds.
type Tracker struct {
	me      int
	players int
	scores  []int
	bakaze  domain.Tile
	kyoku   int
	honba   int
	kyotaku int

	hand     []domain.Tile
	drawn    domain.Tile
	hasDrawn bool
	melds    []Meld
	reached  bool

	view     brain.TableView
	suan     *brain.SuanPai
	profiles [4]*brain.Profile
	turn     int
	stasis   int

	lastSelfDraw string
	lastEvent    domain.Event
	events       []domain.Event
	inHand       bool

	srch *shape.Searcher
	eng  config.Engine
}

// NewTracker builds a tracker for a table that has not started yet. The
// seat is learned from the start_game event.
func NewTracker(eng config.Engine) *Tracker {
	t := &Tracker{
		players: 4,
		scores:  []int{25000, 25000, 25000, 25000},
		bakaze:  domain.East,
		kyoku:   1,
		srch:    shape.NewSearcher(),
		eng:     eng,
	}
	for i := range t.profiles {
		t.profiles[i] = brain.NewProfile()
	}
	return t
}

// Seat returns the own seat as learned from start_game, zero before that.
func (t *Tracker) Seat() int { return t.me }

// InHand reports whether a hand is being played.
func (t *Tracker) InHand() bool { return t.inHand }

// Reached reports whether the own declaration stands.
func (t *Tracker) Reached() bool { return t.reached }

// Feed applies one event to the mirror. Unknown event types pass
// through untouched; malformed tile notation is an error.
func (t *Tracker) Feed(ev domain.Event) error {
	if ev.Type == domain.EventNukidora {
		// A pulled north plays like a discard of it. The rewrite keeps
		// every downstream consumer on a single river model.
		tsumogiri := ev.Actor == t.me && t.lastSelfDraw == "N"
		ev = domain.SynthDahai(ev.Actor, "N", tsumogiri)
	}

	switch ev.Type {
	case domain.EventStartGame:
		t.startGame(ev)
	case domain.EventStartKyoku:
		if err := t.startKyoku(ev); err != nil {
			return err
		}
	case domain.EventTsumo:
		if err := t.onTsumo(ev); err != nil {
			return err
		}
	case domain.EventDahai:
		if err := t.onDahai(ev); err != nil {
			return err
		}
	case domain.EventReach:
		t.onReach(ev)
	case domain.EventReachAccepted:
		t.onReachAccepted(ev)
	case domain.EventDora:
		if err := t.onDora(ev); err != nil {
			return err
		}
	case domain.EventChi, domain.EventPon, domain.EventDaiminkan:
		if err := t.onClaim(ev); err != nil {
			return err
		}
	case domain.EventKakan, domain.EventAnkan:
		if err := t.onOwnKan(ev); err != nil {
			return err
		}
	case domain.EventHora:
		t.applyDeltas(ev.Deltas)
		t.kyotaku = 0
	case domain.EventRyukyoku:
		t.applyDeltas(ev.Deltas)
	case domain.EventEndKyoku:
		t.inHand = false
	case domain.EventEndGame, domain.EventNone:
	}

	t.lastEvent = ev
	t.events = append(t.events, ev)
	return nil
}

func (t *Tracker) startGame(ev domain.Event) {
	if ev.ID >= 0 {
		t.me = ev.ID
	}
	t.players = 4
	t.scores = []int{25000, 25000, 25000, 25000}
	t.bakaze = domain.East
	t.kyoku = 1
	t.honba = 0
	t.kyotaku = 0
	t.events = nil
	t.inHand = false
}

// threePlayerScores is the sanma opening: three live seats and a dead
// fourth.
func threePlayerScores(scores []int) bool {
	if len(scores) != 4 {
		return false
	}
	return scores[0] == 35000 && scores[1] == 35000 &&
		scores[2] == 35000 && scores[3] == 0
}

func (t *Tracker) startKyoku(ev domain.Event) error {
	if len(ev.Scores) > 0 {
		t.scores = append([]int(nil), ev.Scores...)
		if threePlayerScores(ev.Scores) {
			t.players = 3
		}
	}
	if ev.Bakaze != "" {
		w, err := domain.ParseTile(ev.Bakaze)
		if err != nil {
			return fmt.Errorf("start_kyoku: %w", err)
		}
		t.bakaze = w
	}
	if ev.Kyoku > 0 {
		t.kyoku = ev.Kyoku
	}
	if ev.Honba >= 0 {
		t.honba = ev.Honba
	}
	if ev.Kyotaku >= 0 {
		t.kyotaku = ev.Kyotaku
	}

	live := t.eng.InitLiveTiles4P
	if t.players == 3 {
		live = t.eng.InitLiveTiles3P
	}
	t.view = brain.TableView{
		Me:       t.me,
		Dealer:   ev.Oya,
		LiveWall: live,
	}
	for i := range t.view.RiichiTurn {
		t.view.RiichiTurn[i] = -1
	}

	t.hand = t.hand[:0]
	if t.me < len(ev.Tehais) {
		tiles, err := domain.ParseTiles(ev.Tehais[t.me])
		if err != nil {
			return fmt.Errorf("start_kyoku tehai: %w", err)
		}
		t.hand = tiles
	}
	domain.SortTiles(t.hand)

	t.drawn = domain.Tile{}
	t.hasDrawn = false
	t.melds = t.melds[:0]
	t.reached = false
	t.turn = 0
	t.stasis = 0
	t.lastSelfDraw = ""
	t.inHand = true

	t.suan = brain.NewSuanPai(live)
	if ev.DoraMarker != "" {
		ind, err := domain.ParseTile(ev.DoraMarker)
		if err != nil {
			return fmt.Errorf("start_kyoku dora: %w", err)
		}
		t.view.DoraIndicators = append(t.view.DoraIndicators, ind)
	}
	t.suan.ObserveInitial(t.hand, t.view.DoraIndicators)
	t.view.Hand = t.hand

	for _, p := range t.profiles {
		p.Reset()
	}
	return nil
}

func (t *Tracker) onTsumo(ev domain.Event) error {
	t.view.LiveWall--
	t.suan.SetLive(t.view.LiveWall)
	if ev.Actor != t.me {
		return nil
	}
	tile, err := domain.ParseTile(ev.Pai)
	if err != nil {
		return fmt.Errorf("tsumo: %w", err)
	}
	t.drawn = tile
	t.hasDrawn = true
	t.lastSelfDraw = ev.Pai
	t.suan.See(tile)
	return nil
}

func (t *Tracker) onDahai(ev domain.Event) error {
	tile, err := domain.ParseTile(ev.Pai)
	if err != nil {
		return fmt.Errorf("dahai: %w", err)
	}
	if ev.Actor >= 0 && ev.Actor < len(t.view.Rivers) {
		t.view.Rivers[ev.Actor] = append(t.view.Rivers[ev.Actor],
			brain.RiverTile{Tile: tile, Tsumogiri: ev.Tsumogiri})
	}

	if ev.Actor != t.me {
		t.suan.See(tile)
		underFire := t.riichiCountOthers() > 0
		if ev.Actor >= 0 && ev.Actor < len(t.profiles) {
			t.profiles[ev.Actor].RecordDiscard(tile, ev.Tsumogiri, underFire)
		}
		return nil
	}

	// Own cut: the tile leaves either the draw slot or the hand.
	t.turn++
	if t.hasDrawn && ev.Pai == t.lastSelfDraw && tile == t.drawn {
		t.stasis++
	} else {
		if !t.removeFromHand(tile) {
			return fmt.Errorf("dahai: %s not in hand", ev.Pai)
		}
		if t.hasDrawn {
			t.hand = append(t.hand, t.drawn)
		}
		t.stasis = 0
	}
	t.hasDrawn = false
	t.drawn = domain.Tile{}
	domain.SortTiles(t.hand)
	t.view.Hand = t.hand
	return nil
}

func (t *Tracker) onReach(ev domain.Event) {
	if ev.Actor < 0 || ev.Actor >= len(t.view.Riichi) {
		return
	}
	t.view.Riichi[ev.Actor] = true
	t.view.RiichiTurn[ev.Actor] = len(t.view.Rivers[ev.Actor])
	t.profiles[ev.Actor].RecordRiichi(len(t.view.Rivers[ev.Actor]))
}

func (t *Tracker) onReachAccepted(ev domain.Event) {
	t.kyotaku++
	if ev.Actor >= 0 && ev.Actor < len(t.scores) {
		t.scores[ev.Actor] -= 1000
	}
	if ev.Actor == t.me {
		t.reached = true
	}
}

func (t *Tracker) onDora(ev domain.Event) error {
	ind, err := domain.ParseTile(ev.DoraMarker)
	if err != nil {
		return fmt.Errorf("dora: %w", err)
	}
	t.view.DoraIndicators = append(t.view.DoraIndicators, ind)
	t.suan.See(ind)
	return nil
}

func (t *Tracker) onClaim(ev domain.Event) error {
	consumed, err := domain.ParseTiles(ev.Consumed)
	if err != nil {
		return fmt.Errorf("%s: %w", ev.Type, err)
	}
	claimed, err := domain.ParseTile(ev.Pai)
	if err != nil {
		return fmt.Errorf("%s: %w", ev.Type, err)
	}

	if ev.Type == domain.EventDaiminkan {
		t.view.LiveWall--
		t.suan.SetLive(t.view.LiveWall)
	}

	if ev.Actor != t.me {
		t.suan.SeeTiles(consumed)
		if ev.Actor >= 0 && ev.Actor < len(t.profiles) {
			t.profiles[ev.Actor].RecordCall()
		}
		return nil
	}

	for _, tile := range consumed {
		if !t.removeFromHand(tile) {
			return fmt.Errorf("%s: %s not in hand", ev.Type, tile)
		}
	}
	kind := MeldChi
	switch ev.Type {
	case domain.EventPon:
		kind = MeldPon
	case domain.EventDaiminkan:
		kind = MeldKanOpen
	}
	t.melds = append(t.melds, Meld{
		Kind:  kind,
		Tiles: append(append([]domain.Tile(nil), consumed...), claimed),
		From:  ev.Target,
	})
	t.hasDrawn = false
	t.view.Hand = t.hand
	return nil
}

func (t *Tracker) onOwnKan(ev domain.Event) error {
	t.view.LiveWall--
	t.suan.SetLive(t.view.LiveWall)

	if ev.Actor != t.me {
		if ev.Type == domain.EventAnkan {
			consumed, err := domain.ParseTiles(ev.Consumed)
			if err != nil {
				return fmt.Errorf("ankan: %w", err)
			}
			t.suan.SeeTiles(consumed)
		} else if ev.Pai != "" {
			tile, err := domain.ParseTile(ev.Pai)
			if err != nil {
				return fmt.Errorf("kakan: %w", err)
			}
			t.suan.See(tile)
		}
		return nil
	}

	if ev.Type == domain.EventAnkan {
		consumed, err := domain.ParseTiles(ev.Consumed)
		if err != nil {
			return fmt.Errorf("ankan: %w", err)
		}
		if t.hasDrawn {
			t.hand = append(t.hand, t.drawn)
			t.hasDrawn = false
			t.drawn = domain.Tile{}
		}
		for _, tile := range consumed {
			if !t.removeFromHand(tile) {
				return fmt.Errorf("ankan: %s not in hand", tile)
			}
		}
		t.melds = append(t.melds, Meld{Kind: MeldKanClosed, Tiles: consumed, From: -1})
	} else {
		tile, err := domain.ParseTile(ev.Pai)
		if err != nil {
			return fmt.Errorf("kakan: %w", err)
		}
		if t.hasDrawn && tile == t.drawn {
			t.hasDrawn = false
			t.drawn = domain.Tile{}
		} else if !t.removeFromHand(tile) {
			return fmt.Errorf("kakan: %s not in hand", ev.Pai)
		}
		for i := range t.melds {
			if t.melds[i].Kind == MeldPon &&
				t.melds[i].Tiles[0].Normalize() == tile.Normalize() {
				t.melds[i].Kind = MeldKanAdded
				t.melds[i].Tiles = append(t.melds[i].Tiles, tile)
				break
			}
		}
	}
	domain.SortTiles(t.hand)
	t.view.Hand = t.hand
	return nil
}

func (t *Tracker) applyDeltas(deltas []int) {
	for i, d := range deltas {
		if i < len(t.scores) {
			t.scores[i] += d
		}
	}
}

func (t *Tracker) removeFromHand(tile domain.Tile) bool {
	for i, h := range t.hand {
		if h == tile {
			t.hand = append(t.hand[:i], t.hand[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Tracker) riichiCountOthers() int {
	n := 0
	for seat, r := range t.view.Riichi {
		if r && seat != t.me {
			n++
		}
	}
	return n
}

// closedHand reports whether the hand still counts as concealed; closed
// kans do not open it.
func (t *Tracker) closedHand() bool {
	for _, m := range t.melds {
		if m.Kind != MeldKanClosed {
			return false
		}
	}
	return true
}

func (t *Tracker) fullTiles() []domain.Tile {
	tiles := append([]domain.Tile(nil), t.hand...)
	if t.hasDrawn {
		tiles = append(tiles, t.drawn)
	}
	return tiles
}

// seatWind is the own seat wind tile for the current deal.
func (t *Tracker) seatWind() domain.Tile {
	winds := []domain.Tile{domain.East, domain.South, domain.West, domain.North}
	return winds[(t.me-t.view.Dealer+t.players)%t.players]
}
