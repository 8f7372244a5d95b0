package bot

import (
	"encoding/json"
	"fmt"
	"testing"

	"janshi/internal/config"
	"janshi/internal/domain"
)

func newTestTracker() *Tracker {
	return NewTracker(config.Default().Engine)
}

func mustEvent(t *testing.T, line string) domain.Event {
	t.Helper()
	ev, err := domain.ParseEvent([]byte(line))
	if err != nil {
		t.Fatalf("parse event %s: %v", line, err)
	}
	return ev
}

func feed(t *testing.T, tr *Tracker, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if err := tr.Feed(mustEvent(t, line)); err != nil {
			t.Fatalf("feed %s: %v", line, err)
		}
	}
}

func unknownTehai() []string {
	out := make([]string, 13)
	for i := range out {
		out[i] = "?"
	}
	return out
}

// kyokuLine builds an east-1 start_kyoku with the given hand at the given
// seat and hidden hands everywhere else.
func kyokuLine(seat int, hand []string) string {
	tehais := make([][]string, 4)
	for i := range tehais {
		if i == seat {
			tehais[i] = hand
		} else {
			tehais[i] = unknownTehai()
		}
	}
	b, _ := json.Marshal(tehais)
	return fmt.Sprintf(`{"type":"start_kyoku","bakaze":"E","dora_marker":"1s","kyoku":1,"honba":0,"kyotaku":0,"oya":0,"scores":[25000,25000,25000,25000],"tehais":%s}`, b)
}

// kyokuLine3P is the sanma variant: three live seats, a dead fourth.
func kyokuLine3P(hand []string) string {
	tehais := [][]string{hand, unknownTehai(), unknownTehai(), {}}
	b, _ := json.Marshal(tehais)
	return fmt.Sprintf(`{"type":"start_kyoku","bakaze":"E","dora_marker":"1s","kyoku":1,"honba":0,"kyotaku":0,"oya":0,"scores":[35000,35000,35000,0],"tehais":%s}`, b)
}

func handOf(names ...string) []string { return names }

var tanyaoTenpai = handOf("2m", "3m", "4m", "5m", "6m", "7m", "2p", "3p", "4p", "5p", "6p", "8s", "8s")

// sanmaHand holds only tiles that exist in a three-player wall.
var sanmaHand = handOf("1m", "9m", "2p", "3p", "4p", "5p", "6p", "7p", "3s", "4s", "5s", "8s", "N")

func TestTrackerSeatFromStartGame(t *testing.T) {
	tr := newTestTracker()
	if tr.InHand() {
		t.Fatal("fresh tracker should not be in a hand")
	}
	feed(t, tr, `{"type":"start_game","id":2,"names":["A","B","C","D"]}`)
	if tr.Seat() != 2 {
		t.Fatalf("seat = %d, want 2", tr.Seat())
	}

	feed(t, tr, kyokuLine(2, tanyaoTenpai))
	if !tr.InHand() {
		t.Fatal("start_kyoku should open a hand")
	}
	snap := tr.Snapshot()
	if len(snap.Hand) != 13 {
		t.Fatalf("hand size = %d, want 13", len(snap.Hand))
	}
	for i := 1; i < len(snap.Hand); i++ {
		if snap.Hand[i].Index34() < snap.Hand[i-1].Index34() {
			t.Fatal("hand should be sorted")
		}
	}
}

func TestTrackerOwnDrawAndTsumogiri(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, tanyaoTenpai),
		`{"type":"tsumo","actor":0,"pai":"W"}`,
	)
	snap := tr.Snapshot()
	if snap.Drawn != domain.West {
		t.Fatalf("drawn = %v, want W", snap.Drawn)
	}

	feed(t, tr, `{"type":"dahai","actor":0,"pai":"W","tsumogiri":true}`)
	snap = tr.Snapshot()
	if !snap.Drawn.Zero() {
		t.Fatal("tsumogiri should clear the draw slot")
	}
	if len(snap.Hand) != 13 {
		t.Fatalf("hand size after tsumogiri = %d, want 13", len(snap.Hand))
	}
	if snap.Ctx.StasisTurns != 1 {
		t.Fatalf("stasis = %d, want 1", snap.Ctx.StasisTurns)
	}
}

func TestTrackerHandCutKeepsDraw(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, tanyaoTenpai),
		`{"type":"tsumo","actor":0,"pai":"W"}`,
		`{"type":"dahai","actor":0,"pai":"8s","tsumogiri":false}`,
	)
	snap := tr.Snapshot()
	holdsWest := false
	eights := 0
	for _, tile := range snap.Hand {
		if tile == domain.West {
			holdsWest = true
		}
		if tile == domain.MustTile("8s") {
			eights++
		}
	}
	if !holdsWest {
		t.Fatal("drawn tile should join the hand after a hand cut")
	}
	if eights != 1 {
		t.Fatalf("8s copies = %d, want 1", eights)
	}
	if snap.Ctx.StasisTurns != 0 {
		t.Fatal("a hand cut resets stasis")
	}
}

func TestTrackerOwnPonBuildsMeld(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, tanyaoTenpai),
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"dahai","actor":1,"pai":"8s","tsumogiri":true}`,
		`{"type":"pon","actor":0,"target":1,"pai":"8s","consumed":["8s","8s"]}`,
	)
	snap := tr.Snapshot()
	if len(snap.Melds) != 1 {
		t.Fatalf("melds = %d, want 1", len(snap.Melds))
	}
	m := snap.Melds[0]
	if m.Kind != MeldPon || m.From != 1 || len(m.Tiles) != 3 {
		t.Fatalf("meld = %+v, want pon of three from seat 1", m)
	}
	if len(snap.Hand) != 11 {
		t.Fatalf("hand size after pon = %d, want 11", len(snap.Hand))
	}
	if !snap.Legal.Discard {
		t.Fatal("a pon must be followed by a discard")
	}
}

func TestTrackerReachAccounting(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, tanyaoTenpai),
		`{"type":"tsumo","actor":2,"pai":"?"}`,
		`{"type":"reach","actor":2}`,
		`{"type":"dahai","actor":2,"pai":"C","tsumogiri":true}`,
		`{"type":"reach_accepted","actor":2}`,
	)
	snap := tr.Snapshot()
	if !snap.View.Riichi[2] {
		t.Fatal("seat 2 should be marked declared")
	}
	if snap.Ctx.Scores[2] != 24000 {
		t.Fatalf("declarer score = %d, want 24000", snap.Ctx.Scores[2])
	}
	if snap.Ctx.Kyotaku != 1 {
		t.Fatalf("kyotaku = %d, want 1", snap.Ctx.Kyotaku)
	}
	if tr.Reached() {
		t.Fatal("another seat's declaration is not ours")
	}
}

func TestTrackerOwnReachAccepted(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, tanyaoTenpai),
		`{"type":"tsumo","actor":0,"pai":"W"}`,
		`{"type":"reach","actor":0}`,
		`{"type":"dahai","actor":0,"pai":"W","tsumogiri":true}`,
		`{"type":"reach_accepted","actor":0}`,
	)
	if !tr.Reached() {
		t.Fatal("own declaration should stick")
	}
	snap := tr.Snapshot()
	if !snap.Ctx.ReachDeclared {
		t.Fatal("context should carry the declaration")
	}
}

func TestTrackerHoraAppliesDeltas(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, tanyaoTenpai),
		`{"type":"hora","actor":1,"target":2,"deltas":[0,8000,-8000,0]}`,
	)
	snap := tr.Snapshot()
	if snap.Ctx.Scores[1] != 33000 || snap.Ctx.Scores[2] != 17000 {
		t.Fatalf("scores = %v, want transfer applied", snap.Ctx.Scores)
	}
}

func TestTrackerNukidoraPlaysAsDiscard(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine3P(sanmaHand),
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"nukidora","actor":1,"pai":"N"}`,
	)
	snap := tr.Snapshot()
	river := snap.View.Rivers[1]
	if len(river) != 1 || river[0].Tile != domain.North {
		t.Fatalf("river = %v, want the pulled north", river)
	}
	if snap.Ctx.Players != 3 {
		t.Fatalf("players = %d, want 3", snap.Ctx.Players)
	}
}

func TestTrackerWallCountdown(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr, `{"type":"start_game","id":0}`, kyokuLine(0, tanyaoTenpai))
	start := tr.Snapshot().View.LiveWall
	feed(t, tr,
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"dahai","actor":1,"pai":"1m","tsumogiri":true}`,
		`{"type":"tsumo","actor":2,"pai":"?"}`,
	)
	if got := tr.Snapshot().View.LiveWall; got != start-2 {
		t.Fatalf("live wall = %d, want %d", got, start-2)
	}
}
