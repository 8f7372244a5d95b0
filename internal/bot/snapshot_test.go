package bot

import (
	"testing"

	"janshi/internal/domain"
)

func TestLegalRiichiOnTenpaiDraw(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, handOf("2m", "3m", "4m", "5m", "6m", "7m", "2p", "3p", "4p", "5p", "6p", "7p", "E")),
		`{"type":"tsumo","actor":0,"pai":"W"}`,
	)
	legal := tr.Snapshot().Legal
	if !legal.Discard {
		t.Fatal("own draw must allow a discard")
	}
	if !legal.Riichi {
		t.Fatal("a closed tenpai hand with wall left should offer riichi")
	}
	if legal.Tsumo {
		t.Fatal("W completes nothing here")
	}
}

func TestLegalClosedTsumo(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, handOf("2m", "3m", "4m", "5m", "6m", "7m", "2p", "3p", "4p", "5p", "6p", "7p", "E")),
		`{"type":"tsumo","actor":0,"pai":"E"}`,
	)
	if !tr.Snapshot().Legal.Tsumo {
		t.Fatal("a closed self-draw win always scores")
	}
}

func TestLegalOpenTsumoNeedsYaku(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, handOf("4m", "5m", "6m", "7m", "8m", "9m", "2p", "3p", "4p", "9s", "2s", "2s", "W")),
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"dahai","actor":1,"pai":"2s","tsumogiri":true}`,
		`{"type":"pon","actor":0,"target":1,"pai":"2s","consumed":["2s","2s"]}`,
		`{"type":"dahai","actor":0,"pai":"W","tsumogiri":false}`,
		`{"type":"tsumo","actor":0,"pai":"9s"}`,
	)
	legal := tr.Snapshot().Legal
	if legal.Tsumo {
		t.Fatal("an open hand with no provable route may not declare the win")
	}
	if !legal.Discard {
		t.Fatal("the draw still has to leave")
	}
}

func TestLegalRonOnSimplesWait(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, tanyaoTenpai),
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"dahai","actor":1,"pai":"7p","tsumogiri":true}`,
	)
	legal := tr.Snapshot().Legal
	if !legal.Ron {
		t.Fatal("an all-simples completion is a scoring ron")
	}
	if legal.ClaimFrom != 1 || legal.ClaimTile != domain.MustTile("7p") {
		t.Fatalf("claim = %v from %d, want 7p from 1", legal.ClaimTile, legal.ClaimFrom)
	}
}

func TestLegalRonScreensYakuless(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, handOf("2m", "3m", "4m", "5m", "6m", "7m", "2p", "3p", "4p", "5p", "6p", "7p", "E")),
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"dahai","actor":1,"pai":"E","tsumogiri":true}`,
	)
	if tr.Snapshot().Legal.Ron {
		t.Fatal("a lone-pair east completes nothing provable; the ron must be passed up")
	}
}

func TestLegalRonBlockedByFuriten(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, tanyaoTenpai),
		`{"type":"tsumo","actor":0,"pai":"4p"}`,
		`{"type":"dahai","actor":0,"pai":"4p","tsumogiri":true}`,
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"dahai","actor":1,"pai":"7p","tsumogiri":true}`,
	)
	if tr.Snapshot().Legal.Ron {
		t.Fatal("having cut a wait ourselves blocks every ron on the hand")
	}
}

func TestLegalPonOptionsWithRed(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, handOf("5p", "5p", "5pr", "1m", "2m", "7m", "8m", "1s", "4s", "9s", "E", "W", "C")),
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"dahai","actor":1,"pai":"5p","tsumogiri":true}`,
	)
	legal := tr.Snapshot().Legal
	if len(legal.Pon) != 2 {
		t.Fatalf("pon options = %d, want plain pair and red pair", len(legal.Pon))
	}
	if legal.Pon[0][0].Red || legal.Pon[0][1].Red {
		t.Fatal("the plain consume option must come first")
	}
	if len(legal.Daiminkan) != 1 || len(legal.Daiminkan[0]) != 3 {
		t.Fatalf("daiminkan = %v, want one three-tile consume", legal.Daiminkan)
	}
}

func TestLegalChiFromLeftOnly(t *testing.T) {
	hand := handOf("2s", "3s", "5s", "6s", "1m", "2m", "7m", "8m", "1p", "9p", "E", "W", "C")

	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, hand),
		`{"type":"tsumo","actor":3,"pai":"?"}`,
		`{"type":"dahai","actor":3,"pai":"4s","tsumogiri":true}`,
	)
	if got := len(tr.Snapshot().Legal.Chi); got != 3 {
		t.Fatalf("chi options from the left seat = %d, want 3", got)
	}

	tr = newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, hand),
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"dahai","actor":1,"pai":"4s","tsumogiri":true}`,
	)
	if len(tr.Snapshot().Legal.Chi) != 0 {
		t.Fatal("only the left seat feeds a chi")
	}
}

func TestLegalDeclaredHandClaimsNothing(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, tanyaoTenpai),
		`{"type":"tsumo","actor":0,"pai":"W"}`,
		`{"type":"reach","actor":0}`,
		`{"type":"dahai","actor":0,"pai":"W","tsumogiri":true}`,
		`{"type":"reach_accepted","actor":0}`,
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"dahai","actor":1,"pai":"8s","tsumogiri":true}`,
	)
	legal := tr.Snapshot().Legal
	if len(legal.Pon) != 0 || len(legal.Chi) != 0 || len(legal.Daiminkan) != 0 {
		t.Fatal("a declared hand may only win off a discard")
	}
}

func TestLegalAnkanOnFourthDraw(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, handOf("2m", "3m", "4m", "5m", "6m", "7m", "8p", "8p", "8p", "2s", "3s", "W", "E")),
		`{"type":"tsumo","actor":0,"pai":"8p"}`,
	)
	legal := tr.Snapshot().Legal
	if len(legal.Ankan) != 1 || len(legal.Ankan[0]) != 4 {
		t.Fatalf("ankan = %v, want the four 8p", legal.Ankan)
	}
}

func TestLegalAnkanUnderRiichiKeepsWaits(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, handOf("2m", "3m", "4m", "5m", "6m", "7m", "8p", "8p", "8p", "E", "E", "3s", "4s")),
		`{"type":"tsumo","actor":0,"pai":"W"}`,
		`{"type":"reach","actor":0}`,
		`{"type":"dahai","actor":0,"pai":"W","tsumogiri":true}`,
		`{"type":"reach_accepted","actor":0}`,
		`{"type":"tsumo","actor":0,"pai":"8p"}`,
	)
	legal := tr.Snapshot().Legal
	if len(legal.Ankan) != 1 {
		t.Fatalf("ankan under riichi = %v, want the wait-preserving quad", legal.Ankan)
	}
	if legal.Riichi {
		t.Fatal("a standing declaration cannot be repeated")
	}
}

func TestLegalKakanAfterPon(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, tanyaoTenpai),
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"dahai","actor":1,"pai":"8s","tsumogiri":true}`,
		`{"type":"pon","actor":0,"target":1,"pai":"8s","consumed":["8s","8s"]}`,
		`{"type":"dahai","actor":0,"pai":"2m","tsumogiri":false}`,
		`{"type":"tsumo","actor":0,"pai":"8s"}`,
	)
	legal := tr.Snapshot().Legal
	if len(legal.Kakan) != 1 || legal.Kakan[0] != domain.MustTile("8s") {
		t.Fatalf("kakan = %v, want the drawn 8s onto the pon", legal.Kakan)
	}
}

func TestLegalChankanRob(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine(0, tanyaoTenpai),
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"kakan","actor":1,"pai":"7p","consumed":["7p","7p","7p"]}`,
	)
	legal := tr.Snapshot().Legal
	if !legal.Ron {
		t.Fatal("an added kan on the wait is robbable")
	}
	if legal.ClaimFrom != 1 {
		t.Fatalf("claim from = %d, want 1", legal.ClaimFrom)
	}
}

func TestLegalNukidoraInSanma(t *testing.T) {
	tr := newTestTracker()
	feed(t, tr,
		`{"type":"start_game","id":0}`,
		kyokuLine3P(sanmaHand),
		`{"type":"tsumo","actor":0,"pai":"W"}`,
	)
	if !tr.Snapshot().Legal.Nuki {
		t.Fatal("a held north is pullable in three-player play")
	}
}
