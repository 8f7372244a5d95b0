package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"janshi/internal/config"
	"janshi/internal/domain"
	"janshi/internal/ports"
	"janshi/internal/store"
)

const testKyoku = `{"type":"start_kyoku","bakaze":"E","dora_marker":"1s","kyoku":1,"honba":0,"kyotaku":0,"oya":0,"scores":[25000,25000,25000,25000],"tehais":[["1m","4m","9m","2p","6p","9p","1s","5s","8s","E","S","W","P"],["?","?","?","?","?","?","?","?","?","?","?","?","?"],["?","?","?","?","?","?","?","?","?","?","?","?","?"],["?","?","?","?","?","?","?","?","?","?","?","?","?"]]}`

func testService(t *testing.T, priors store.PriorsStore, solver ports.ExternalSolver) *Service {
	t.Helper()
	return NewService(config.Default(), priors, solver)
}

func parseAll(t *testing.T, lines ...string) []domain.Event {
	t.Helper()
	out := make([]domain.Event, 0, len(lines))
	for _, line := range lines {
		ev, err := domain.ParseEvent([]byte(line))
		if err != nil {
			t.Fatalf("parse %s: %v", line, err)
		}
		out = append(out, ev)
	}
	return out
}

func TestServiceSessionLifecycle(t *testing.T) {
	svc := testService(t, store.NewMemory(), nil)
	defer svc.Close()

	id, err := svc.NewSession()
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if id == "" {
		t.Fatal("empty session id")
	}
	if svc.Sessions() != 1 {
		t.Fatalf("sessions = %d, want 1", svc.Sessions())
	}

	if _, err := svc.React(context.Background(), id, nil); !errors.Is(err, ErrNoEvents) {
		t.Fatalf("err = %v, want ErrNoEvents", err)
	}
	if _, err := svc.React(context.Background(), "", parseAll(t, `{"type":"none"}`)); !errors.Is(err, ErrBadSession) {
		t.Fatalf("err = %v, want ErrBadSession", err)
	}

	svc.Drop(id)
	if svc.Sessions() != 0 {
		t.Fatalf("sessions = %d after drop, want 0", svc.Sessions())
	}
}

func TestServiceLazySessionAndEndGame(t *testing.T) {
	svc := testService(t, nil, nil)
	defer svc.Close()

	rec, err := svc.React(context.Background(), "table-1", parseAll(t,
		`{"type":"start_game","id":0,"names":["janshi","aka","bob","cho"]}`,
	))
	if err != nil {
		t.Fatalf("react: %v", err)
	}
	if rec.Type != domain.EventNone {
		t.Fatalf("record = %s, want a pass on start_game", rec.Type)
	}
	if svc.Sessions() != 1 {
		t.Fatalf("sessions = %d, want the lazily created one", svc.Sessions())
	}

	if _, err := svc.React(context.Background(), "table-1", parseAll(t, `{"type":"end_game"}`)); err != nil {
		t.Fatalf("react: %v", err)
	}
	if svc.Sessions() != 0 {
		t.Fatalf("sessions = %d, end_game must retire the table", svc.Sessions())
	}
}

func TestServicePriorsRoundTrip(t *testing.T) {
	priors := store.NewMemory()
	ctx := context.Background()
	if err := priors.Put(ctx, "aka", store.Priors{Aggression: 0.9, Defense: 0.1, Hands: 5}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	svc := testService(t, priors, nil)
	defer svc.Close()

	if _, err := svc.React(ctx, "t", parseAll(t,
		`{"type":"start_game","id":0,"names":["janshi","aka","bob","cho"]}`,
		testKyoku,
	)); err != nil {
		t.Fatalf("react: %v", err)
	}

	// Four cuts from seat 1 make the hand worth folding into the career
	// read; the second deal folds it, end_game writes it back.
	if _, err := svc.React(ctx, "t", parseAll(t,
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"dahai","actor":1,"pai":"1m","tsumogiri":true}`,
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"dahai","actor":1,"pai":"9p","tsumogiri":true}`,
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"dahai","actor":1,"pai":"2s","tsumogiri":true}`,
		`{"type":"tsumo","actor":1,"pai":"?"}`,
		`{"type":"dahai","actor":1,"pai":"W","tsumogiri":true}`,
		testKyoku,
		`{"type":"end_game"}`,
	)); err != nil {
		t.Fatalf("react: %v", err)
	}

	got, ok, err := priors.Get(ctx, "aka")
	if err != nil || !ok {
		t.Fatalf("get aka = ok %v err %v", ok, err)
	}
	if got.Hands != 6 {
		t.Fatalf("hands = %d, want the stored 5 plus this game", got.Hands)
	}

	if _, ok, _ := priors.Get(ctx, "janshi"); ok {
		t.Fatal("the own seat must not be profiled")
	}
}

// recordingSolver captures what the service hands the external engine.
type recordingSolver struct {
	calls  int
	seat   int
	events int
	answer domain.Decision
}

func (r *recordingSolver) Solve(_ context.Context, events []domain.Event, seat int) (domain.Decision, error) {
	r.calls++
	r.seat = seat
	r.events = len(events)
	return r.answer, nil
}

func TestServicePrimarySolverAnswers(t *testing.T) {
	fake := &recordingSolver{
		answer: domain.Decision{Action: domain.ActDiscard, Tile: domain.MustTile("3s"), Target: -1},
	}
	svc := testService(t, nil, fake)
	defer svc.Close()

	rec, err := svc.React(context.Background(), "t", parseAll(t,
		`{"type":"start_game","id":0}`,
		testKyoku,
		`{"type":"tsumo","actor":0,"pai":"F"}`,
	))
	if err != nil {
		t.Fatalf("react: %v", err)
	}
	if fake.calls != 1 || fake.seat != 0 {
		t.Fatalf("solver saw %d calls for seat %d, want one for seat 0", fake.calls, fake.seat)
	}
	if fake.events != 3 {
		t.Fatalf("solver saw %d events, want the whole transcript", fake.events)
	}
	if rec.Type != domain.EventDahai || rec.Pai != "3s" {
		t.Fatalf("record = %+v, want the solver's cut", rec)
	}
}

func TestServiceReactLines(t *testing.T) {
	svc := testService(t, nil, nil)
	defer svc.Close()

	payload := strings.Join([]string{
		`not json at all`,
		`{"type":"start_game","id":0}`,
		``,
	}, "\n")
	rec, err := svc.ReactLines(context.Background(), "t", []byte(payload))
	if err != nil {
		t.Fatalf("react lines: %v", err)
	}
	if rec.Type != domain.EventNone {
		t.Fatalf("record = %s, want a pass", rec.Type)
	}

	rec, err = svc.ReactLines(context.Background(), "t2", []byte("garbage only\n"))
	if err != nil {
		t.Fatalf("react lines: %v", err)
	}
	if rec.Type != domain.EventNone {
		t.Fatalf("record = %s, want a none answer for an empty batch", rec.Type)
	}
	if svc.Sessions() != 1 {
		t.Fatalf("sessions = %d, an all-bad batch must not open a table", svc.Sessions())
	}
}
