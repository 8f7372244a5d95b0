package akochan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"janshi/internal/config"
	"janshi/internal/domain"
	"janshi/internal/ports"
)

func testEvents(t *testing.T) []domain.Event {
	t.Helper()
	ev, err := domain.ParseEvent([]byte(`{"type":"start_game","id":0}`))
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	return []domain.Event{ev}
}

func fakeEngine(t *testing.T, script string) *Solver {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub")
	}
	path := filepath.Join(t.TempDir(), "akochan")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	s, err := New(config.Solver{Path: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return s
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(config.Solver{}); err == nil {
		t.Fatal("an empty path must not construct a solver")
	}
}

func TestSolveEmptyTranscript(t *testing.T) {
	s, err := New(config.Solver{Path: "/nonexistent/akochan"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = s.Solve(context.Background(), nil, 0)
	if !errors.Is(err, ports.ErrNoDecision) {
		t.Fatalf("err = %v, want ErrNoDecision", err)
	}
}

func TestSolveMissingBinary(t *testing.T) {
	s, err := New(config.Solver{Path: filepath.Join(t.TempDir(), "gone")})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = s.Solve(context.Background(), testEvents(t), 0)
	if !errors.Is(err, ports.ErrNoDecision) {
		t.Fatalf("err = %v, want ErrNoDecision", err)
	}
}

func TestSolveReadsLastRecord(t *testing.T) {
	s := fakeEngine(t, `#!/bin/sh
echo "loading tactics"
echo '{"type":"dahai","actor":0,"pai":"1m","tsumogiri":false}'
echo "search depth 2"
echo '{"type":"dahai","actor":0,"pai":"5m","tsumogiri":true}'
`)
	d, err := s.Solve(context.Background(), testEvents(t), 0)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if d.Action != domain.ActDiscard || d.Tile != domain.MustTile("5m") || !d.Tsumogiri {
		t.Fatalf("decision = %+v, want the final tsumogiri 5m", d)
	}
}

func TestSolveChatterOnly(t *testing.T) {
	s := fakeEngine(t, `#!/bin/sh
echo "no decision here"
`)
	_, err := s.Solve(context.Background(), testEvents(t), 0)
	if !errors.Is(err, ports.ErrNoDecision) {
		t.Fatalf("err = %v, want ErrNoDecision", err)
	}
}

func TestLastDecisionSkipsGarbage(t *testing.T) {
	out := []byte("log line\n{\"type\":\"none\"}\n{broken json\ntrailer\n")
	d, ok := lastDecision(out)
	if !ok || d.Action != domain.ActNone {
		t.Fatalf("decision = %+v ok %v, want the pass above the garbage", d, ok)
	}

	if _, ok := lastDecision([]byte("nothing structured\n")); ok {
		t.Fatal("chatter alone must not parse")
	}
}
