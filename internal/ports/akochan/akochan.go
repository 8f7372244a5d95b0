// Package akochan drives the akochan engine as a subprocess. The engine
// takes a full transcript per invocation, so every decision point replays
// the game so far and reads back whatever the engine printed last.
package akochan

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"janshi/internal/config"
	"janshi/internal/domain"
	"janshi/internal/logx"
	"janshi/internal/ports"
)

const defaultTimeout = 15 * time.Second

// Solver shells out to the akochan binary. The working directory is set
// to the binary's own directory so it finds its tactics file.
type Solver struct {
	path    string
	timeout time.Duration
}

var _ ports.ExternalSolver = (*Solver)(nil)

// New builds a Solver from config. An empty path is an error; callers
// that want to run without the engine should not construct one.
func New(cfg config.Solver) (*Solver, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("akochan: no solver path configured")
	}
	return &Solver{path: cfg.Path, timeout: defaultTimeout}, nil
}

// Solve writes the transcript to a temp file, runs the engine over it and
// parses the last record on stdout. Every failure collapses to
// ports.ErrNoDecision; the engine crashing must never take a turn with it.
func (s *Solver) Solve(ctx context.Context, events []domain.Event, seat int) (domain.Decision, error) {
	if len(events) == 0 {
		return domain.Decision{}, fmt.Errorf("%w: empty transcript", ports.ErrNoDecision)
	}

	file, err := s.writeTranscript(events)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("%w: %v", ports.ErrNoDecision, err)
	}
	defer os.Remove(file)

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.path, "mjai_log", file, strconv.Itoa(seat))
	cmd.Dir = filepath.Dir(s.path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		logx.Warn("akochan: %v (stderr %q)", runErr, lastLine(stderr.Bytes()))
	}

	d, ok := lastDecision(stdout.Bytes())
	if !ok {
		if runErr != nil {
			return domain.Decision{}, fmt.Errorf("%w: %v", ports.ErrNoDecision, runErr)
		}
		return domain.Decision{}, fmt.Errorf("%w: no parseable output", ports.ErrNoDecision)
	}
	return d, nil
}

func (s *Solver) writeTranscript(events []domain.Event) (string, error) {
	f, err := os.CreateTemp("", "janshi-*.jsonl")
	if err != nil {
		return "", err
	}
	w := bufio.NewWriter(f)
	for _, ev := range events {
		line, err := ev.MarshalJSON()
		if err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", err
		}
		w.Write(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// lastDecision scans stdout bottom-up for the final JSON record. The
// engine mixes progress chatter into stdout, so anything that is not an
// object or does not decode is skipped.
func lastDecision(out []byte) (domain.Decision, bool) {
	lines := bytes.Split(out, []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		d, err := domain.ParseRecord(line)
		if err != nil {
			continue
		}
		return d, true
	}
	return domain.Decision{}, false
}

func lastLine(out []byte) string {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(lines[len(lines)-1])
}
