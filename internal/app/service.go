// Package app hosts the session use-cases: one agent per session id, fed
// event batches by whatever transport owns the session, answering wire
// decision records.
package app

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"janshi/internal/bot"
	"janshi/internal/config"
	"janshi/internal/domain"
	"janshi/internal/logx"
	"janshi/internal/ports"
	"janshi/internal/store"
)

var (
	ErrNoEvents   = errors.New("empty event batch")
	ErrBadSession = errors.New("invalid session id")
)

// Service owns the live sessions. Each session is one seat at one table;
// sessions are created on first sight and dropped on end_game.
type Service struct {
	cfg    *config.Config
	priors store.PriorsStore
	solver ports.ExternalSolver

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	agent *bot.Agent
	names []string
}

// NewService wires the store and the optional external solver. priors may
// be nil to run without carry-over reads.
func NewService(cfg *config.Config, priors store.PriorsStore, solver ports.ExternalSolver) *Service {
	return &Service{
		cfg:      cfg,
		priors:   priors,
		solver:   solver,
		sessions: make(map[string]*session),
	}
}

// NewSession registers a fresh session up front and returns its id. React
// also creates sessions lazily; this exists for transports that hand the
// id out before the first event.
func (s *Service) NewSession() (string, error) {
	id := uuid.NewString()
	if _, err := s.ensure(id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) ensure(id string) (*session, error) {
	if id == "" {
		return nil, ErrBadSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	var primary bot.Strategy
	if s.solver != nil {
		primary = solverStrategy{s.solver}
	}
	agent, err := bot.NewAgent(id, s.cfg, primary)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	sess := &session{agent: agent}
	s.sessions[id] = sess
	return sess, nil
}

// React feeds one batch to the session's agent and returns the wire
// record. The priors store is consulted when a game starts and written
// back when it ends.
func (s *Service) React(ctx context.Context, id string, events []domain.Event) (domain.Record, error) {
	if len(events) == 0 {
		return domain.Record{}, ErrNoEvents
	}
	sess, err := s.ensure(id)
	if err != nil {
		return domain.Record{}, err
	}

	sawStart, sawEnd := false, false
	for _, ev := range events {
		switch ev.Type {
		case domain.EventStartGame:
			sawStart = true
			if len(ev.Names) > 0 {
				sess.names = append(sess.names[:0], ev.Names...)
			}
		case domain.EventEndGame:
			sawEnd = true
		}
	}

	rec := sess.agent.ReactRecord(ctx, events)

	if sawStart {
		s.seedPriors(ctx, sess)
	}
	if sawEnd {
		s.writeBackPriors(ctx, sess)
		s.Drop(id)
	}
	return rec, nil
}

// ReactLines is React over newline-separated JSON event lines, the form
// the transports carry. Unparseable lines are skipped with a warning; an
// all-bad batch still answers with a none record.
func (s *Service) ReactLines(ctx context.Context, id string, payload []byte) (domain.Record, error) {
	var events []domain.Event
	sc := bufio.NewScanner(bytes.NewReader(payload))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		ev, err := domain.ParseEvent(line)
		if err != nil {
			logx.Warn("session %s: %v", id, err)
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return domain.Record{}, fmt.Errorf("session %s: read batch: %w", id, err)
	}
	if len(events) == 0 {
		return domain.Record{Type: domain.EventNone}, nil
	}
	return s.React(ctx, id, events)
}

// Drop forgets a session.
func (s *Service) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sessions reports the live session count.
func (s *Service) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close drops every session and closes the priors store.
func (s *Service) Close() error {
	s.mu.Lock()
	s.sessions = make(map[string]*session)
	s.mu.Unlock()
	if s.priors == nil {
		return nil
	}
	return s.priors.Close()
}

// seedPriors primes the opponent profiles from the store, keyed by the
// names the table announced.
func (s *Service) seedPriors(ctx context.Context, sess *session) {
	if s.priors == nil || len(sess.names) == 0 {
		return
	}
	me := sess.agent.Seat()
	profiles := sess.agent.Profiles()
	for seat, name := range sess.names {
		if seat == me || seat >= len(profiles) || name == "" {
			continue
		}
		p, ok, err := s.priors.Get(ctx, name)
		if err != nil {
			logx.Warn("priors get %q: %v", name, err)
			continue
		}
		if !ok {
			continue
		}
		profiles[seat].Seed(p.Aggression, p.Defense)
	}
}

// writeBackPriors folds the finished game's reads into the store.
func (s *Service) writeBackPriors(ctx context.Context, sess *session) {
	if s.priors == nil || len(sess.names) == 0 {
		return
	}
	me := sess.agent.Seat()
	profiles := sess.agent.Profiles()
	for seat, name := range sess.names {
		if seat == me || seat >= len(profiles) || name == "" {
			continue
		}
		aggr, def, hands := profiles[seat].Summary()
		if hands == 0 {
			continue
		}
		next := store.Priors{Aggression: aggr, Defense: def, Hands: hands}
		old, ok, err := s.priors.Get(ctx, name)
		if err != nil {
			logx.Warn("priors get %q: %v", name, err)
			continue
		}
		if ok {
			next = old.Merge(next)
		}
		if err := s.priors.Put(ctx, name, next); err != nil {
			logx.Warn("priors put %q: %v", name, err)
		}
	}
}

// solverStrategy adapts the external solver port to the agent's strategy
// interface: the whole transcript replays per decision point.
type solverStrategy struct {
	solver ports.ExternalSolver
}

func (w solverStrategy) Decide(ctx context.Context, snap *bot.Snapshot) (domain.Decision, error) {
	d, err := w.solver.Solve(ctx, snap.Events, snap.Seat)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("external solver: %w", err)
	}
	return d, nil
}
