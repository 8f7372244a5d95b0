// Package store persists opponent priors between sessions: the soft
// aggression and defense reads the profiles accumulate during a game.
package store

import (
	"context"
	"sync"
)

// Priors is one player's carried-over read.
type Priors struct {
	Aggression float64 `json:"aggression"`
	Defense    float64 `json:"defense"`
	Hands      int     `json:"hands"`
}

// Merge folds a new game's read into the stored one, weighted by the
// hands behind each side.
func (p Priors) Merge(next Priors) Priors {
	if next.Hands <= 0 {
		return p
	}
	if p.Hands <= 0 {
		return next
	}
	total := p.Hands + next.Hands
	w0 := float64(p.Hands) / float64(total)
	w1 := float64(next.Hands) / float64(total)
	return Priors{
		Aggression: w0*p.Aggression + w1*next.Aggression,
		Defense:    w0*p.Defense + w1*next.Defense,
		Hands:      total,
	}
}

// PriorsStore loads and saves priors by player key. Unknown keys report
// ok=false rather than an error.
type PriorsStore interface {
	Get(ctx context.Context, key string) (Priors, bool, error)
	Put(ctx context.Context, key string, p Priors) error
	Close() error
}

// Memory is the in-process store, the default when redis is not
// configured.
type Memory struct {
	mu sync.RWMutex
	m  map[string]Priors
}

var _ PriorsStore = (*Memory)(nil)

func NewMemory() *Memory { return &Memory{m: make(map[string]Priors)} }

func (s *Memory) Get(_ context.Context, key string) (Priors, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.m[key]
	return p, ok, nil
}

func (s *Memory) Put(_ context.Context, key string, p Priors) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = p
	return nil
}

func (s *Memory) Close() error { return nil }
