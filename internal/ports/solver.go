package ports

import (
	"context"
	"errors"

	"janshi/internal/domain"
)

// ErrNoDecision reports that the external solver produced nothing usable
// for this decision point. Callers fall back to the local strategy.
var ErrNoDecision = errors.New("solver produced no decision")

// ExternalSolver consults an out-of-process engine for one decision point.
type ExternalSolver interface {
	// Solve replays the transcript so far from the given seat and returns
	// the engine's answer. Implementations wrap every failure mode, from a
	// missing binary to garbage output, in ErrNoDecision.
	Solve(ctx context.Context, events []domain.Event, seat int) (domain.Decision, error)
}
