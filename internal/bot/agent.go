package bot

import (
	"context"

	"janshi/internal/bot/brain"
	"janshi/internal/config"
	"janshi/internal/domain"
	"janshi/internal/logx"
)

// Agent runs one seat: the tracker mirrors the table out of the event
// stream and the strategies answer its decision points. Every failure
// degrades toward a harmless move, so React never returns an error a
// turn loop has to handle; the worst outcome is a pass.
type Agent struct {
	id      string
	tracker *Tracker
	primary Strategy
	local   Strategy
}

// NewAgent builds an agent for one session. primary is consulted first
// and may be nil; the local stack always backs it.
func NewAgent(id string, cfg *config.Config, primary Strategy) (*Agent, error) {
	local, err := NewStrategy(cfg)
	if err != nil {
		return nil, err
	}
	return &Agent{
		id:      id,
		tracker: NewTracker(cfg.Engine),
		primary: primary,
		local:   local,
	}, nil
}

// Seat returns the agent's seat, learned from start_game.
func (a *Agent) Seat() int { return a.tracker.Seat() }

// InHand reports whether a deal is in progress.
func (a *Agent) InHand() bool { return a.tracker.InHand() }

// Profiles exposes the per-seat opponent models for priors seeding.
func (a *Agent) Profiles() [4]*brain.Profile { return a.tracker.profiles }

// React applies the batch to the tracker and answers the last event.
// Tracking errors are logged and played through; a strategy failure
// degrades to the harmless move for the point.
func (a *Agent) React(ctx context.Context, events []domain.Event) (domain.Decision, error) {
	for _, ev := range events {
		if err := a.tracker.Feed(ev); err != nil {
			logx.Warn("agent %s: feed %s: %v", a.id, ev.Type, err)
		}
	}

	snap := a.tracker.Snapshot()
	if !snap.Legal.CanAct() {
		return pass(), nil
	}

	// A declared hand autopilots the draw back out unless a win or a
	// wait-preserving kan interrupts.
	if snap.Ctx.ReachDeclared && snap.Legal.Discard && !snap.Drawn.Zero() &&
		!snap.Legal.Tsumo && len(snap.Legal.Ankan) == 0 {
		return domain.Decision{
			Action: domain.ActDiscard, Tile: snap.Drawn, Target: -1, Tsumogiri: true,
		}, nil
	}

	d, err := a.consult(ctx, snap)
	if err != nil {
		logx.Warn("agent %s: decide: %v", a.id, err)
		return a.harmless(snap), nil
	}
	if !legalDecision(d, &snap.Legal) {
		logx.Warn("agent %s: backend proposed illegal %s", a.id, d.Action)
		return a.harmless(snap), nil
	}
	return d, nil
}

// ReactRecord is React in wire form, for the ports.
func (a *Agent) ReactRecord(ctx context.Context, events []domain.Event) domain.Record {
	d, err := a.React(ctx, events)
	if err != nil {
		// React only errors on programming mistakes; still answer.
		logx.Error("agent %s: react: %v", a.id, err)
		d = pass()
	}
	return d.Record(a.Seat())
}

func (a *Agent) consult(ctx context.Context, snap *Snapshot) (domain.Decision, error) {
	if a.primary != nil {
		d, err := a.primary.Decide(ctx, snap)
		if err == nil {
			return d, nil
		}
		logx.Warn("agent %s: primary backend: %v; using local stack", a.id, err)
	}
	return a.local.Decide(ctx, snap)
}

// harmless is the degradation floor: tsumogiri when a discard is owed,
// a pass otherwise.
func (a *Agent) harmless(snap *Snapshot) domain.Decision {
	if snap.Legal.Discard {
		return fallbackDiscard(snap)
	}
	return pass()
}

func pass() domain.Decision {
	return domain.Decision{Action: domain.ActNone, Target: -1}
}

// legalDecision screens a backend's answer against the mask. Backends
// may pass on any point that is not a forced discard.
func legalDecision(d domain.Decision, l *Legal) bool {
	switch d.Action {
	case domain.ActNone:
		return !l.Discard
	case domain.ActDiscard:
		return l.Discard
	case domain.ActRiichi:
		return l.Riichi
	case domain.ActTsumoAgari:
		return l.Tsumo
	case domain.ActRon:
		return l.Ron
	case domain.ActNukidora:
		return l.Nuki
	case domain.ActChi:
		return len(l.Chi) > 0
	case domain.ActPon:
		return len(l.Pon) > 0
	case domain.ActDaiminkan:
		return len(l.Daiminkan) > 0
	case domain.ActAnkan:
		return len(l.Ankan) > 0
	case domain.ActKakan:
		return len(l.Kakan) > 0
	default:
		return false
	}
}
