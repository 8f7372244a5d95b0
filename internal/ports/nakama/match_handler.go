package nakama

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"

	"janshi/internal/app"
	"janshi/internal/config"
	"janshi/internal/ports"
	"janshi/internal/ports/akochan"
)

// advisorState holds the authoritative runtime state for the advisor
// match: a shared session service with one session per joined user.
// Clients stream event batches as match data and read decision records
// back on their own presence.
type advisorState struct {
	Presences map[string]runtime.Presence `json:"-"`         // Map UserId -> Presence for targeted messaging
	Sessions  map[string]string           `json:"sessions"`  // Map UserId -> session id in the app service
	App       *app.Service                `json:"-"`         // Session service answering the batches
	EmptyFor  int                         `json:"empty_for"` // Ticks spent with nobody joined
}

func (as *advisorState) openSeats() int {
	open := advisorCapacity - len(as.Presences)
	if open < 0 {
		open = 0
	}
	return open
}

// emptyMatchTicks terminates an advisor nobody uses; at one tick per
// second this is five minutes.
const emptyMatchTicks = 300

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing advisor match.")

	cfg := config.Default()

	// Runtime environment overrides the tuning knobs that matter per cluster.
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if val, ok := env["janshi_style"]; ok && val != "" {
		cfg.Agent.Style = val
	}
	if val, ok := env["janshi_estimator"]; ok && val != "" {
		cfg.Agent.Estimator = val
	}
	if val, ok := env["janshi_solver_path"]; ok && val != "" {
		cfg.Solver.Path = val
	}

	var solver ports.ExternalSolver
	if cfg.Solver.Path != "" {
		s, err := akochan.New(cfg.Solver)
		if err != nil {
			logger.Warn("MatchInit: solver disabled: %v", err)
		} else {
			solver = s
		}
	}

	state := &advisorState{
		Presences: make(map[string]runtime.Presence),
		Sessions:  make(map[string]string),
		App:       app.NewService(cfg, NewPriorsAdapter(nk), solver),
	}

	label, err := matchLabel(state.openSeats())
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	advisor, ok := state.(*advisorState)
	if !ok {
		return state, false, "state not found"
	}
	if advisor.openSeats() <= 0 {
		return state, false, "Advisor full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	advisor, ok := state.(*advisorState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		advisor.Presences[p.GetUserId()] = p
		if _, exists := advisor.Sessions[p.GetUserId()]; !exists {
			advisor.Sessions[p.GetUserId()] = uuid.NewString()
		}
		logger.Debug("MatchJoin: User %s joined, session %s.", p.GetUserId(), advisor.Sessions[p.GetUserId()])
	}

	mh.updateLabel(advisor, dispatcher, logger)
	return advisor
}

// MatchLeave drops the leaver's session; a rejoin starts a fresh game.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	advisor, ok := state.(*advisorState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(advisor.Presences, p.GetUserId())
		if sid, exists := advisor.Sessions[p.GetUserId()]; exists {
			advisor.App.Drop(sid)
			delete(advisor.Sessions, p.GetUserId())
		}
		logger.Debug("MatchLeave: User %s left.", p.GetUserId())
	}

	mh.updateLabel(advisor, dispatcher, logger)
	return advisor
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	advisor, ok := state.(*advisorState)
	if !ok {
		return state
	}

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpEvents:
			mh.handleEvents(ctx, advisor, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if len(advisor.Presences) == 0 {
		advisor.EmptyFor++
		if advisor.EmptyFor >= emptyMatchTicks {
			logger.Info("MatchLoop: Terminating idle advisor match.")
			if err := advisor.App.Close(); err != nil {
				logger.Warn("MatchLoop: close service: %v", err)
			}
			return nil
		}
	} else {
		advisor.EmptyFor = 0
	}

	return advisor
}

// handleEvents feeds one event batch to the sender's session and answers
// with a decision envelope on the sender's presence only.
func (mh *matchHandler) handleEvents(ctx context.Context, advisor *advisorState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	sid, ok := advisor.Sessions[senderID]
	if !ok {
		logger.Warn("handleEvents: No session for sender %s.", senderID)
		mh.sendError(advisor, dispatcher, logger, senderID, 400, "no session for sender")
		return
	}

	rec, err := advisor.App.ReactLines(ctx, sid, msg.GetData())
	if err != nil {
		logger.Warn("handleEvents: Session %s failed: %v", sid, err)
		mh.sendError(advisor, dispatcher, logger, senderID, 422, err.Error())
		return
	}

	payload, err := decisionEnvelope(sid, rec)
	if err != nil {
		logger.Error("handleEvents: Failed to marshal decision: %v", err)
		return
	}

	presence, ok := advisor.Presences[senderID]
	if !ok {
		return
	}
	dispatcher.BroadcastMessage(OpDecision, payload, []runtime.Presence{presence}, nil, true)
}

// sendError sends an error envelope to a specific user.
func (mh *matchHandler) sendError(advisor *advisorState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	payload, err := errorEnvelope(code, message)
	if err != nil {
		logger.Error("sendError: Failed to marshal: %v", err)
		return
	}
	presence, ok := advisor.Presences[userID]
	if !ok {
		logger.Warn("sendError: Cannot send error to %s: Presence not found", userID)
		return
	}
	dispatcher.BroadcastMessage(OpError, payload, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(advisor *advisorState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(advisor.openSeats())
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with grace %d.", graceSeconds)
	if advisor, ok := state.(*advisorState); ok {
		if err := advisor.App.Close(); err != nil {
			logger.Warn("MatchTerminate: close service: %v", err)
		}
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
