package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"

	"janshi/internal/bot"
	"janshi/internal/config"
)

// FindAdvisorResponse is the payload returned to clients looking for an
// advisor match.
type FindAdvisorResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcDecide, rpcDecide); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcFindAdvisor, rpcFindAdvisor)
}

// rpcDecide answers one decision for a replayed event log. The payload
// carries the full transcript so far; nothing is kept between calls.
//
// Payload: {"events": [...], "seat": 0}
// Returns: the wire decision record.
func rpcDecide(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	events, err := parseDecideRequest([]byte(payload))
	if err != nil {
		logger.Warn("rpcDecide: %v", err)
		return "", err
	}

	agent, err := bot.NewAgent(uuid.NewString(), config.Default(), nil)
	if err != nil {
		logger.Error("rpcDecide: build agent: %v", err)
		return "", err
	}

	rec := agent.ReactRecord(ctx, events)
	b, err := json.Marshal(rec)
	if err != nil {
		logger.Error("rpcDecide: encode record: %v", err)
		return "", err
	}
	return string(b), nil
}

// rpcFindAdvisor finds an advisor match with capacity or creates one.
//
// Payload: (Optional) Unused for now.
// Returns: FindAdvisorResponse with the match id.
func rpcFindAdvisor(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userId, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	// Query syntax: "+label.kind:advisor +label.open:>=1" filters on the
	// JSON label keys the advisor match maintains.
	limit := 1
	authoritative := true
	labelQuery := fmt.Sprintf("+label.%s:%s +label.%s:>=1", MatchLabelKeyKind, advisorKind, MatchLabelKeyOpen)
	minSize := 0
	maxSize := advisorCapacity

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, labelQuery)
	if err != nil {
		logger.Error("rpcFindAdvisor [User:%s]: Failed to list matches: %v", userId, err)
		return "", err
	}

	if len(matches) > 0 {
		resp := FindAdvisorResponse{MatchID: matches[0].MatchId, IsNew: false}
		b, _ := json.Marshal(resp)
		logger.Info("rpcFindAdvisor [User:%s]: Found existing match %s", userId, resp.MatchID)
		return string(b), nil
	}

	matchId, err := nk.MatchCreate(ctx, MatchNameAdvisor, nil)
	if err != nil {
		logger.Error("rpcFindAdvisor [User:%s]: Failed to create match: %v", userId, err)
		return "", err
	}

	resp := FindAdvisorResponse{MatchID: matchId, IsNew: true}
	b, _ := json.Marshal(resp)
	logger.Info("rpcFindAdvisor [User:%s]: Created new match %s", userId, matchId)
	return string(b), nil
}
