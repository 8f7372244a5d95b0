package nakama

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"janshi/internal/domain"
)

// decideRequest is the decide RPC payload: an ordered event log and an
// optional seat override for logs whose start_game carries no id.
type decideRequest struct {
	Events []json.RawMessage `json:"events"`
	Seat   *int              `json:"seat,omitempty"`
}

func parseDecideRequest(payload []byte) ([]domain.Event, error) {
	var req decideRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if len(req.Events) == 0 {
		return nil, fmt.Errorf("decode request: no events")
	}
	events := make([]domain.Event, 0, len(req.Events))
	for i, raw := range req.Events {
		ev, err := domain.ParseEvent(raw)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	if req.Seat != nil && events[0].Type == domain.EventStartGame && events[0].ID < 0 {
		events[0].ID = *req.Seat
	}
	return events, nil
}

// envelope renders reply fields through a protobuf struct, the same
// encoding the match label uses.
func envelope(fields map[string]any) ([]byte, error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build envelope: %w", err)
	}
	return (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(st)
}

// decisionEnvelope wraps a wire record with its session id for targeted
// delivery in the advisor match.
func decisionEnvelope(session string, rec domain.Record) ([]byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("reshape record: %w", err)
	}
	return envelope(map[string]any{"session": session, "record": m})
}

func errorEnvelope(code int, message string) ([]byte, error) {
	return envelope(map[string]any{"code": code, "message": message})
}

// matchLabel is the advisor match's queryable label.
func matchLabel(open int) (string, error) {
	b, err := envelope(map[string]any{
		MatchLabelKeyOpen: open,
		MatchLabelKeyKind: advisorKind,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
