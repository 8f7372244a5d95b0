package nakama

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/heroiclabs/nakama-common/runtime"

	"janshi/internal/app"
	"janshi/internal/config"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy
// the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	broadcastCount int
	labelUpdates   int
	lastOpCode     int64
	lastData       []byte
	lastTargets    int
	lastLabel      string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.broadcastCount++
	md.lastOpCode = opCode
	md.lastData = append([]byte(nil), data...)
	md.lastTargets = len(presences)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

type mockPresence struct {
	userID string
}

func (p mockPresence) GetUserId() string                 { return p.userID }
func (p mockPresence) GetSessionId() string              { return "socket-" + p.userID }
func (p mockPresence) GetNodeId() string                 { return "node" }
func (p mockPresence) GetHidden() bool                   { return false }
func (p mockPresence) GetPersistence() bool              { return false }
func (p mockPresence) GetUsername() string               { return p.userID }
func (p mockPresence) GetStatus() string                 { return "" }
func (p mockPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }

type mockMessage struct {
	mockPresence
	opCode int64
	data   []byte
}

func (m mockMessage) GetOpCode() int64      { return m.opCode }
func (m mockMessage) GetData() []byte       { return m.data }
func (m mockMessage) GetReliable() bool     { return true }
func (m mockMessage) GetReceiveTime() int64 { return 0 }

func testAdvisorState() *advisorState {
	return &advisorState{
		Presences: make(map[string]runtime.Presence),
		Sessions:  make(map[string]string),
		App:       app.NewService(config.Default(), nil, nil),
	}
}

func TestAdvisorOpenSeats(t *testing.T) {
	state := testAdvisorState()
	if got := state.openSeats(); got != advisorCapacity {
		t.Fatalf("openSeats() = %d, want %d", got, advisorCapacity)
	}

	state.Presences["user-1"] = mockPresence{userID: "user-1"}
	if got := state.openSeats(); got != advisorCapacity-1 {
		t.Fatalf("openSeats() = %d, want %d", got, advisorCapacity-1)
	}

	for i := 0; i < advisorCapacity+2; i++ {
		id := "user-" + strconv.Itoa(i)
		state.Presences[id] = mockPresence{userID: id}
	}
	if got := state.openSeats(); got != 0 {
		t.Fatalf("openSeats() = %d, want the clamp at 0", got)
	}
}

func TestMatchJoinAttemptCapacity(t *testing.T) {
	handler := &matchHandler{}
	state := testAdvisorState()

	_, ok, _ := handler.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, &mockDispatcher{}, 1, state, mockPresence{userID: "user-1"}, nil)
	if !ok {
		t.Fatal("an empty advisor must accept")
	}

	for i := 0; i < advisorCapacity; i++ {
		id := "user-" + strconv.Itoa(i)
		state.Presences[id] = mockPresence{userID: id}
	}
	_, ok, reason := handler.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, &mockDispatcher{}, 1, state, mockPresence{userID: "late"}, nil)
	if ok || reason != "Advisor full" {
		t.Fatalf("join attempt = %v %q, want the capacity refusal", ok, reason)
	}
}

func TestMatchJoinAndLeaveSessions(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := testAdvisorState()
	defer state.App.Close()
	user := mockPresence{userID: "user-1"}

	handler.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.Presence{user})
	sid, ok := state.Sessions["user-1"]
	if !ok || sid == "" {
		t.Fatal("join must hand out a session id")
	}
	if dispatcher.labelUpdates != 1 {
		t.Fatalf("label updates = %d, want 1 after join", dispatcher.labelUpdates)
	}

	// One answered batch opens the session in the app service.
	msg := mockMessage{
		mockPresence: user,
		opCode:       OpEvents,
		data:         []byte(`{"type":"start_game","id":0}`),
	}
	handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.MatchData{msg})
	if state.App.Sessions() != 1 {
		t.Fatalf("app sessions = %d, want 1 after the first batch", state.App.Sessions())
	}

	handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.Presence{user})
	if len(state.Presences) != 0 || len(state.Sessions) != 0 {
		t.Fatal("leave must forget the user")
	}
	if state.App.Sessions() != 0 {
		t.Fatalf("app sessions = %d, the leaver's game must be dropped", state.App.Sessions())
	}
	if dispatcher.labelUpdates != 2 {
		t.Fatalf("label updates = %d, want one per membership change", dispatcher.labelUpdates)
	}
}

func TestMatchLoopAnswersOnSenderPresence(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := testAdvisorState()
	defer state.App.Close()
	user := mockPresence{userID: "user-1"}
	handler.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.Presence{user})

	msg := mockMessage{
		mockPresence: user,
		opCode:       OpEvents,
		data:         []byte(`{"type":"start_game","id":0}`),
	}
	out := handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.MatchData{msg})
	if out == nil {
		t.Fatal("a live advisor must not terminate")
	}
	if dispatcher.lastOpCode != OpDecision || dispatcher.lastTargets != 1 {
		t.Fatalf("broadcast op %d to %d presences, want the decision to the sender only",
			dispatcher.lastOpCode, dispatcher.lastTargets)
	}

	var envelope struct {
		Session string `json:"session"`
		Record  struct {
			Type string `json:"type"`
		} `json:"record"`
	}
	if err := json.Unmarshal(dispatcher.lastData, &envelope); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if envelope.Session != state.Sessions["user-1"] || envelope.Record.Type != "none" {
		t.Fatalf("payload = %+v, want a pass under the sender's session", envelope)
	}
}

func TestMatchLoopErrorsWithoutSession(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := testAdvisorState()
	defer state.App.Close()
	user := mockPresence{userID: "user-1"}
	state.Presences["user-1"] = user

	msg := mockMessage{mockPresence: user, opCode: OpEvents, data: []byte(`{"type":"none"}`)}
	handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.MatchData{msg})
	if dispatcher.lastOpCode != OpError {
		t.Fatalf("broadcast op = %d, want the error envelope", dispatcher.lastOpCode)
	}
}

func TestMatchLoopIdleCountdown(t *testing.T) {
	handler := &matchHandler{}
	state := testAdvisorState()

	out := handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, &mockDispatcher{}, 1, state, nil)
	if out == nil || state.EmptyFor != 1 {
		t.Fatalf("empty ticks = %d, want the countdown started", state.EmptyFor)
	}

	state.EmptyFor = emptyMatchTicks - 1
	if out = handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, &mockDispatcher{}, 2, state, nil); out != nil {
		t.Fatal("an advisor idle past the limit must terminate")
	}

	state = testAdvisorState()
	defer state.App.Close()
	state.Presences["user-1"] = mockPresence{userID: "user-1"}
	state.EmptyFor = 5
	handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, &mockDispatcher{}, 3, state, nil)
	if state.EmptyFor != 0 {
		t.Fatalf("empty ticks = %d, a present user resets the countdown", state.EmptyFor)
	}
}
