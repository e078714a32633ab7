package nakama

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"euchre/internal/app"
	"euchre/internal/bot"
	"euchre/internal/config"
	"euchre/internal/domain"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
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

type sentMessage struct {
	opCode     int64
	data       []byte
	recipients []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages     []sentMessage
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.messages = append(md.messages, sentMessage{opCode: opCode, data: append([]byte(nil), data...), recipients: presences})
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

func (md *mockDispatcher) withOp(opCode int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.messages {
		if m.opCode == opCode {
			out = append(out, m)
		}
	}
	return out
}

type mockPresence struct {
	userID   string
	username string
}

func (p mockPresence) GetHidden() bool                   { return false }
func (p mockPresence) GetPersistence() bool              { return false }
func (p mockPresence) GetUsername() string               { return p.username }
func (p mockPresence) GetStatus() string                 { return "" }
func (p mockPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }
func (p mockPresence) GetUserId() string                 { return p.userID }
func (p mockPresence) GetSessionId() string              { return "session-" + p.userID }
func (p mockPresence) GetNodeId() string                 { return "node" }

type mockMatchData struct {
	mockPresence
	opCode int64
	data   []byte
}

func (d mockMatchData) GetOpCode() int64      { return d.opCode }
func (d mockMatchData) GetData() []byte       { return d.data }
func (d mockMatchData) GetReliable() bool     { return true }
func (d mockMatchData) GetReceiveTime() int64 { return 0 }

func init() {
	// Load bot identities for testing.
	if err := bot.LoadIdentities("testdata/bot_identities.json"); err != nil {
		panic("Failed to load bot identities for tests: " + err.Error())
	}
}

var unshuffled = domain.ShufflerFunc(func([]domain.Card) {})

func newTestState(t *testing.T) *MatchState {
	t.Helper()
	state := newMatchState(uuid.New(), config.GetGameConfig())
	state.App = app.NewService(unshuffled)
	require.NoError(t, state.App.CreateTableWithID(state.TableID))
	return state
}

func humans(n int) []runtime.Presence {
	out := make([]runtime.Presence, 0, n)
	for i := 0; i < n; i++ {
		id := string(rune('a'+i)) + "-user"
		out = append(out, mockPresence{userID: id, username: id})
	}
	return out
}

func startedMatch(t *testing.T) (*matchHandler, *MatchState, *mockDispatcher, []runtime.Presence) {
	t.Helper()
	handler := &matchHandler{}
	state := newTestState(t)
	dispatcher := &mockDispatcher{}
	players := humans(domain.SeatCount)
	handler.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, players)

	owner := players[0].(mockPresence)
	handler.handleStartGame(context.Background(), state, dispatcher, noopLogger{}, mockMatchData{mockPresence: owner, opCode: OpStartGame})
	require.True(t, state.Playing())
	return handler, state, dispatcher, players
}

func TestFindFirstHumanSeat(t *testing.T) {
	bot1 := bot.GetBotIdentity(0).UserID
	bot2 := bot.GetBotIdentity(1).UserID

	tests := []struct {
		name  string
		seats []string
		want  int
	}{
		{name: "FirstHumanAfterBot", seats: []string{bot1, "user-1", "", ""}, want: 1},
		{name: "AllBots", seats: []string{bot1, bot2, "", ""}, want: -1},
		{name: "AllEmpty", seats: []string{"", "", "", ""}, want: -1},
		{name: "FirstHumanIsSeatZero", seats: []string{"user-1", bot1, "user-2", ""}, want: 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, findFirstHumanSeat(test.seats))
		})
	}
}

func TestShouldTerminateNoHumans(t *testing.T) {
	bot1 := bot.GetBotIdentity(0).UserID
	bot2 := bot.GetBotIdentity(1).UserID
	bot3 := bot.GetBotIdentity(2).UserID
	bot4 := bot.GetBotIdentity(3).UserID

	tests := []struct {
		name  string
		seats []string
		want  bool
	}{
		{name: "BotsOnly", seats: []string{bot1, bot2, bot3, bot4}, want: true},
		{name: "BotsAndEmpty", seats: []string{bot1, "", bot3, ""}, want: true},
		{name: "HumansPresent", seats: []string{bot1, "user-1", "", ""}, want: false},
		{name: "AllEmpty", seats: []string{"", "", "", ""}, want: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, shouldTerminateNoHumans(test.seats))
		})
	}
}

func TestMatchLabel(t *testing.T) {
	state := newTestState(t)

	raw, err := matchLabel(state)
	require.NoError(t, err)
	var label map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &label))
	assert.Equal(t, map[string]interface{}{"open": float64(4), "state": "lobby", "game": "euchre"}, label)

	handler := &matchHandler{}
	require.True(t, handler.takeSeat(state, noopLogger{}, 2, "user-1"))
	raw, err = matchLabel(state)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(raw), &label))
	assert.Equal(t, float64(3), label["open"])
}

func TestApplyEnv(t *testing.T) {
	state := newTestState(t)
	state.applyEnv(map[string]string{
		"euchre_bots_enabled":            "true",
		"euchre_bot_min_delay_sec":       "4",
		"euchre_bot_max_delay_sec":       "2",
		"euchre_bot_auto_fill_delay_sec": "9",
		"euchre_turn_duration_sec":       "12",
	})
	assert.True(t, state.BotsEnabled)
	assert.Equal(t, 4, state.BotMinDelay)
	assert.Equal(t, 4, state.BotMaxDelay)
	assert.Equal(t, 9, state.BotAutoFillDelay)
	assert.Equal(t, 12*tickRate, state.TurnDuration)
}

func TestMatchJoin_SeatsPlayersAndOwner(t *testing.T) {
	handler := &matchHandler{}
	state := newTestState(t)
	dispatcher := &mockDispatcher{}

	handler.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, humans(2))

	assert.Equal(t, "a-user", state.Seats[0])
	assert.Equal(t, "b-user", state.Seats[1])
	assert.Equal(t, 0, state.OwnerSeat)
	assert.Equal(t, 2, state.GetOpenSeatsCount())

	table, err := state.App.Table(state.TableID)
	require.NoError(t, err)
	require.NotNil(t, table.Player(1))
	assert.Equal(t, "b-user", table.Player(1).Name)

	seats := dispatcher.withOp(OpSeatsChanged)
	require.NotEmpty(t, seats)
	var msg seatsMessage
	require.NoError(t, json.Unmarshal(seats[len(seats)-1].data, &msg))
	assert.Len(t, msg.Seats, domain.SeatCount)
	assert.True(t, msg.Seats[0].IsOwner)
	assert.Equal(t, "lobby", msg.Phase)
	assert.Positive(t, dispatcher.labelUpdates)
}

func TestStartGame_RequiresOwnerAndFullTable(t *testing.T) {
	handler := &matchHandler{}
	state := newTestState(t)
	dispatcher := &mockDispatcher{}
	players := humans(2)
	handler.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, players)

	handler.handleStartGame(context.Background(), state, dispatcher, noopLogger{}, mockMatchData{mockPresence: players[1].(mockPresence), opCode: OpStartGame})
	assert.False(t, state.Playing())

	handler.handleStartGame(context.Background(), state, dispatcher, noopLogger{}, mockMatchData{mockPresence: players[0].(mockPresence), opCode: OpStartGame})
	assert.False(t, state.Playing())

	errs := dispatcher.withOp(OpGameError)
	require.Len(t, errs, 2)
	var ge gameError
	require.NoError(t, json.Unmarshal(errs[1].data, &ge))
	assert.Equal(t, 409, ge.Code)
}

func TestStartGame_SendsEachHandOnlyToItsSeat(t *testing.T) {
	_, state, dispatcher, players := startedMatch(t)

	hands := dispatcher.withOp(OpPrivateHand)
	require.Len(t, hands, domain.SeatCount)
	for _, m := range hands {
		require.Len(t, m.recipients, 1)
		var msg privateHandMessage
		require.NoError(t, json.Unmarshal(m.data, &msg))
		assert.Equal(t, players[msg.Seat].GetUserId(), m.recipients[0].GetUserId())
		assert.Len(t, msg.Hand, domain.HandSize)
	}

	// Hand-dealt events are private; public events are broadcast.
	for _, m := range dispatcher.withOp(OpGameEvent) {
		var ev struct {
			Kind app.EventKind `json:"kind"`
		}
		require.NoError(t, json.Unmarshal(m.data, &ev))
		if ev.Kind == app.EventHandDealt {
			assert.Len(t, m.recipients, 1)
		} else {
			assert.Nil(t, m.recipients)
		}
	}

	publics := dispatcher.withOp(OpPublicState)
	require.NotEmpty(t, publics)
	var public app.PublicState
	require.NoError(t, json.Unmarshal(publics[len(publics)-1].data, &public))
	assert.Equal(t, domain.PhasePlaying, public.Phase)
	require.NotNil(t, public.Turn)
	assert.Equal(t, domain.Seat(1), *public.Turn)
	assert.Contains(t, dispatcher.lastLabel, "playing")
	assert.Equal(t, state.TableID.String(), public.TableID)
}

func TestHandleMove(t *testing.T) {
	handler, state, dispatcher, players := startedMatch(t)
	pass, err := json.Marshal(app.Pass())
	require.NoError(t, err)

	t.Run("out of turn is rejected", func(t *testing.T) {
		before := len(dispatcher.messages)
		handler.handleMove(context.Background(), state, dispatcher, noopLogger{}, mockMatchData{mockPresence: players[2].(mockPresence), opCode: OpMove, data: pass})

		sent := dispatcher.messages[before:]
		require.Len(t, sent, 1)
		assert.Equal(t, OpGameError, sent[0].opCode)
		assert.Equal(t, "c-user", sent[0].recipients[0].GetUserId())
		var ge gameError
		require.NoError(t, json.Unmarshal(sent[0].data, &ge))
		assert.Equal(t, 403, ge.Code)
	})

	t.Run("garbage payload is rejected", func(t *testing.T) {
		before := len(dispatcher.messages)
		handler.handleMove(context.Background(), state, dispatcher, noopLogger{}, mockMatchData{mockPresence: players[1].(mockPresence), opCode: OpMove, data: []byte("{")})
		require.Len(t, dispatcher.messages[before:], 1)
		assert.Equal(t, OpGameError, dispatcher.messages[before].opCode)
	})

	t.Run("turn holder passes", func(t *testing.T) {
		handler.handleMove(context.Background(), state, dispatcher, noopLogger{}, mockMatchData{mockPresence: players[1].(mockPresence), opCode: OpMove, data: pass})

		public, err := state.App.PublicState(state.TableID)
		require.NoError(t, err)
		require.NotNil(t, public.Turn)
		assert.Equal(t, domain.Seat(2), *public.Turn)
		require.Len(t, public.Bids, 1)
		assert.True(t, public.Bids[0].Pass)
	})
}

func TestHandleRequestState(t *testing.T) {
	handler, state, dispatcher, players := startedMatch(t)
	before := len(dispatcher.messages)

	handler.handleRequestState(state, dispatcher, noopLogger{}, mockMatchData{mockPresence: players[3].(mockPresence), opCode: OpRequestState})

	sent := dispatcher.messages[before:]
	require.Len(t, sent, 3)
	for _, m := range sent {
		require.Len(t, m.recipients, 1)
		assert.Equal(t, "d-user", m.recipients[0].GetUserId())
	}
	assert.Equal(t, OpPrivateHand, sent[2].opCode)
}

func TestBroadcastEvent_PrivateForAbsentSeatIsDropped(t *testing.T) {
	handler := &matchHandler{}
	state := newTestState(t)
	dispatcher := &mockDispatcher{}
	state.Seats[0] = bot.GetBotIdentity(0).UserID

	handler.broadcastEvent(state, dispatcher, noopLogger{}, app.Event{
		Kind:       app.EventHandDealt,
		Payload:    app.HandDealtPayload{Seat: 0},
		Recipients: []domain.Seat{0},
	})
	assert.Empty(t, dispatcher.messages)
}

func TestProcessBots_FillsLobbyForSoloHuman(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t)
	state.BotsEnabled = true
	state.BotAutoFillDelay = 2
	state.LastSinglePlayerTick = 8
	state.Tick = 10
	require.True(t, handler.takeSeat(state, noopLogger{}, 0, "user-1"))

	handler.processBots(context.Background(), state, dispatcher, noopLogger{})

	botCount := 0
	for _, seat := range state.Seats {
		if isBotUserId(seat) {
			botCount++
		}
	}
	assert.Equal(t, 3, botCount)
	assert.Len(t, state.Bots, 3)
	assert.Zero(t, state.GetOpenSeatsCount())
	assert.Zero(t, state.LastSinglePlayerTick)

	table, err := state.App.Table(state.TableID)
	require.NoError(t, err)
	assert.True(t, table.Full())
	assert.NotEmpty(t, dispatcher.withOp(OpSeatsChanged))
	assert.Positive(t, dispatcher.labelUpdates)
}

func TestProcessBots_BotActsAfterDelay(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t)
	state.BotsEnabled = true
	state.BotMinDelay, state.BotMaxDelay = 1, 1
	owner := mockPresence{userID: "user-1", username: "user-1"}
	handler.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.Presence{owner})
	for i := 1; i < domain.SeatCount; i++ {
		require.True(t, handler.seatBot(state, noopLogger{}, i, true))
	}
	handler.handleStartGame(context.Background(), state, dispatcher, noopLogger{}, mockMatchData{mockPresence: owner, opCode: OpStartGame})
	require.True(t, state.Playing())

	state.Tick = 100
	handler.processBots(context.Background(), state, dispatcher, noopLogger{})
	assert.Equal(t, int64(101), state.BotWaitUntil)
	public, err := state.App.PublicState(state.TableID)
	require.NoError(t, err)
	assert.Empty(t, public.Bids)

	state.Tick = 101
	handler.processBots(context.Background(), state, dispatcher, noopLogger{})
	public, err = state.App.PublicState(state.TableID)
	require.NoError(t, err)
	assert.Len(t, public.Bids, 1)
	assert.Equal(t, domain.Seat(1), public.Bids[0].Seat)
}

func TestTurnTimer_PlaysForIdleHuman(t *testing.T) {
	handler := &matchHandler{}
	state := newTestState(t)
	state.TurnDuration = 5
	state.Tick = 40
	dispatcher := &mockDispatcher{}
	players := humans(domain.SeatCount)
	handler.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 40, state, players)
	handler.handleStartGame(context.Background(), state, dispatcher, noopLogger{}, mockMatchData{mockPresence: players[0].(mockPresence), opCode: OpStartGame})
	require.True(t, state.Playing())
	assert.Equal(t, int64(45), state.TurnExpiresAt)

	publics := dispatcher.withOp(OpPublicState)
	require.NotEmpty(t, publics)
	var public app.PublicState
	require.NoError(t, json.Unmarshal(publics[len(publics)-1].data, &public))
	assert.Equal(t, 5, public.TurnSeconds)

	handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 44, state, nil)
	public, err := state.App.PublicState(state.TableID)
	require.NoError(t, err)
	assert.Empty(t, public.Bids)

	handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 45, state, nil)
	public, err = state.App.PublicState(state.TableID)
	require.NoError(t, err)
	require.Len(t, public.Bids, 1)
	assert.Equal(t, domain.Seat(1), public.Bids[0].Seat)
	assert.Equal(t, int64(50), state.TurnExpiresAt, "the next seat gets a fresh clock")
}

func TestTurnTimer_StopsForBotsAndWhenDisabled(t *testing.T) {
	handler, state, _, _ := startedMatch(t)
	state.Tick = 10

	state.TurnDuration = 0
	handler.armTurnTimer(state)
	assert.Zero(t, state.TurnExpiresAt)

	state.TurnDuration = 5
	state.Seats[1] = bot.GetBotIdentity(0).UserID
	handler.armTurnTimer(state)
	assert.Zero(t, state.TurnExpiresAt, "seat 1 is to act and is a bot")
}

func TestMatchLeave(t *testing.T) {
	t.Run("lobby frees the seat", func(t *testing.T) {
		handler := &matchHandler{}
		state := newTestState(t)
		dispatcher := &mockDispatcher{}
		players := humans(2)
		handler.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, players)

		result := handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, players[:1])
		require.NotNil(t, result)
		assert.Equal(t, "", state.Seats[0])
		assert.Equal(t, 1, state.OwnerSeat)
		table, err := state.App.Table(state.TableID)
		require.NoError(t, err)
		assert.Nil(t, table.Player(0))
	})

	t.Run("mid-game a bot takes over", func(t *testing.T) {
		handler, state, dispatcher, players := startedMatch(t)
		state.BotsEnabled = true

		result := handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, players[1:2])
		require.NotNil(t, result)
		assert.True(t, isBotUserId(state.Seats[1]))
		assert.Contains(t, state.Bots, state.Seats[1])
		assert.True(t, state.Playing())
	})

	t.Run("last human leaving terminates", func(t *testing.T) {
		handler := &matchHandler{}
		state := newTestState(t)
		players := humans(1)
		handler.MatchJoin(context.Background(), noopLogger{}, nil, nil, &mockDispatcher{}, 1, state, players)
		assert.Nil(t, handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, &mockDispatcher{}, 2, state, players))
	})
}

func TestResetTableRotatesDealer(t *testing.T) {
	handler, state, _, players := startedMatch(t)

	handler.resetTable(state, noopLogger{})

	assert.Equal(t, domain.PhaseLobby, state.Phase())
	assert.Equal(t, domain.Seat(1), state.NextDealer)
	table, err := state.App.Table(state.TableID)
	require.NoError(t, err)
	assert.True(t, table.Full())
	for i, p := range players {
		assert.Equal(t, p.GetUserId(), state.Seats[i])
	}
}
