package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"euchre/internal/app"
	"euchre/internal/bot"
	"euchre/internal/config"
	"euchre/internal/domain"
	"euchre/internal/ports"
)

const (
	MatchLabelKeyOpenSeats = "open" // Key for the open seats in the match label

	botIdentitiesPath = "data/bot_identities.json"
	gameConfigPath    = "data/game_config.json"

	tickRate = 1 // ticks per second; bot delays are counted in ticks
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats                [domain.SeatCount]string    `json:"seats"`                   // Array of user IDs, empty string means seat is empty
	OwnerSeat            int                         `json:"owner_seat"`              // Seat index of the match owner
	NextDealer           domain.Seat                 `json:"next_dealer"`             // Dealer of the first hand of the next game
	Tick                 int64                       `json:"tick"`                    // Current tick of the match for turn-based logic
	Presences            map[string]runtime.Presence `json:"-"`                       // Map UserId -> Presence for targeted messaging
	Names                map[string]string           `json:"-"`                       // Map UserId -> display name
	App                  *app.Service                `json:"-"`                       // Euchre app service holding the single table
	TableID              uuid.UUID                   `json:"table_id"`                // Table of this match inside App
	BotsEnabled          bool                        `json:"bots_enabled"`            // Whether AI players are allowed
	BotMinDelay          int                         `json:"bot_min_delay"`           // Min ticks a bot waits
	BotMaxDelay          int                         `json:"bot_max_delay"`           // Max ticks a bot waits
	BotAutoFillDelay     int                         `json:"bot_auto_fill_delay"`     // Ticks to wait before auto-filling with bots
	BotWaitUntil         int64                       `json:"bot_wait_until"`          // Tick when the bot should act
	TurnDuration         int                         `json:"turn_duration"`           // Ticks a human seat has to act; 0 disables the clock
	TurnExpiresAt        int64                       `json:"turn_expires_at"`         // Tick when the current human turn is played for them
	LastSinglePlayerTick int64                       `json:"last_single_player_tick"` // Tick when a single player started waiting
	Bots                 map[string]*bot.Agent       `json:"-"`                       // Active bot agents
}

// newMatchState builds an empty lobby around a fresh table with id tableID.
func newMatchState(tableID uuid.UUID, cfg *config.GameConfig) *MatchState {
	svc := app.NewService(nil)
	// A fresh service has no tables, so the id cannot collide.
	_ = svc.CreateTableWithID(tableID)

	minThink, maxThink := cfg.BotThinkRange()
	state := &MatchState{
		OwnerSeat:        -1,
		Tick:             time.Now().Unix(),
		Presences:        make(map[string]runtime.Presence),
		Names:            make(map[string]string),
		App:              svc,
		TableID:          tableID,
		BotMinDelay:      int(minThink / time.Second),
		BotMaxDelay:      int(maxThink / time.Second),
		BotAutoFillDelay: cfg.BotAutoFillDelaySeconds,
		TurnDuration:     int(cfg.TurnDuration() / time.Second * tickRate),
		Bots:             make(map[string]*bot.Agent),
	}

	// Defaults if not set
	if state.BotMinDelay <= 0 {
		state.BotMinDelay = 1
	}
	if state.BotMaxDelay < state.BotMinDelay {
		state.BotMaxDelay = state.BotMinDelay
	}
	if state.BotAutoFillDelay <= 0 {
		state.BotAutoFillDelay = 5
	}
	return state
}

// applyEnv reads the bot settings from the Nakama runtime environment.
func (ms *MatchState) applyEnv(env map[string]string) {
	if val, ok := env["euchre_bots_enabled"]; ok {
		ms.BotsEnabled = val == "true"
	}
	if val, ok := env["euchre_bot_min_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			ms.BotMinDelay = i
		}
	}
	if val, ok := env["euchre_bot_max_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			ms.BotMaxDelay = i
		}
	}
	if val, ok := env["euchre_bot_auto_fill_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			ms.BotAutoFillDelay = i
		}
	}
	if val, ok := env["euchre_turn_duration_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i >= 0 {
			ms.TurnDuration = i * tickRate
		}
	}
	if ms.BotMaxDelay < ms.BotMinDelay {
		ms.BotMaxDelay = ms.BotMinDelay
	}
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return len(ms.Seats) - ms.GetOpenSeatsCount()
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// Phase is the lifecycle stage of the match's table.
func (ms *MatchState) Phase() domain.Phase {
	phase, err := ms.App.Phase(ms.TableID)
	if err != nil {
		return domain.PhaseLobby
	}
	return phase
}

// Playing reports whether a game is in progress.
func (ms *MatchState) Playing() bool {
	return ms.Phase() == domain.PhasePlaying
}

// seatOf returns the seat held by userID or -1.
func (ms *MatchState) seatOf(userID string) int {
	for i, seatUserID := range ms.Seats {
		if seatUserID != "" && seatUserID == userID {
			return i
		}
	}
	return -1
}

func (ms *MatchState) displayName(userID string) string {
	if name := ms.Names[userID]; name != "" {
		return name
	}
	if name := bot.GetBotDisplayName(userID); name != "" {
		return name
	}
	if p, ok := ms.Presences[userID]; ok && p.GetUsername() != "" {
		return p.GetUsername()
	}
	return userID
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	var names nameResolver
	if nk != nil {
		names = NewNakamaAccountAdapter(nk)
	}
	return &matchHandler{names: names}, nil
}

// nameResolver looks up the display name of an account.
type nameResolver interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

type matchHandler struct {
	names nameResolver
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	// Load bot identities from data folder
	if err := bot.LoadIdentities(botIdentitiesPath); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadGameConfig(gameConfigPath); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	// The table shares the match's uuid so voice channels can be derived from the match id.
	tableID := uuid.New()
	if matchID, ok := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string); ok {
		if id, err := tableIDFromMatchID(matchID); err == nil {
			tableID = id
		}
	}

	state := newMatchState(tableID, config.GetGameConfig())
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		state.applyEnv(env)
	}

	label, err := matchLabel(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// A seated player reconnecting always gets back in.
	if matchState.seatOf(presence.GetUserId()) >= 0 {
		return state, true, ""
	}

	// Allow join if there is an empty seat OR a bot to replace (if game hasn't started)
	if matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		if !matchState.Playing() {
			for _, seat := range matchState.Seats {
				if isBotUserId(seat) {
					hasBot = true
					break
				}
			}
		}
		if !hasBot {
			return state, false, "Match full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p
		matchState.Names[userID] = mh.resolveName(ctx, logger, p)

		if matchState.seatOf(userID) >= 0 {
			continue
		}

		// Assign seat: Try empty seats first, then bots (if lobby)
		assigned := false
		for i, seatUserId := range matchState.Seats {
			if seatUserId == "" {
				assigned = mh.takeSeat(matchState, logger, i, userID)
				break
			}
		}

		if !assigned && !matchState.Playing() {
			for i, seatUserId := range matchState.Seats {
				if isBotUserId(seatUserId) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, userID, i)
					mh.freeSeat(matchState, logger, i)
					assigned = mh.takeSeat(matchState, logger, i, userID)
					break
				}
			}
		}

		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
		}
	}

	// Ensure owner seat is assigned to a human player only.
	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSeats(matchState, dispatcher, logger)
	if matchState.Playing() {
		mh.publishState(matchState, dispatcher, logger)
	}

	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		i := matchState.seatOf(userID)
		if i < 0 {
			continue
		}
		if !matchState.Playing() {
			mh.freeSeat(matchState, logger, i)
			logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, i)
			continue
		}

		// Mid-game the seat keeps its cards; a bot finishes the game for it when allowed.
		if matchState.BotsEnabled && mh.seatBot(matchState, logger, i, false) {
			logger.Info("MatchLeave: Bot took over seat %d from %s.", i, userID)
		} else {
			matchState.Seats[i] = ""
			logger.Debug("MatchLeave: User %s left, seat %d is vacant until someone joins.", userID, i)
		}
	}

	newOwnerSeat := findFirstHumanSeat(matchState.Seats[:])
	if newOwnerSeat != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwnerSeat
		if newOwnerSeat >= 0 {
			logger.Debug("MatchLeave: Owner set to human seat %d.", newOwnerSeat)
		} else {
			logger.Debug("MatchLeave: No human owner is available.")
		}
	}

	if shouldTerminateNoHumans(matchState.Seats[:]) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSeats(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	// Handle incoming messages
	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpMove:
			mh.handleMove(ctx, matchState, dispatcher, logger, msg)
		case OpRequestState:
			mh.handleRequestState(matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	// AI Logic
	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}
	mh.processTurnTimer(ctx, matchState, dispatcher, logger)

	return matchState
}

// takeSeat binds userID to seat i in both the match and the table.
func (mh *matchHandler) takeSeat(state *MatchState, logger runtime.Logger, i int, userID string) bool {
	if !state.Playing() {
		if _, err := state.App.SeatPlayer(state.TableID, domain.Seat(i), state.displayName(userID)); err != nil {
			logger.Error("takeSeat: Failed to seat %s at %d: %v", userID, i, err)
			return false
		}
	}
	state.Seats[i] = userID
	return true
}

// freeSeat empties seat i in the lobby and drops its bot agent, if any.
func (mh *matchHandler) freeSeat(state *MatchState, logger runtime.Logger, i int) {
	userID := state.Seats[i]
	if _, err := state.App.UnseatPlayer(state.TableID, domain.Seat(i)); err != nil && !errors.Is(err, domain.ErrSeatEmpty) {
		logger.Warn("freeSeat: Failed to unseat %d: %v", i, err)
	}
	delete(state.Bots, userID) // Cleanup AI
	state.Seats[i] = ""
}

// seatBot puts an unused bot identity in seat i. In the lobby the bot is also
// seated at the table; mid-game it plays the cards already dealt to the seat.
func (mh *matchHandler) seatBot(state *MatchState, logger runtime.Logger, i int, lobby bool) bool {
	identity, ok := unusedBotIdentity(state)
	if !ok {
		logger.Warn("seatBot: No free bot identity for seat %d", i)
		return false
	}
	agent, err := bot.AgentFor(identity)
	if err != nil {
		logger.Error("seatBot: Failed to create bot agent for %s: %v", identity.UserID, err)
		return false
	}
	state.Names[identity.UserID] = agent.Name
	if lobby && !mh.takeSeat(state, logger, i, identity.UserID) {
		return false
	}
	state.Seats[i] = identity.UserID
	state.Bots[identity.UserID] = agent
	logger.Info("seatBot: Added bot %s (%s) to seat %d", agent.Name, identity.UserID, i)
	return true
}

func unusedBotIdentity(state *MatchState) (bot.BotIdentity, bool) {
	for i := 0; i < 4*domain.SeatCount; i++ {
		identity := bot.GetBotIdentity(i)
		if identity.UserID != "" && state.seatOf(identity.UserID) < 0 {
			return identity, true
		}
	}
	return bot.BotIdentity{}, false
}

func (mh *matchHandler) resolveName(ctx context.Context, logger runtime.Logger, p runtime.Presence) string {
	if mh.names != nil {
		name, err := mh.names.DisplayName(ctx, p.GetUserId())
		if err == nil && name != "" {
			return name
		}
		if err != nil {
			logger.Warn("resolveName: Failed to look up %s: %v", p.GetUserId(), err)
		}
	}
	return p.GetUsername()
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Auto-fill lobby with bots if there's only one human player after delay
	if state.Phase() == domain.PhaseLobby {
		if state.GetHumanPlayerCount() == 1 && state.GetOpenSeatsCount() > 0 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}

			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
				added := false
				for i, seat := range state.Seats {
					if seat == "" && mh.seatBot(state, logger, i, true) {
						added = true
					}
				}
				if added {
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastSeats(state, dispatcher, logger)
				}
				state.LastSinglePlayerTick = 0
			}
		} else {
			// Reset timer if 0 or >1 humans
			state.LastSinglePlayerTick = 0
		}
		return
	}

	// 2. Handle bot turns in-game
	if !state.Playing() {
		return
	}
	public, err := state.App.PublicState(state.TableID)
	if err != nil || public.Turn == nil {
		state.BotWaitUntil = 0
		return
	}
	currentTurn := *public.Turn
	currentUserID := state.Seats[currentTurn]

	if !isBotUserId(currentUserID) {
		// Not a bot turn, reset wait if it was set
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		delay := rand.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
		state.BotWaitUntil = state.Tick + int64(delay)
		logger.Debug("processBots: Bot %s (seat %d) will act at tick %d (current %d)", currentUserID, currentTurn, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0 // Reset for next turn

	agent, exists := state.Bots[currentUserID]
	if !exists {
		identity, _ := bot.GetBotConfig(currentUserID)
		identity.UserID = currentUserID
		agent, err = bot.AgentFor(identity)
		if err != nil {
			logger.Error("processBots: Failed to create fallback agent: %v", err)
			return
		}
		state.Bots[currentUserID] = agent
	}

	move, err := agent.Play(state.App, state.TableID, currentTurn)
	if err != nil {
		logger.Warn("processBots: Bot %s failed to calculate move, using fallback: %v", currentUserID, err)
		if errors.Is(err, bot.ErrNoLegalMove) {
			return
		}
	}
	if err := mh.applyMove(ctx, state, dispatcher, logger, currentTurn, move); err != nil {
		logger.Error("processBots: Bot %s move %+v rejected: %v", currentUserID, move, err)
	}
}

// armTurnTimer starts the clock for the seat to act, or stops it when that seat
// is a bot or nobody is to act.
func (mh *matchHandler) armTurnTimer(state *MatchState) {
	state.TurnExpiresAt = 0
	if state.TurnDuration <= 0 || !state.Playing() {
		return
	}
	public, err := state.App.PublicState(state.TableID)
	if err != nil || public.Turn == nil || isBotUserId(state.Seats[*public.Turn]) {
		return
	}
	state.TurnExpiresAt = state.Tick + int64(state.TurnDuration)
}

// processTurnTimer plays a random legal move for a human seat whose clock ran out.
// Vacant seats run the same clock, so a table never waits on someone who left.
func (mh *matchHandler) processTurnTimer(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.TurnExpiresAt == 0 || state.Tick < state.TurnExpiresAt {
		return
	}
	state.TurnExpiresAt = 0
	public, err := state.App.PublicState(state.TableID)
	if err != nil || public.Turn == nil {
		return
	}
	seat := *public.Turn
	userID := state.Seats[seat]
	if isBotUserId(userID) {
		return
	}

	agent, err := bot.NewAgent(userID, state.displayName(userID), bot.BotLevelRandom)
	if err != nil {
		logger.Error("processTurnTimer: Failed to create agent: %v", err)
		return
	}
	move, err := agent.Play(state.App, state.TableID, seat)
	if err != nil {
		logger.Warn("processTurnTimer: No move for seat %d: %v", seat, err)
		return
	}
	logger.Info("processTurnTimer: Seat %d (%s) ran out of time, playing %+v.", seat, userID, move)
	if err := mh.applyMove(ctx, state, dispatcher, logger, seat, move); err != nil {
		logger.Error("processTurnTimer: Move %+v for seat %d rejected: %v", move, seat, err)
	}
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		mh.sendError(state, dispatcher, logger, senderID, 403, "only the match owner can start the game")
		return
	}

	activeCount := state.GetOccupiedSeatCount()
	if activeCount < app.MinPlayersToStartGame {
		logger.Warn("StartGame: Cannot start with %d players. Need %d.", activeCount, app.MinPlayersToStartGame)
		mh.sendError(state, dispatcher, logger, senderID, ports.ErrorCode(app.ErrTableNotFull), app.ErrTableNotFull.Error())
		return
	}

	events, err := state.App.StartGame(state.TableID, state.NextDealer)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, ports.ErrorCode(err), err.Error())
		return
	}

	mh.updateLabel(state, dispatcher, logger)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)

	logger.Info("StartGame: Game started, seat %d deals.", state.NextDealer)
}

func (mh *matchHandler) handleMove(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)
	if senderSeat < 0 {
		logger.Warn("handleMove: User %s is not seated.", senderID)
		mh.sendError(state, dispatcher, logger, senderID, 403, "not seated")
		return
	}

	var move app.Move
	if err := json.Unmarshal(msg.GetData(), &move); err != nil {
		logger.Warn("handleMove: Invalid move payload from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid move payload")
		return
	}

	if err := mh.applyMove(ctx, state, dispatcher, logger, domain.Seat(senderSeat), move); err != nil {
		hand, _ := state.App.PrivateHand(state.TableID, domain.Seat(senderSeat))
		logger.Warn("handleMove: User %s (seat %d) move %+v rejected: %v. Hand: %v", senderID, senderSeat, move, err, hand)
		mh.sendError(state, dispatcher, logger, senderID, ports.ErrorCode(err), err.Error())
	}
}

func (mh *matchHandler) handleRequestState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	presence, ok := state.Presences[msg.GetUserId()]
	if !ok {
		return
	}
	recipients := []runtime.Presence{presence}

	mh.broadcastSeatsTo(state, dispatcher, logger, recipients)
	public, err := mh.publicState(state)
	if err != nil {
		logger.Error("handleRequestState: %v", err)
		return
	}
	mh.send(dispatcher, logger, OpPublicState, public, recipients)
	if seat := state.seatOf(msg.GetUserId()); seat >= 0 {
		mh.sendPrivateHand(state, dispatcher, logger, domain.Seat(seat), presence)
	}
}

// applyMove runs move through the table and publishes everything it changed.
func (mh *matchHandler) applyMove(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat domain.Seat, move app.Move) error {
	events, err := state.App.ApplyMove(state.TableID, seat, move)
	if err != nil {
		return err
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	return nil
}

// dispatchEvents notifies bots, broadcasts events and then the resulting state.
// A finished game resets the table to a lobby with the same seats.
func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	ended := false
	for _, ev := range events {
		for i, userID := range state.Seats {
			if agent, ok := state.Bots[userID]; ok && ev.VisibleTo(domain.Seat(i)) {
				agent.OnGameEvent(ev)
			}
		}
		mh.broadcastEvent(state, dispatcher, logger, ev)
		if ev.Kind == app.EventGameEnded {
			ended = true
		}
	}
	mh.armTurnTimer(state)
	mh.publishState(state, dispatcher, logger)

	if ended {
		mh.resetTable(state, logger)
		mh.updateLabel(state, dispatcher, logger)
		mh.broadcastSeats(state, dispatcher, logger)
	}
}

// resetTable replaces a finished table with a fresh lobby under the same id and
// re-seats everyone still present. The deal rotates between games.
func (mh *matchHandler) resetTable(state *MatchState, logger runtime.Logger) {
	state.App.RemoveTable(state.TableID)
	if err := state.App.CreateTableWithID(state.TableID); err != nil {
		logger.Error("resetTable: %v", err)
		return
	}
	state.NextDealer = state.NextDealer.Next()
	state.BotWaitUntil = 0
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}
		if !mh.takeSeat(state, logger, i, userID) {
			state.Seats[i] = ""
		}
	}
}

// publishState sends the public state to everybody and each hand only to its seat.
func (mh *matchHandler) publishState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	public, err := mh.publicState(state)
	if err != nil {
		logger.Error("publishState: %v", err)
		return
	}
	mh.send(dispatcher, logger, OpPublicState, public, nil)

	for i, userID := range state.Seats {
		if presence, ok := state.Presences[userID]; ok {
			mh.sendPrivateHand(state, dispatcher, logger, domain.Seat(i), presence)
		}
	}
}

// publicState is the table's public state with the turn clock filled in.
func (mh *matchHandler) publicState(state *MatchState) (app.PublicState, error) {
	public, err := state.App.PublicState(state.TableID)
	if err != nil {
		return public, err
	}
	if state.TurnExpiresAt > 0 {
		if left := (state.TurnExpiresAt - state.Tick) / tickRate; left > 0 {
			public.TurnSeconds = int(left)
		}
	}
	return public, nil
}

// privateHandMessage is the OpPrivateHand payload.
type privateHandMessage struct {
	Seat  domain.Seat   `json:"seat"`
	Hand  []domain.Card `json:"hand"`
	Legal []app.Move    `json:"legal"`
}

func (mh *matchHandler) sendPrivateHand(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat domain.Seat, presence runtime.Presence) {
	hand, err := state.App.PrivateHand(state.TableID, seat)
	if err != nil {
		return
	}
	legal, _ := state.App.LegalMoves(state.TableID, seat)
	msg := privateHandMessage{Seat: seat, Hand: hand, Legal: legal}
	if msg.Hand == nil {
		msg.Hand = []domain.Card{}
	}
	if msg.Legal == nil {
		msg.Legal = []app.Move{}
	}
	mh.send(dispatcher, logger, OpPrivateHand, msg, []runtime.Presence{presence})
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if ev.Private() {
		for _, seat := range ev.Recipients {
			if !seat.Valid() {
				continue
			}
			if p, ok := state.Presences[state.Seats[seat]]; ok {
				recipients = append(recipients, p)
			}
		}

		// If we had intended recipients but none are connected (e.g. they are bots),
		// we MUST NOT broadcast to everyone else.
		if len(recipients) == 0 {
			return
		}
	}

	logger.Debug("Event: %s (recipients=%d)", ev.Kind, len(ev.Recipients))
	mh.send(dispatcher, logger, OpGameEvent, ev, recipients)
}

// seatInfo describes one seat in the OpSeatsChanged payload.
type seatInfo struct {
	Seat        int    `json:"seat"`
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	IsBot       bool   `json:"is_bot"`
	IsOwner     bool   `json:"is_owner"`
}

type seatsMessage struct {
	Seats     []seatInfo `json:"seats"`
	OwnerSeat int        `json:"owner_seat"`
	Tick      int64      `json:"tick"`
	Phase     string     `json:"phase"`
}

func (mh *matchHandler) broadcastSeats(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	mh.broadcastSeatsTo(state, dispatcher, logger, nil)
}

func (mh *matchHandler) broadcastSeatsTo(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, recipients []runtime.Presence) {
	msg := seatsMessage{
		Seats:     make([]seatInfo, 0, len(state.Seats)),
		OwnerSeat: state.OwnerSeat,
		Tick:      state.Tick,
		Phase:     string(state.Phase()),
	}
	for i, userID := range state.Seats {
		info := seatInfo{Seat: i, IsOwner: i == state.OwnerSeat}
		if userID != "" {
			info.UserID = userID
			info.DisplayName = state.displayName(userID)
			info.IsBot = isBotUserId(userID)
		}
		msg.Seats = append(msg.Seats, info)
	}
	mh.send(dispatcher, logger, OpSeatsChanged, msg, recipients)
}

// gameError is the OpGameError payload.
type gameError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// sendError sends a game error to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}
	mh.send(dispatcher, logger, OpGameError, gameError{Code: code, Message: message}, []runtime.Presence{presence})
}

// send marshals payload as JSON. nil recipients broadcast to the whole match.
func (mh *matchHandler) send(dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64, payload any, recipients []runtime.Presence) {
	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal payload for op %d: %v", opCode, err)
		return
	}
	if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
		logger.Error("Failed to send op %d: %v", opCode, err)
	}
}

// matchLabel renders the listing label, e.g. {"game":"euchre","open":3,"state":"lobby"}.
func matchLabel(state *MatchState) (string, error) {
	label, err := structpb.NewStruct(map[string]interface{}{
		MatchLabelKeyOpenSeats: state.GetOpenSeatsCount(),
		"state":                string(labelPhase(state)),
		"game":                 GameLabel,
	})
	if err != nil {
		return "", err
	}
	labelBytes, err := protojson.Marshal(label)
	if err != nil {
		return "", err
	}
	return string(labelBytes), nil
}

func labelPhase(state *MatchState) domain.Phase {
	if state.Playing() {
		return domain.PhasePlaying
	}
	return domain.PhaseLobby
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	if matchState, ok := state.(*MatchState); ok {
		matchState.App.RemoveTable(matchState.TableID)
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
