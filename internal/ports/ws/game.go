package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"euchre/internal/app"
	"euchre/internal/bot"
	"euchre/internal/config"
	"euchre/internal/domain"
	"euchre/internal/ports"
)

var (
	errNoTable       = errors.New("join or create a table first")
	errNotSeated     = errors.New("take a seat first")
	errAlreadySeated = errors.New("already seated")
	errSeatHeld      = errors.New("seat is held by another client")
)

// session is what the server remembers about one connection.
type session struct {
	table  uuid.UUID
	seat   domain.Seat
	seated bool
}

// room tracks the clients and bots attached to one table.
type room struct {
	clients    map[*Client]bool
	seats      [domain.SeatCount]*Client
	bots       [domain.SeatCount]*bot.Agent
	botPending bool

	nextDealer domain.Seat // first dealer of the next game
	dealer     domain.Seat // first dealer of the current game

	// turn clock; seq invalidates timers armed for an earlier state
	seq          int
	turnDeadline time.Time
}

func newRoom() *room {
	return &room{clients: make(map[*Client]bool)}
}

// Game implements EventHandler on top of app.Service. It is only ever used from
// the hub goroutine.
type Game struct {
	svc *app.Service
	pub ports.StatePublisher
	cfg *config.GameConfig
	log *logrus.Entry
	rng *rand.Rand

	// post runs a function on the hub goroutine. NewServer points it at the hub.
	post func(func()) bool

	sessions map[*Client]*session
	rooms    map[uuid.UUID]*room
}

// NewGame builds the handler. pub may be nil when nothing outside the server
// follows tables.
func NewGame(svc *app.Service, pub ports.StatePublisher, cfg *config.GameConfig, log *logrus.Entry) *Game {
	if cfg == nil {
		cfg = config.GetGameConfig()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Game{
		svc:      svc,
		pub:      pub,
		cfg:      cfg,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		post:     func(fn func()) bool { fn(); return true },
		sessions: make(map[*Client]*session),
		rooms:    make(map[uuid.UUID]*room),
	}
}

func (g *Game) OnConnect(c *Client) {
	g.sessions[c] = &session{}
	c.log.Debug("connected")
}

func (g *Game) OnDisconnect(c *Client) {
	s, ok := g.sessions[c]
	if !ok {
		return
	}
	delete(g.sessions, c)
	g.leaveTable(c, s)
	c.log.Debug("disconnected")
}

func (g *Game) OnMessage(c *Client, msg Message) {
	s := g.sessions[c]
	if s == nil {
		return
	}

	var err error
	switch msg.Type {
	case TypeCreateTable:
		err = g.createTable(c, s)
	case TypeJoinTable:
		err = g.joinTable(c, s, msg.Payload)
	case TypeTakeSeat:
		err = g.takeSeat(c, s, msg.Payload)
	case TypeLeaveSeat:
		err = g.leaveSeat(c, s)
	case TypeAddBot:
		err = g.addBot(s, msg.Payload)
	case TypeStartGame:
		err = g.startGame(s, msg.Payload)
	case TypeMove:
		err = g.move(s, msg.Payload)
	case TypeGetState:
		err = g.sendState(c, s)
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}
	if err != nil {
		c.log.WithError(err).WithField("type", msg.Type).Debug("request rejected")
		g.sendError(c, err)
	}
}

func (g *Game) createTable(c *Client, s *session) error {
	id := g.svc.CreateTable()
	g.rooms[id] = newRoom()
	g.attach(c, s, id)

	g.log.WithField("table", id).Info("table created")
	g.send(c, TypeTableCreated, tableCreated{TableID: id.String()})
	return g.sendState(c, s)
}

func (g *Game) joinTable(c *Client, s *session, payload json.RawMessage) error {
	var req joinTableRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	id, err := uuid.Parse(req.TableID)
	if err != nil {
		return fmt.Errorf("%w: %s", app.ErrUnknownTable, req.TableID)
	}
	if _, ok := g.rooms[id]; !ok {
		return app.ErrUnknownTable
	}
	g.attach(c, s, id)
	return g.sendState(c, s)
}

func (g *Game) takeSeat(c *Client, s *session, payload json.RawMessage) error {
	r, err := g.room(s)
	if err != nil {
		return err
	}
	if s.seated {
		return errAlreadySeated
	}
	var req takeSeatRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	if !req.Seat.Valid() {
		return domain.ErrInvalidSeat
	}

	phase, err := g.svc.Phase(s.table)
	if err != nil {
		return err
	}
	if phase != domain.PhaseLobby {
		// Mid-game a client may pick up a seat whose owner disconnected.
		if r.seats[req.Seat] != nil || r.bots[req.Seat] != nil {
			return errSeatHeld
		}
		r.seats[req.Seat] = c
		s.seat, s.seated = req.Seat, true
		c.log.WithFields(logrus.Fields{"table": s.table, "seat": req.Seat}).Info("seat reclaimed")
		return g.sendState(c, s)
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("Player %d", req.Seat+1)
	}
	events, err := g.svc.SeatPlayer(s.table, req.Seat, name)
	if err != nil {
		return err
	}
	r.seats[req.Seat] = c
	s.seat, s.seated = req.Seat, true
	g.broadcast(s.table, r, events)
	return nil
}

func (g *Game) leaveSeat(c *Client, s *session) error {
	r, err := g.room(s)
	if err != nil {
		return err
	}
	if !s.seated {
		return errNotSeated
	}
	events, err := g.svc.UnseatPlayer(s.table, s.seat)
	if err != nil {
		return err
	}
	r.seats[s.seat] = nil
	s.seated = false
	g.broadcast(s.table, r, events)
	return nil
}

func (g *Game) addBot(s *session, payload json.RawMessage) error {
	r, err := g.room(s)
	if err != nil {
		return err
	}
	var req addBotRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	if !req.Seat.Valid() {
		return domain.ErrInvalidSeat
	}

	identity := bot.GetBotIdentity(int(req.Seat))
	level := bot.LevelForDifficulty(req.Level)
	agent, err := bot.NewAgent(identity.UserID, identity.DisplayName, level)
	if err != nil {
		return err
	}
	events, err := g.svc.SeatPlayer(s.table, req.Seat, agent.Name)
	if err != nil {
		return err
	}
	r.bots[req.Seat] = agent
	g.broadcast(s.table, r, events)
	return nil
}

func (g *Game) startGame(s *session, payload json.RawMessage) error {
	r, err := g.room(s)
	if err != nil {
		return err
	}
	if !s.seated {
		return errNotSeated
	}
	var req startGameRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	dealer := r.nextDealer
	if req.Dealer != nil {
		dealer = *req.Dealer
	}
	events, err := g.svc.StartGame(s.table, dealer)
	if err != nil {
		return err
	}
	r.dealer = dealer
	g.log.WithFields(logrus.Fields{"table": s.table, "dealer": dealer}).Info("game started")
	g.broadcast(s.table, r, events)
	return nil
}

func (g *Game) move(s *session, payload json.RawMessage) error {
	r, err := g.room(s)
	if err != nil {
		return err
	}
	if !s.seated {
		return errNotSeated
	}
	var move app.Move
	if err := decode(payload, &move); err != nil {
		return err
	}
	events, err := g.svc.ApplyMove(s.table, s.seat, move)
	if err != nil {
		return err
	}
	g.broadcast(s.table, r, events)
	return nil
}

// broadcast delivers events to everyone allowed to see them, then pushes the
// resulting state and lets a bot act if it is next. A finished game leaves the
// table as a fresh lobby with the same players.
func (g *Game) broadcast(id uuid.UUID, r *room, events []app.Event) {
	ctx := context.Background()
	ended := false
	for _, ev := range events {
		if ev.Kind == app.EventGameEnded {
			ended = true
		}
		for seat, agent := range r.bots {
			if agent != nil && ev.VisibleTo(domain.Seat(seat)) {
				agent.OnGameEvent(ev)
			}
		}
		for client := range r.clients {
			if s := g.sessions[client]; ev.Private() && (s == nil || !s.seated || !ev.VisibleTo(s.seat)) {
				continue
			}
			g.send(client, TypeEvent, ev)
		}
		if g.pub != nil && !ev.Private() {
			if err := g.pub.PublishEvent(ctx, id.String(), ev); err != nil {
				g.log.WithError(err).WithField("table", id).Warn("publish event failed")
			}
		}
	}

	r.seq++
	state, err := g.svc.PublicState(id)
	if err != nil {
		g.log.WithError(err).WithField("table", id).Error("public state")
		return
	}
	g.armTurnClock(id, r, state)
	state = g.withClock(r, state)
	for client := range r.clients {
		g.send(client, TypePublicState, state)
		if s := g.sessions[client]; s != nil && s.seated {
			g.sendHand(client, id, s.seat)
		}
	}
	g.publish(ctx, id, state)
	g.scheduleBot(id, r, state)

	if ended {
		g.resetTable(id, r)
		g.broadcast(id, r, nil)
	}
}

// resetTable replaces a finished table with a lobby under the same id, seats
// everyone still attached again and passes the first deal one seat on.
func (g *Game) resetTable(id uuid.UUID, r *room) {
	log := g.log.WithField("table", id)
	names := [domain.SeatCount]string{}
	if t, err := g.svc.Table(id); err == nil {
		for seat := range names {
			if p := t.Player(domain.Seat(seat)); p != nil {
				names[seat] = p.Name
			}
		}
	}

	g.svc.RemoveTable(id)
	if err := g.svc.CreateTableWithID(id); err != nil {
		log.WithError(err).Error("reset table")
		return
	}
	r.nextDealer = r.dealer.Next()
	r.turnDeadline = time.Time{}

	for seat := domain.Seat(0); seat < domain.SeatCount; seat++ {
		if r.seats[seat] == nil && r.bots[seat] == nil {
			continue
		}
		if _, err := g.svc.SeatPlayer(id, seat, names[seat]); err != nil {
			log.WithError(err).WithField("seat", seat).Warn("could not seat again")
			if c := r.seats[seat]; c != nil {
				if s := g.sessions[c]; s != nil {
					s.seated = false
				}
			}
			r.seats[seat], r.bots[seat] = nil, nil
		}
	}
	log.WithField("next_dealer", r.nextDealer).Info("table reset for a new game")
}

// armTurnClock starts the turn clock when a human seat, or a seat whose client
// left, is to act.
func (g *Game) armTurnClock(id uuid.UUID, r *room, state app.PublicState) {
	r.turnDeadline = time.Time{}
	limit := g.cfg.TurnDuration()
	if limit <= 0 || state.Phase != domain.PhasePlaying || state.Turn == nil || r.bots[*state.Turn] != nil {
		return
	}
	r.turnDeadline = time.Now().Add(limit)
	seq := r.seq
	time.AfterFunc(limit, func() {
		g.post(func() { g.turnExpired(id, seq) })
	})
}

func (g *Game) withClock(r *room, state app.PublicState) app.PublicState {
	if !r.turnDeadline.IsZero() {
		if left := time.Until(r.turnDeadline).Round(time.Second); left > 0 {
			state.TurnSeconds = int(left / time.Second)
		}
	}
	return state
}

// turnExpired plays a random legal move for the seat whose clock ran out.
func (g *Game) turnExpired(id uuid.UUID, seq int) {
	r, ok := g.rooms[id]
	if !ok || r.seq != seq {
		return
	}
	state, err := g.svc.PublicState(id)
	if err != nil || state.Turn == nil {
		return
	}
	seat := *state.Turn
	log := g.log.WithFields(logrus.Fields{"table": id, "seat": seat})

	agent, err := bot.NewAgent("", state.Seats[seat].Name, bot.BotLevelRandom)
	if err != nil {
		log.WithError(err).Error("turn clock agent")
		return
	}
	move, err := agent.Play(g.svc, id, seat)
	if err != nil {
		log.WithError(err).Warn("no move for idle seat")
		return
	}
	events, err := g.svc.ApplyMove(id, seat, move)
	if err != nil {
		log.WithError(err).Error("timed out move rejected")
		return
	}
	log.Info("turn clock ran out, move played")
	g.broadcast(id, r, events)
}

func (g *Game) publish(ctx context.Context, id uuid.UUID, state app.PublicState) {
	if g.pub == nil {
		return
	}
	if err := g.pub.PublishPublicState(ctx, state); err != nil {
		g.log.WithError(err).WithField("table", id).Warn("publish state failed")
	}
	if state.Phase != domain.PhasePlaying {
		return
	}
	for seat := domain.Seat(0); seat < domain.SeatCount; seat++ {
		hand, err := g.svc.PrivateHand(id, seat)
		if err != nil {
			continue
		}
		if err := g.pub.PublishPrivateHand(ctx, id.String(), seat, hand); err != nil {
			g.log.WithError(err).WithFields(logrus.Fields{"table": id, "seat": seat}).Warn("publish hand failed")
		}
	}
}

// scheduleBot arms a think timer when the seat to act belongs to a bot.
func (g *Game) scheduleBot(id uuid.UUID, r *room, state app.PublicState) {
	if r.botPending || state.Turn == nil || r.bots[*state.Turn] == nil {
		return
	}
	r.botPending = true

	lo, hi := g.cfg.BotThinkRange()
	delay := lo
	if hi > lo {
		delay += time.Duration(g.rng.Int63n(int64(hi - lo)))
	}
	time.AfterFunc(delay, func() {
		g.post(func() { g.runBot(id) })
	})
}

func (g *Game) runBot(id uuid.UUID) {
	r, ok := g.rooms[id]
	if !ok {
		return
	}
	r.botPending = false

	state, err := g.svc.PublicState(id)
	if err != nil || state.Turn == nil {
		return
	}
	seat := *state.Turn
	agent := r.bots[seat]
	if agent == nil {
		return
	}
	log := g.log.WithFields(logrus.Fields{"table": id, "seat": seat, "bot": agent.Name})

	move, err := agent.Play(g.svc, id, seat)
	if err != nil {
		if errors.Is(err, bot.ErrNoLegalMove) {
			return
		}
		log.WithError(err).Warn("bot strategy failed, using fallback move")
	}
	events, err := g.svc.ApplyMove(id, seat, move)
	if err != nil {
		log.WithError(err).Error("bot move rejected")
		return
	}
	g.broadcast(id, r, events)
}

func (g *Game) sendState(c *Client, s *session) error {
	if _, err := g.room(s); err != nil {
		return err
	}
	state, err := g.svc.PublicState(s.table)
	if err != nil {
		return err
	}
	g.send(c, TypePublicState, g.withClock(g.rooms[s.table], state))
	if s.seated {
		g.sendHand(c, s.table, s.seat)
	}
	return nil
}

func (g *Game) sendHand(c *Client, id uuid.UUID, seat domain.Seat) {
	hand, err := g.svc.PrivateHand(id, seat)
	if err != nil {
		return
	}
	legal, _ := g.svc.LegalMoves(id, seat)
	msg := PrivateHand{Seat: seat, Hand: hand, Legal: legal}
	if msg.Hand == nil {
		msg.Hand = []domain.Card{}
	}
	if msg.Legal == nil {
		msg.Legal = []app.Move{}
	}
	g.send(c, TypePrivateHand, msg)
}

func (g *Game) sendError(c *Client, err error) {
	g.send(c, TypeError, ErrorPayload{Code: ports.ErrorCode(err), Message: err.Error()})
}

func (g *Game) send(c *Client, typ string, payload any) {
	msg, err := newMessage(typ, payload)
	if err != nil {
		c.log.WithError(err).WithField("type", typ).Error("marshal failed")
		return
	}
	c.Send(msg)
}

// attach moves the client to table id, leaving any previous table.
func (g *Game) attach(c *Client, s *session, id uuid.UUID) {
	if s.table != uuid.Nil && s.table != id {
		g.leaveTable(c, s)
	}
	g.rooms[id].clients[c] = true
	s.table = id
}

// leaveTable detaches the client. A lobby seat is given up; mid-game the seat
// keeps its cards so another connection can reclaim it. Tables nobody watches
// are dropped.
func (g *Game) leaveTable(c *Client, s *session) {
	r, ok := g.rooms[s.table]
	if !ok {
		*s = session{}
		return
	}
	delete(r.clients, c)

	if s.seated {
		r.seats[s.seat] = nil
		if phase, err := g.svc.Phase(s.table); err == nil && phase == domain.PhaseLobby {
			if events, err := g.svc.UnseatPlayer(s.table, s.seat); err == nil {
				g.broadcast(s.table, r, events)
			}
		}
	}

	if len(r.clients) == 0 {
		g.svc.RemoveTable(s.table)
		delete(g.rooms, s.table)
		g.log.WithField("table", s.table).Info("table closed")
	}
	*s = session{}
}

func (g *Game) room(s *session) (*room, error) {
	r, ok := g.rooms[s.table]
	if !ok {
		return nil, errNoTable
	}
	return r, nil
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
