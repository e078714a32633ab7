package app

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"euchre/internal/domain"
)

var (
	ErrUnknownTable = errors.New("table not found")
	ErrTableExists  = errors.New("table already exists")
	ErrTableNotFull = errors.New("not enough players to start")
	ErrUnknownMove  = errors.New("unknown move")
	ErrNotInLobby   = errors.New("table not in lobby")
	ErrMissingCard  = errors.New("move requires a card")
	ErrMissingSuit  = errors.New("move requires a suit")
)

// Service contains euchre use-cases operating on domain state. It is not safe for
// concurrent use; callers serialize moves per table.
type Service struct {
	shuffler domain.Shuffler
	tables   map[uuid.UUID]*game
}

type game struct {
	id        uuid.UUID
	table     *domain.Table
	phase     domain.Phase
	lastTrick *domain.Trick
}

// NewService constructs a Service with the provided shuffler or a time-seeded default.
func NewService(shuffler domain.Shuffler) *Service {
	if shuffler == nil {
		shuffler = domain.NewRandShuffler(nil)
	}
	return &Service{shuffler: shuffler, tables: make(map[uuid.UUID]*game)}
}

// CreateTable opens an empty table and returns its id.
func (s *Service) CreateTable() uuid.UUID {
	id := uuid.New()
	s.tables[id] = newGame(id)
	return id
}

// CreateTableWithID opens an empty table under a caller-chosen id.
func (s *Service) CreateTableWithID(id uuid.UUID) error {
	if _, ok := s.tables[id]; ok {
		return fmt.Errorf("%w: %s", ErrTableExists, id)
	}
	s.tables[id] = newGame(id)
	return nil
}

// RemoveTable discards a table and everything on it.
func (s *Service) RemoveTable(id uuid.UUID) {
	delete(s.tables, id)
}

// TableIDs lists open tables.
func (s *Service) TableIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.tables))
	for id := range s.tables {
		ids = append(ids, id)
	}
	return ids
}

// Table exposes the domain table for read-only inspection.
func (s *Service) Table(id uuid.UUID) (*domain.Table, error) {
	g, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return g.table, nil
}

// Phase returns the lifecycle stage of a table.
func (s *Service) Phase(id uuid.UUID) (domain.Phase, error) {
	g, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	return g.phase, nil
}

// SeatPlayer binds name to seat while the table is in the lobby.
func (s *Service) SeatPlayer(id uuid.UUID, seat domain.Seat, name string) ([]Event, error) {
	g, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if g.phase != domain.PhaseLobby {
		return nil, ErrNotInLobby
	}
	if err := g.table.SeatPlayer(&domain.Player{Name: name}, seat); err != nil {
		return nil, err
	}
	return []Event{{
		Kind:    EventPlayerSeated,
		Payload: PlayerSeatedPayload{Seat: seat, Name: name},
	}}, nil
}

// UnseatPlayer frees seat while the table is in the lobby.
func (s *Service) UnseatPlayer(id uuid.UUID, seat domain.Seat) ([]Event, error) {
	g, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if g.phase != domain.PhaseLobby {
		return nil, ErrNotInLobby
	}
	p, err := g.table.UnseatPlayer(seat)
	if err != nil {
		return nil, err
	}
	return []Event{{
		Kind:    EventPlayerLeft,
		Payload: PlayerLeftPayload{Seat: seat, Name: p.Name},
	}}, nil
}

// StartGame deals the first hand with dealer once all four seats are filled.
func (s *Service) StartGame(id uuid.UUID, dealer domain.Seat) ([]Event, error) {
	g, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if g.phase != domain.PhaseLobby {
		return nil, ErrNotInLobby
	}
	if !dealer.Valid() {
		return nil, fmt.Errorf("%w: dealer %d", domain.ErrInvalidSeat, dealer)
	}
	if !g.table.Full() {
		return nil, ErrTableNotFull
	}

	g.table.Dealer = dealer
	g.lastTrick = nil
	events, err := s.deal(g)
	if err != nil {
		return nil, err
	}
	g.phase = domain.PhasePlaying
	return append([]Event{{
		Kind:    EventGameStarted,
		Payload: GameStartedPayload{Dealer: dealer},
	}}, events...), nil
}

// ApplyMove validates and applies move for seat. A rejected move leaves the table
// unchanged. The returned events describe the public state delta; private events
// carry their recipients.
func (s *Service) ApplyMove(id uuid.UUID, seat domain.Seat, move Move) ([]Event, error) {
	g, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if g.phase != domain.PhasePlaying || g.table.Hand == nil {
		return nil, fmt.Errorf("%w: table is %s", domain.ErrWrongPhase, g.phase)
	}
	if !seat.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidSeat, seat)
	}

	h := g.table.Hand
	switch move.Kind {
	case MovePass:
		return s.pass(g, seat)
	case MoveOrderUp:
		return s.orderUp(g, seat, move.Alone)
	case MoveCallSuit:
		if move.Suit == nil {
			return nil, ErrMissingSuit
		}
		return s.callSuit(g, seat, *move.Suit, move.Alone)
	case MoveDeclareAlone:
		if h.Phase == domain.HandPhaseBidRound2 {
			if move.Suit == nil {
				return nil, ErrMissingSuit
			}
			return s.callSuit(g, seat, *move.Suit, true)
		}
		return s.orderUp(g, seat, true)
	case MoveDiscard:
		if move.Card == nil {
			return nil, ErrMissingCard
		}
		return s.discard(g, seat, *move.Card)
	case MovePlay:
		if move.Card == nil {
			return nil, ErrMissingCard
		}
		return s.play(g, seat, *move.Card)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMove, move.Kind)
	}
}

func (s *Service) pass(g *game, seat domain.Seat) ([]Event, error) {
	h := g.table.Hand
	round := h.Phase
	if err := h.Pass(seat); err != nil {
		return nil, err
	}
	events := []Event{{
		Kind:    EventBidMade,
		Payload: BidMadePayload{Seat: seat, Round: bidRound(round), Pass: true},
	}}

	switch h.Phase {
	case domain.HandPhaseBidRound2:
		if round == domain.HandPhaseBidRound1 {
			turn, _ := h.Turn()
			events = append(events, Event{
				Kind:    EventUpCardTurnedDown,
				Payload: UpCardTurnedDownPayload{Suit: h.UpCard.Suit, Turn: turn},
			})
		}
	case domain.HandPhaseRedeal:
		dealer := h.Dealer
		if _, err := g.table.FinishHand(); err != nil {
			return nil, err
		}
		events = append(events, Event{
			Kind:    EventRedeal,
			Payload: RedealPayload{Dealer: dealer, NextDealer: g.table.Dealer},
		})
		dealt, err := s.deal(g)
		if err != nil {
			return nil, err
		}
		events = append(events, dealt...)
	}
	return events, nil
}

func (s *Service) orderUp(g *game, seat domain.Seat, alone bool) ([]Event, error) {
	h := g.table.Hand
	if err := h.OrderUp(seat, alone); err != nil {
		return nil, err
	}
	suit := h.UpCard.Suit
	events := []Event{
		{
			Kind:    EventBidMade,
			Payload: BidMadePayload{Seat: seat, Round: 1, Suit: &suit, Alone: alone},
		},
		trumpSetEvent(h),
	}
	if h.Phase == domain.HandPhaseDiscard {
		events = append(events,
			Event{
				Kind:    EventUpCardTaken,
				Payload: UpCardTakenPayload{Dealer: h.Dealer, Card: h.UpCard},
			},
			handDealtEvent(g.table, h.Dealer),
		)
	}
	return events, nil
}

func (s *Service) callSuit(g *game, seat domain.Seat, suit domain.Suit, alone bool) ([]Event, error) {
	h := g.table.Hand
	if err := h.CallSuit(seat, suit, alone); err != nil {
		return nil, err
	}
	return []Event{
		{
			Kind:    EventBidMade,
			Payload: BidMadePayload{Seat: seat, Round: 2, Suit: &suit, Alone: alone},
		},
		trumpSetEvent(h),
	}, nil
}

func (s *Service) discard(g *game, seat domain.Seat, card domain.Card) ([]Event, error) {
	h := g.table.Hand
	if err := h.Discard(seat, card); err != nil {
		return nil, err
	}
	return []Event{
		{
			Kind:    EventDealerDiscarded,
			Payload: DealerDiscardedPayload{Dealer: seat, Leader: h.Leader},
		},
		handDealtEvent(g.table, seat),
	}, nil
}

func (s *Service) play(g *game, seat domain.Seat, card domain.Card) ([]Event, error) {
	h := g.table.Hand
	done, err := h.PlayCard(seat, card)
	if err != nil {
		return nil, err
	}

	if done == nil && len(h.Play.Completed) == 0 {
		// first trick of a new hand under way; the previous hand's last trick is stale
		g.lastTrick = nil
	}

	played := CardPlayedPayload{Seat: seat, Card: card}
	if turn, ok := h.Turn(); ok {
		played.NextTurn = &turn
	}
	events := []Event{{Kind: EventCardPlayed, Payload: played}}
	if done == nil {
		return events, nil
	}

	g.lastTrick = done
	winner, _ := done.Winner()
	events = append(events, Event{
		Kind: EventTrickWon,
		Payload: TrickWonPayload{
			Winner:      winner.Seat,
			Card:        winner.Card,
			Plays:       append([]domain.Play(nil), done.Plays...),
			TricksTaken: h.TricksTaken,
		},
	})
	if h.Phase != domain.HandPhaseDone {
		return events, nil
	}

	result, err := g.table.FinishHand()
	if err != nil {
		return nil, err
	}
	events = append(events, Event{
		Kind: EventHandScored,
		Payload: HandScoredPayload{
			Maker:       result.Maker,
			Alone:       result.Alone,
			TricksTaken: result.TricksTaken,
			Scorer:      result.Scorer,
			Points:      result.Points,
			Score:       g.table.Points,
		},
	})
	if g.table.Won {
		g.phase = domain.PhaseEnded
		return append(events, Event{
			Kind:    EventGameEnded,
			Payload: GameEndedPayload{Winner: g.table.Winner, Score: g.table.Points},
		}), nil
	}

	dealt, err := s.deal(g)
	if err != nil {
		return nil, err
	}
	return append(events, dealt...), nil
}

// deal starts a hand with the table's current dealer and reports it.
func (s *Service) deal(g *game) ([]Event, error) {
	h, err := g.table.StartHand(s.shuffler)
	if err != nil {
		return nil, err
	}
	turn, _ := h.Turn()
	events := make([]Event, 0, domain.SeatCount+1)
	events = append(events, Event{
		Kind:    EventHandStarted,
		Payload: HandStartedPayload{Dealer: h.Dealer, UpCard: h.UpCard, Turn: turn},
	})
	for seat := domain.Seat(0); seat < domain.SeatCount; seat++ {
		events = append(events, handDealtEvent(g.table, seat))
	}
	return events, nil
}

func (s *Service) lookup(id uuid.UUID) (*game, error) {
	g, ok := s.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, id)
	}
	return g, nil
}

func newGame(id uuid.UUID) *game {
	return &game{id: id, table: domain.NewTable(), phase: domain.PhaseLobby}
}

func handDealtEvent(t *domain.Table, seat domain.Seat) Event {
	return Event{
		Kind:       EventHandDealt,
		Payload:    HandDealtPayload{Seat: seat, Hand: sortedHand(t, seat)},
		Recipients: []domain.Seat{seat},
	}
}

func trumpSetEvent(h *domain.Hand) Event {
	return Event{
		Kind: EventTrumpSet,
		Payload: TrumpSetPayload{
			Trump:      *h.Trump,
			Caller:     *h.Caller,
			Maker:      h.Maker,
			Alone:      h.Alone != nil,
			SittingOut: h.SittingOut,
		},
	}
}

func bidRound(phase domain.HandPhase) int {
	if phase == domain.HandPhaseBidRound2 {
		return 2
	}
	return 1
}
