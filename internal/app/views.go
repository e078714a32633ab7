package app

import (
	"github.com/google/uuid"

	"euchre/internal/domain"
)

// SeatView is what everybody may know about a seat.
type SeatView struct {
	Seat       domain.Seat `json:"seat"`
	Name       string      `json:"name,omitempty"`
	Occupied   bool        `json:"occupied"`
	CardCount  int         `json:"card_count"`
	SittingOut bool        `json:"sitting_out,omitempty"`
}

// PublicState is the table as seen by any observer. It never carries hand contents.
type PublicState struct {
	TableID     string                     `json:"table_id"`
	Phase       domain.Phase               `json:"phase"`
	HandPhase   domain.HandPhase           `json:"hand_phase,omitempty"`
	Points      [2]int                     `json:"points"`
	Won         bool                       `json:"won"`
	Winner      *domain.Partnership        `json:"winner,omitempty"`
	Dealer      domain.Seat                `json:"dealer"`
	Turn        *domain.Seat               `json:"turn,omitempty"`
	TurnSeconds int                        `json:"turn_seconds,omitempty"` // left on the turn clock; filled in by adapters that run one
	UpCard      *domain.Card               `json:"up_card,omitempty"`
	TurnedDown  *domain.Suit               `json:"turned_down,omitempty"`
	Trump       *domain.Suit               `json:"trump,omitempty"`
	Maker       *domain.Partnership        `json:"maker,omitempty"`
	Caller      *domain.Seat               `json:"caller,omitempty"`
	Alone       *domain.Seat               `json:"alone,omitempty"`
	SittingOut  *domain.Seat               `json:"sitting_out,omitempty"`
	Leader      *domain.Seat               `json:"leader,omitempty"`
	LedSuit     *domain.Suit               `json:"led_suit,omitempty"`
	Trick       []domain.Play              `json:"trick"`
	LastTrick   []domain.Play              `json:"last_trick,omitempty"`
	TrickNumber int                        `json:"trick_number"`
	TricksTaken [2]int                     `json:"tricks_taken"`
	Bids        []domain.Bid               `json:"bids,omitempty"`
	HandsPlayed int                        `json:"hands_played"`
	Seats       [domain.SeatCount]SeatView `json:"seats"`
}

// PublicState projects a table into its publicly visible state.
func (s *Service) PublicState(id uuid.UUID) (PublicState, error) {
	g, err := s.lookup(id)
	if err != nil {
		return PublicState{}, err
	}
	t := g.table
	st := PublicState{
		TableID:     id.String(),
		Phase:       g.phase,
		Points:      t.Points,
		Won:         t.Won,
		Dealer:      t.Dealer,
		Trick:       []domain.Play{},
		HandsPlayed: t.HandsPlayed,
	}
	if t.Won {
		winner := t.Winner
		st.Winner = &winner
	}
	for seat := domain.Seat(0); seat < domain.SeatCount; seat++ {
		v := SeatView{Seat: seat}
		if p := t.Players[seat]; p != nil {
			v.Name = p.Name
			v.Occupied = true
			v.CardCount = len(p.Hand)
		}
		st.Seats[seat] = v
	}

	h := t.Hand
	if h == nil {
		return st, nil
	}
	st.HandPhase = h.Phase
	st.TricksTaken = h.TricksTaken
	st.Bids = append([]domain.Bid(nil), h.Bids...)
	if turn, ok := h.Turn(); ok {
		st.Turn = &turn
	}
	switch h.Phase {
	case domain.HandPhaseBidRound1, domain.HandPhaseDiscard:
		up := h.UpCard
		st.UpCard = &up
	}
	st.TurnedDown = h.TurnedDown
	if h.Trump != nil {
		trump, maker := *h.Trump, h.Maker
		st.Trump = &trump
		st.Maker = &maker
		st.Caller = h.Caller
		st.Alone = h.Alone
		st.SittingOut = h.SittingOut
	}
	if h.SittingOut != nil {
		st.Seats[*h.SittingOut].SittingOut = true
	}
	if h.Play != nil {
		st.TrickNumber = len(h.Play.Completed) + 1
		if trick := h.Play.Trick; trick != nil {
			leader := trick.Leader
			st.Leader = &leader
			st.Trick = append(st.Trick, trick.Plays...)
			if led, ok := trick.LedSuit(); ok {
				st.LedSuit = &led
			}
		}
	}
	if g.lastTrick != nil {
		st.LastTrick = append([]domain.Play(nil), g.lastTrick.Plays...)
	}
	return st, nil
}

// PrivateHand returns the concealed cards of seat, sorted for display.
func (s *Service) PrivateHand(id uuid.UUID, seat domain.Seat) ([]domain.Card, error) {
	g, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if g.table.Player(seat) == nil {
		return nil, domain.ErrSeatEmpty
	}
	return sortedHand(g.table, seat), nil
}

// LegalMoves lists the moves seat may submit right now.
func (s *Service) LegalMoves(id uuid.UUID, seat domain.Seat) ([]Move, error) {
	g, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	h := g.table.Hand
	if g.phase != domain.PhasePlaying || h == nil {
		return nil, nil
	}
	if turn, ok := h.Turn(); !ok || turn != seat {
		return nil, nil
	}

	switch h.Phase {
	case domain.HandPhaseBidRound1:
		return []Move{Pass(), OrderUp(false), OrderUp(true)}, nil
	case domain.HandPhaseBidRound2:
		moves := []Move{Pass()}
		for _, suit := range domain.Suits {
			if suit == h.UpCard.Suit {
				continue
			}
			moves = append(moves, CallSuit(suit, false), CallSuit(suit, true))
		}
		return moves, nil
	case domain.HandPhaseDiscard:
		hand := g.table.Players[seat].Hand
		moves := make([]Move, 0, len(hand))
		for _, c := range hand {
			moves = append(moves, Discard(c))
		}
		return moves, nil
	case domain.HandPhasePlaying:
		legal := h.LegalCards(seat)
		moves := make([]Move, 0, len(legal))
		for _, c := range legal {
			moves = append(moves, Play(c))
		}
		return moves, nil
	}
	return nil, nil
}

func sortedHand(t *domain.Table, seat domain.Seat) []domain.Card {
	p := t.Player(seat)
	if p == nil {
		return nil
	}
	hand := append([]domain.Card(nil), p.Hand...)
	var trump *domain.Suit
	if t.Hand != nil {
		trump = t.Hand.Trump
	}
	domain.SortHand(hand, trump)
	return hand
}
