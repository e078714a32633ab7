package domain

import (
	"fmt"
	"slices"
)

// BidRound identifies the two bidding rounds of a hand.
type BidRound int

const (
	// BidRoundOrderUp is round one, where seats may order up the up-card.
	BidRoundOrderUp BidRound = 1
	// BidRoundCall is round two, where seats may name any other suit.
	BidRoundCall BidRound = 2
)

// Bid records one bidding decision.
type Bid struct {
	Seat  Seat     `json:"seat"`
	Round BidRound `json:"round"`
	Pass  bool     `json:"pass"`
	Suit  *Suit    `json:"suit,omitempty"`
	Alone bool     `json:"alone,omitempty"`
}

// Hand is one deal: bidding for trump, then five tricks.
type Hand struct {
	Dealer     Seat
	UpCard     Card
	Phase      HandPhase
	Trump      *Suit
	TurnedDown *Suit
	Maker      Partnership
	Caller     *Seat
	Alone      *Seat
	SittingOut *Seat
	Leader     Seat

	TricksTaken [2]int
	Bids        []Bid
	Play        *PlayPhase

	table *Table
	deck  *Deck
	turn  Seat
}

// NewHand shuffles a fresh deck, deals five cards to every seat clockwise from the
// left of dealer and turns the next card up.
func NewHand(table *Table, dealer Seat, shuffler Shuffler) (*Hand, error) {
	if !dealer.Valid() {
		return nil, fmt.Errorf("%w: dealer %d", ErrInvalidSeat, dealer)
	}
	deck := NewDeck(shuffler)
	deck.Shuffle()

	h := &Hand{
		Dealer: dealer,
		Phase:  HandPhaseBidRound1,
		table:  table,
		deck:   deck,
		turn:   dealer.Next(),
	}

	dealt := make([][]Card, SeatCount)
	for i := 0; i < SeatCount; i++ {
		seat := (dealer + 1 + Seat(i)) % SeatCount
		for j := 0; j < HandSize; j++ {
			c, err := deck.Draw()
			if err != nil {
				return nil, err
			}
			dealt[seat] = append(dealt[seat], c)
		}
	}
	up, err := deck.Draw()
	if err != nil {
		return nil, err
	}
	h.UpCard = up

	for seat, cards := range dealt {
		if p := table.Players[seat]; p != nil {
			p.Hand = cards
		}
	}
	return h, nil
}

// Turn returns the seat expected to act next.
func (h *Hand) Turn() (Seat, bool) {
	switch h.Phase {
	case HandPhaseBidRound1, HandPhaseBidRound2:
		return h.turn, true
	case HandPhaseDiscard:
		return h.Dealer, true
	case HandPhasePlaying:
		return h.Play.Turn()
	default:
		return 0, false
	}
}

// Deck returns the undealt cards; three remain once dealing is done.
func (h *Hand) Deck() *Deck {
	return h.deck
}

// OrderUp makes the up-card suit trump. The dealer then picks the up-card up and
// owes a discard, unless the dealer is the partner of a lone caller.
func (h *Hand) OrderUp(seat Seat, alone bool) error {
	if err := h.checkBid(seat, HandPhaseBidRound1); err != nil {
		return err
	}
	suit := h.UpCard.Suit
	h.Bids = append(h.Bids, Bid{Seat: seat, Round: BidRoundOrderUp, Suit: &suit, Alone: alone})
	h.setTrump(seat, h.UpCard.Suit, alone)

	if h.SittingOut != nil && *h.SittingOut == h.Dealer {
		h.startPlay(h.Dealer.Next())
		return nil
	}
	dealer := h.table.Players[h.Dealer]
	dealer.Hand = append(dealer.Hand, h.UpCard)
	h.Phase = HandPhaseDiscard
	return nil
}

// Discard completes the dealer's pickup.
func (h *Hand) Discard(seat Seat, card Card) error {
	if h.Phase != HandPhaseDiscard {
		return fmt.Errorf("%w: no discard owed", ErrInvalidBid)
	}
	if seat != h.Dealer {
		return fmt.Errorf("%w: seat %d", ErrNotPlayersTurn, seat)
	}
	dealer := h.table.Players[h.Dealer]
	rest, ok := RemoveCard(dealer.Hand, card)
	if !ok {
		return fmt.Errorf("%w: %s is not in hand", ErrIllegalCard, card)
	}
	dealer.Hand = rest
	h.startPlay(h.Dealer.Next())
	return nil
}

// Pass declines the current bidding opportunity. Four passes end round one;
// four more throw the hand in.
func (h *Hand) Pass(seat Seat) error {
	round := BidRoundOrderUp
	if h.Phase == HandPhaseBidRound2 {
		round = BidRoundCall
	}
	if err := h.checkBid(seat, HandPhaseBidRound1, HandPhaseBidRound2); err != nil {
		return err
	}
	h.Bids = append(h.Bids, Bid{Seat: seat, Round: round, Pass: true})
	h.turn = h.turn.Next()
	if h.turn != h.Dealer.Next() {
		return nil
	}

	if round == BidRoundOrderUp {
		down := h.UpCard.Suit
		h.TurnedDown = &down
		h.Phase = HandPhaseBidRound2
		return nil
	}
	h.Phase = HandPhaseRedeal
	return nil
}

// CallSuit names trump in round two. The turned-down suit cannot be named.
func (h *Hand) CallSuit(seat Seat, suit Suit, alone bool) error {
	if err := h.checkBid(seat, HandPhaseBidRound2); err != nil {
		return err
	}
	if !suit.Valid() {
		return fmt.Errorf("%w: unknown suit", ErrInvalidBid)
	}
	if suit == h.UpCard.Suit {
		return fmt.Errorf("%w: %s was turned down", ErrInvalidBid, suit)
	}
	h.Bids = append(h.Bids, Bid{Seat: seat, Round: BidRoundCall, Suit: &suit, Alone: alone})
	h.setTrump(seat, suit, alone)
	h.startPlay(seat.Next())
	return nil
}

// PlayCard lays card for seat in the current trick. The completed trick is
// returned when this play finished one.
func (h *Hand) PlayCard(seat Seat, card Card) (*Trick, error) {
	if h.Phase != HandPhasePlaying {
		return nil, fmt.Errorf("%w: hand is %s", ErrWrongPhase, h.Phase)
	}
	return h.Play.Play(seat, card)
}

// LegalCards lists what seat may play right now. It is empty off turn.
func (h *Hand) LegalCards(seat Seat) []Card {
	turn, ok := h.Turn()
	if !ok || turn != seat || h.Phase != HandPhasePlaying {
		return nil
	}
	p := h.table.Players[seat]
	return LegalPlays(p.Hand, h.Play.Trick.led, h.Play.Trump)
}

func (h *Hand) checkBid(seat Seat, phases ...HandPhase) error {
	if !h.Phase.Bidding() {
		return fmt.Errorf("%w: bidding is over", ErrInvalidBid)
	}
	if !slices.Contains(phases, h.Phase) {
		return fmt.Errorf("%w: hand is %s", ErrInvalidBid, h.Phase)
	}
	if seat != h.turn {
		return fmt.Errorf("%w: seat %d", ErrNotPlayersTurn, seat)
	}
	return nil
}

func (h *Hand) setTrump(seat Seat, suit Suit, alone bool) {
	h.Trump = &suit
	h.Maker = seat.Partnership()
	h.Caller = &seat
	if alone {
		partner := seat.Partner()
		h.Alone = &seat
		h.SittingOut = &partner
	}
}

// startPlay begins the first trick with the first active seat clockwise from start.
func (h *Hand) startPlay(start Seat) {
	h.Leader = start
	if h.SittingOut != nil && *h.SittingOut == start {
		h.Leader = start.Next()
	}
	h.Phase = HandPhasePlaying
	h.Play = newPlayPhase(h, h.Leader)
}
