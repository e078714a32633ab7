package app

import "euchre/internal/domain"

// MinPlayersToStartGame is the number of occupied seats required to start a game.
// Euchre has no short-handed variant.
const MinPlayersToStartGame = domain.SeatCount

// MoveKind names a move a seat can submit.
type MoveKind string

const (
	MoveOrderUp      MoveKind = "order_up"
	MoveCallSuit     MoveKind = "call_suit"
	MovePass         MoveKind = "pass"
	MoveDiscard      MoveKind = "discard"
	MovePlay         MoveKind = "play"
	MoveDeclareAlone MoveKind = "declare_alone"
)

// Move is the payload of ApplyMove. Suit is read by call_suit and declare_alone in
// round two, Card by discard and play, Alone by order_up and call_suit.
type Move struct {
	Kind  MoveKind     `json:"kind"`
	Suit  *domain.Suit `json:"suit,omitempty"`
	Card  *domain.Card `json:"card,omitempty"`
	Alone bool         `json:"alone,omitempty"`
}

// Pass returns a pass move.
func Pass() Move { return Move{Kind: MovePass} }

// OrderUp returns a round-one order-up.
func OrderUp(alone bool) Move { return Move{Kind: MoveOrderUp, Alone: alone} }

// CallSuit returns a round-two call of suit.
func CallSuit(suit domain.Suit, alone bool) Move {
	return Move{Kind: MoveCallSuit, Suit: &suit, Alone: alone}
}

// Discard returns the dealer's discard after a pickup.
func Discard(card domain.Card) Move { return Move{Kind: MoveDiscard, Card: &card} }

// Play returns a card play.
func Play(card domain.Card) Move { return Move{Kind: MovePlay, Card: &card} }
