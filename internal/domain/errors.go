package domain

import "errors"

// Errors returned by the rules engine. Every rejected operation leaves state unchanged.
var (
	ErrInvalidSeat    = errors.New("invalid seat")
	ErrSeatTaken      = errors.New("seat is taken")
	ErrSeatEmpty      = errors.New("seat is empty")
	ErrNotPlayersTurn = errors.New("not player's turn")
	ErrIllegalCard    = errors.New("illegal card")
	ErrInvalidBid     = errors.New("invalid bid")
	ErrWrongPhase     = errors.New("move not allowed in current phase")
	ErrGameOver       = errors.New("game is over")
	ErrInvalidScore   = errors.New("invalid score update")

	// ErrEmptyDeck signals a broken invariant: a hand never needs more than 21 cards.
	ErrEmptyDeck = errors.New("deck is empty")
)
