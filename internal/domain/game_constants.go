package domain

const (
	// SeatCount is the number of seats at a euchre table.
	SeatCount = 4
	// HandSize is the number of cards dealt to each seat.
	HandSize = 5
	// TricksPerHand is the number of tricks played in one deal.
	TricksPerHand = 5
	// DeckSize is the size of the 9-through-Ace deck.
	DeckSize = 24
	// WinningScore ends the game once a partnership reaches it.
	WinningScore = 10
	// MakerTarget is the number of tricks the makers need to avoid a euchre.
	MakerTarget = 3
)
