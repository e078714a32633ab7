package brain

import (
	"euchre/internal/domain"
)

// CardStatus represents what the bot knows about a specific card.
type CardStatus int

const (
	StatusUnknown CardStatus = iota // We don't know who has it
	StatusMine                      // In the bot's hand
	StatusPlayed                    // Already on the table
	StatusBuried                    // Turned down or discarded, out of play
)

// GameMemory stores the bot's private "view" of the hand in progress.
type GameMemory struct {
	// DeckStatus tracks all 24 cards. Index = (Rank-Nine)*4 + Suit.
	DeckStatus [domain.DeckSize]CardStatus
	// Voids records the relative suits each seat has shown out of.
	Voids [domain.SeatCount][len(domain.Suits)]bool
	// Trump is nil until bidding ends.
	Trump *domain.Suit
	// Led is the relative suit of the trick in progress.
	Led *domain.Suit
}

// NewMemory initializes a fresh memory state.
func NewMemory() *GameMemory {
	return &GameMemory{}
}

// Reset clears the memory for a new hand.
func (m *GameMemory) Reset() {
	*m = GameMemory{}
}

// SetTrump records the trump suit once bidding is over.
func (m *GameMemory) SetTrump(trump domain.Suit) {
	m.Trump = &trump
}

// MarkMine records the cards currently in the bot's hand.
func (m *GameMemory) MarkMine(cards []domain.Card) {
	for _, c := range cards {
		m.DeckStatus[cardToIndex(c)] = StatusMine
	}
}

// MarkPlayed records cards that have been played on the table.
func (m *GameMemory) MarkPlayed(cards []domain.Card) {
	for _, c := range cards {
		m.DeckStatus[cardToIndex(c)] = StatusPlayed
	}
}

// MarkBuried records a card that can no longer be played this hand.
func (m *GameMemory) MarkBuried(c domain.Card) {
	m.DeckStatus[cardToIndex(c)] = StatusBuried
}

// UpdateHand synchronization. Marks current hand as Mine and others that were Mine as Unknown.
func (m *GameMemory) UpdateHand(hand []domain.Card) {
	for i, status := range m.DeckStatus {
		if status == StatusMine {
			m.DeckStatus[i] = StatusUnknown
		}
	}
	m.MarkMine(hand)
}

// RecordPlay logs that seat played c. The first play of a trick sets the led
// suit; any later card off the led suit reveals a void.
func (m *GameMemory) RecordPlay(seat domain.Seat, c domain.Card) {
	m.MarkPlayed([]domain.Card{c})
	if m.Trump == nil {
		return
	}
	suit := domain.RelativeSuit(c, *m.Trump)
	if m.Led == nil {
		m.Led = &suit
		return
	}
	if suit != *m.Led && seat.Valid() {
		m.Voids[seat][*m.Led] = true
	}
}

// EndTrick clears the led suit so the next play starts a new trick.
func (m *GameMemory) EndTrick() {
	m.Led = nil
}

// IsVoid reports whether seat has shown out of suit this hand.
func (m *GameMemory) IsVoid(seat domain.Seat, suit domain.Suit) bool {
	if !seat.Valid() || !suit.Valid() {
		return false
	}
	return m.Voids[seat][suit]
}

// IsBoss returns true if no higher card of c's relative suit may still be in
// another player's hand.
func (m *GameMemory) IsBoss(c domain.Card, trump domain.Suit) bool {
	suit := domain.RelativeSuit(c, trump)
	rank := domain.RelativeRank(c, trump, suit)
	for _, other := range domain.CanonicalCards() {
		if other == c || domain.RelativeSuit(other, trump) != suit {
			continue
		}
		if m.DeckStatus[cardToIndex(other)] != StatusUnknown {
			continue
		}
		if rank.Less(domain.RelativeRank(other, trump, suit)) {
			return false
		}
	}
	return true
}

// IsPlayed returns true if the card is already out of the hand.
func (m *GameMemory) IsPlayed(c domain.Card) bool {
	s := m.DeckStatus[cardToIndex(c)]
	return s == StatusPlayed || s == StatusBuried
}

// Outstanding counts cards of relative suit that may still be held by others.
func (m *GameMemory) Outstanding(suit, trump domain.Suit) int {
	n := 0
	for _, c := range domain.CanonicalCards() {
		if domain.RelativeSuit(c, trump) == suit && m.DeckStatus[cardToIndex(c)] == StatusUnknown {
			n++
		}
	}
	return n
}

// cardToIndex converts domain.Card to a 0-23 index.
// Rank: 9 to Ace. Suit: Clubs to Spades.
func cardToIndex(c domain.Card) int {
	return int(c.Rank-domain.Nine)*len(domain.Suits) + int(c.Suit)
}
