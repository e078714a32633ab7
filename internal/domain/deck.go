package domain

import (
	"math/rand"
	"time"
)

// Shuffler permutes cards in place. Tests substitute a deterministic ordering.
type Shuffler interface {
	Shuffle(cards []Card)
}

// RandShuffler shuffles with a math/rand source.
type RandShuffler struct {
	rng *rand.Rand
}

// NewRandShuffler wraps rng, or a time-seeded source when rng is nil.
func NewRandShuffler(rng *rand.Rand) *RandShuffler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandShuffler{rng: rng}
}

// Shuffle performs a Fisher-Yates permutation.
func (s *RandShuffler) Shuffle(cards []Card) {
	s.rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
}

// ShufflerFunc adapts a plain function to Shuffler.
type ShufflerFunc func(cards []Card)

// Shuffle calls f(cards).
func (f ShufflerFunc) Shuffle(cards []Card) { f(cards) }

// Deck is the 24-card euchre deck with draw tracking.
type Deck struct {
	cards     []Card
	remaining []Card
	shuffler  Shuffler
}

// NewDeck returns a full deck in canonical order (clubs, diamonds, hearts, spades; 9..A).
// A nil shuffler falls back to a time-seeded RandShuffler.
func NewDeck(shuffler Shuffler) *Deck {
	if shuffler == nil {
		shuffler = NewRandShuffler(nil)
	}
	cards := CanonicalCards()
	remaining := make([]Card, len(cards))
	copy(remaining, cards)
	return &Deck{cards: cards, remaining: remaining, shuffler: shuffler}
}

// CanonicalCards returns a fresh slice holding the 24-card universe.
func CanonicalCards() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	return cards
}

// Cards returns a copy of the full universe this deck was built from.
func (d *Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}

// Remaining returns a copy of the undrawn cards, front first.
func (d *Deck) Remaining() []Card {
	return append([]Card(nil), d.remaining...)
}

// Len is the number of undrawn cards.
func (d *Deck) Len() int {
	return len(d.remaining)
}

// Shuffle permutes the undrawn cards.
func (d *Deck) Shuffle() {
	d.shuffler.Shuffle(d.remaining)
}

// Draw removes and returns the front card.
func (d *Deck) Draw() (Card, error) {
	if len(d.remaining) == 0 {
		return Card{}, ErrEmptyDeck
	}
	c := d.remaining[0]
	d.remaining = d.remaining[1:]
	return c, nil
}
