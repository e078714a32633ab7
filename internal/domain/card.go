package domain

import (
	"fmt"
	"strings"
)

// Suit is one of the four French suits.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits lists every suit in canonical deck order.
var Suits = [...]Suit{Clubs, Diamonds, Hearts, Spades}

// Color is the color of a suit. Jacks of the same color as trump are bowers.
type Color int

const (
	Black Color = iota
	Red
)

// Color returns red for diamonds and hearts, black for clubs and spades.
func (s Suit) Color() Color {
	if s == Diamonds || s == Hearts {
		return Red
	}
	return Black
}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	return s >= Clubs && s <= Spades
}

func (s Suit) String() string {
	switch s {
	case Clubs:
		return "C"
	case Diamonds:
		return "D"
	case Hearts:
		return "H"
	case Spades:
		return "S"
	default:
		return "?"
	}
}

// ParseSuit accepts the single-letter form ("C", "d") or the full name ("spades").
func ParseSuit(s string) (Suit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "clubs":
		return Clubs, nil
	case "d", "diamonds":
		return Diamonds, nil
	case "h", "hearts":
		return Hearts, nil
	case "s", "spades":
		return Spades, nil
	}
	return 0, fmt.Errorf("unknown suit %q", s)
}

// Rank is the face value of a card. Numeric values double as in-suit ordering.
type Rank int

const (
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// Ranks lists every rank used in a euchre deck, lowest first.
var Ranks = [...]Rank{Nine, Ten, Jack, Queen, King, Ace}

// Valid reports whether r is a euchre rank.
func (r Rank) Valid() bool {
	return r >= Nine && r <= Ace
}

func (r Rank) String() string {
	switch r {
	case Nine:
		return "9"
	case Ten:
		return "10"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return "?"
	}
}

// ParseRank accepts "9", "10", "J", "Q", "K", "A" in any case.
func ParseRank(s string) (Rank, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "9":
		return Nine, nil
	case "10", "T":
		return Ten, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	case "A":
		return Ace, nil
	}
	return 0, fmt.Errorf("unknown rank %q", s)
}

// Card is an immutable (rank, suit) pair. It is comparable and can key maps.
type Card struct {
	Rank Rank
	Suit Suit
}

// ParseCard reads the short form produced by Card.String, e.g. "JC" or "10h".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	rank, err := ParseRank(s[:len(s)-1])
	if err != nil {
		return Card{}, err
	}
	suit, err := ParseSuit(s[len(s)-1:])
	if err != nil {
		return Card{}, err
	}
	return Card{Rank: rank, Suit: suit}, nil
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Valid reports whether the card belongs to the 24-card universe.
func (c Card) Valid() bool {
	return c.Rank.Valid() && c.Suit.Valid()
}

// MarshalText encodes the card in its short form so it travels as "JC" in JSON.
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes the short form.
func (c *Card) UnmarshalText(b []byte) error {
	parsed, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText encodes the suit as its single letter.
func (s Suit) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a suit letter or name.
func (s *Suit) UnmarshalText(b []byte) error {
	parsed, err := ParseSuit(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
