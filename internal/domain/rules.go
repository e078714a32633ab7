package domain

// Rank-within-tier values for the bowers. They sit above every face rank.
const (
	leftBowerRank  = 20
	rightBowerRank = 21
)

// Trick-resolution tiers. Higher tiers always win.
const (
	TierOffSuit = 0
	TierLed     = 1
	TierTrump   = 2
)

// Ranking is the ordering key of a card within one trick.
type Ranking struct {
	Tier int
	Rank int
}

// Less reports whether r orders strictly below o.
func (r Ranking) Less(o Ranking) bool {
	if r.Tier != o.Tier {
		return r.Tier < o.Tier
	}
	return r.Rank < o.Rank
}

// SameColorSuit returns the other suit of the same color as s.
func SameColorSuit(s Suit) Suit {
	switch s {
	case Clubs:
		return Spades
	case Spades:
		return Clubs
	case Diamonds:
		return Hearts
	default:
		return Diamonds
	}
}

// IsRightBower reports whether c is the jack of trump.
func IsRightBower(c Card, trump Suit) bool {
	return c.Rank == Jack && c.Suit == trump
}

// IsLeftBower reports whether c is the jack of the suit sharing trump's color.
func IsLeftBower(c Card, trump Suit) bool {
	return c.Rank == Jack && c.Suit == SameColorSuit(trump)
}

// RelativeSuit is the suit c counts as under trump: the left bower is trump.
func RelativeSuit(c Card, trump Suit) Suit {
	if IsLeftBower(c, trump) {
		return trump
	}
	return c.Suit
}

// RelativeRank computes the ordering key of c for a trick led in led under trump.
func RelativeRank(c Card, trump, led Suit) Ranking {
	switch {
	case IsRightBower(c, trump):
		return Ranking{Tier: TierTrump, Rank: rightBowerRank}
	case IsLeftBower(c, trump):
		return Ranking{Tier: TierTrump, Rank: leftBowerRank}
	case c.Suit == trump:
		return Ranking{Tier: TierTrump, Rank: int(c.Rank)}
	case c.Suit == led:
		return Ranking{Tier: TierLed, Rank: int(c.Rank)}
	default:
		return Ranking{Tier: TierOffSuit, Rank: int(c.Rank)}
	}
}

// Follows reports whether c follows led under trump. Any card follows when led is nil.
func Follows(c Card, led *Suit, trump Suit) bool {
	return led == nil || RelativeSuit(c, trump) == *led
}

// CanFollow reports whether hand holds at least one card following led.
func CanFollow(hand []Card, led *Suit, trump Suit) bool {
	for _, c := range hand {
		if Follows(c, led, trump) {
			return true
		}
	}
	return false
}

// IsLegalPlay applies the follow-suit obligation to playing c from hand.
func IsLegalPlay(hand []Card, c Card, led *Suit, trump Suit) bool {
	if !ContainsCard(hand, c) {
		return false
	}
	return Follows(c, led, trump) || !CanFollow(hand, led, trump)
}

// LegalPlays returns the cards in hand that may be played next.
func LegalPlays(hand []Card, led *Suit, trump Suit) []Card {
	var legal []Card
	for _, c := range hand {
		if Follows(c, led, trump) {
			legal = append(legal, c)
		}
	}
	if len(legal) == 0 {
		return append([]Card(nil), hand...)
	}
	return legal
}

// CountTrump counts cards in hand that belong to trump, bowers included.
func CountTrump(hand []Card, trump Suit) int {
	n := 0
	for _, c := range hand {
		if RelativeSuit(c, trump) == trump {
			n++
		}
	}
	return n
}
