package domain

import "sort"

// ContainsCard reports whether hand holds card.
func ContainsCard(hand []Card, card Card) bool {
	for _, c := range hand {
		if c == card {
			return true
		}
	}
	return false
}

// RemoveCard returns a copy of hand without the first occurrence of card.
// The second result is false when card was not in hand.
func RemoveCard(hand []Card, card Card) ([]Card, bool) {
	for i, c := range hand {
		if c == card {
			out := make([]Card, 0, len(hand)-1)
			out = append(out, hand[:i]...)
			return append(out, hand[i+1:]...), true
		}
	}
	return hand, false
}

// SortHand orders cards for display: grouped by relative suit with trump last,
// highest card first within each group. trump may be nil before bidding completes.
func SortHand(cards []Card, trump *Suit) {
	sort.SliceStable(cards, func(i, j int) bool {
		ki, kj := sortKey(cards[i], trump), sortKey(cards[j], trump)
		if ki.Tier != kj.Tier {
			return ki.Tier < kj.Tier
		}
		return ki.Rank > kj.Rank
	})
}

func sortKey(c Card, trump *Suit) Ranking {
	if trump == nil {
		return Ranking{Tier: int(c.Suit), Rank: int(c.Rank)}
	}
	suit := RelativeSuit(c, *trump)
	if suit == *trump {
		return Ranking{Tier: len(Suits), Rank: RelativeRank(c, *trump, suit).Rank}
	}
	return Ranking{Tier: int(suit), Rank: int(c.Rank)}
}
