package domain

import (
	"reflect"
	"testing"
)

func mustCards(t *testing.T, codes ...string) []Card {
	t.Helper()
	out := make([]Card, 0, len(codes))
	for _, code := range codes {
		c, err := ParseCard(code)
		if err != nil {
			t.Fatalf("ParseCard(%q) error: %v", code, err)
		}
		out = append(out, c)
	}
	return out
}

func mustCard(t *testing.T, code string) Card {
	t.Helper()
	return mustCards(t, code)[0]
}

// stackDeck deals hands exactly as given and turns up up.
func stackDeck(dealer Seat, hands map[Seat][]Card, up Card) Shuffler {
	return ShufflerFunc(func(cards []Card) {
		order := make([]Card, 0, DeckSize)
		for i := 1; i <= SeatCount; i++ {
			order = append(order, hands[(dealer+Seat(i))%SeatCount]...)
		}
		order = append(order, up)
		for _, c := range CanonicalCards() {
			if !ContainsCard(order, c) {
				order = append(order, c)
			}
		}
		copy(cards, order)
	})
}

func seatedTable(t *testing.T) *Table {
	t.Helper()
	table := NewTable()
	for i, name := range []string{"north", "east", "south", "west"} {
		if err := table.SeatPlayer(&Player{Name: name}, Seat(i)); err != nil {
			t.Fatalf("SeatPlayer(%d) error: %v", i, err)
		}
	}
	return table
}

func TestContainsAndRemoveCard(t *testing.T) {
	hand := mustCards(t, "9C", "JS", "AH")

	if !ContainsCard(hand, mustCard(t, "JS")) {
		t.Fatalf("ContainsCard(JS) = false, want true")
	}
	if ContainsCard(hand, mustCard(t, "JC")) {
		t.Fatalf("ContainsCard(JC) = true, want false")
	}

	rest, ok := RemoveCard(hand, mustCard(t, "JS"))
	if !ok {
		t.Fatalf("RemoveCard(JS) ok = false")
	}
	if want := mustCards(t, "9C", "AH"); !reflect.DeepEqual(rest, want) {
		t.Fatalf("RemoveCard(JS) = %v, want %v", rest, want)
	}
	if len(hand) != 3 {
		t.Fatalf("RemoveCard mutated input: %v", hand)
	}

	if _, ok := RemoveCard(hand, mustCard(t, "KD")); ok {
		t.Fatalf("RemoveCard(KD) ok = true, want false")
	}
}

func TestSortHand(t *testing.T) {
	tests := []struct {
		name  string
		hand  []string
		trump *Suit
		want  []string
	}{
		{
			name: "no trump groups by suit",
			hand: []string{"AH", "9C", "KC", "10D"},
			want: []string{"KC", "9C", "10D", "AH"},
		},
		{
			name:  "trump last with bowers on top",
			hand:  []string{"9S", "JC", "AH", "JS", "AS"},
			trump: func() *Suit { s := Spades; return &s }(),
			want:  []string{"AH", "JS", "JC", "AS", "9S"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := mustCards(t, tt.hand...)
			SortHand(hand, tt.trump)
			if want := mustCards(t, tt.want...); !reflect.DeepEqual(hand, want) {
				t.Fatalf("SortHand() = %v, want %v", hand, want)
			}
		})
	}
}
