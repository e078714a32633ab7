package domain

import "fmt"

// Play is one card laid in a trick.
type Play struct {
	Card Card `json:"card"`
	Seat Seat `json:"seat"`
}

// Trick tracks the cards played in one of the five sub-rounds of a hand.
type Trick struct {
	Trump  Suit
	Leader Seat
	Plays  []Play

	order []*Player
	led   *Suit
}

// NewTrick starts a trick led by leader. Turn order runs clockwise over the seated
// players of table, skipping sittingOut when a caller plays alone.
func NewTrick(table *Table, trump Suit, leader Seat, sittingOut *Seat) *Trick {
	var excluded []Seat
	if sittingOut != nil {
		excluded = append(excluded, *sittingOut)
	}
	size := SeatCount - len(excluded)

	order := make([]*Player, 0, size)
	for p := range table.IteratePlayers(leader, excluded...) {
		order = append(order, p)
		if len(order) == size {
			break
		}
	}
	return &Trick{Trump: trump, Leader: leader, order: order}
}

// Size is the number of plays that complete the trick: 4, or 3 with a lone caller.
func (t *Trick) Size() int {
	return len(t.order)
}

// Complete reports whether every participating seat has played.
func (t *Trick) Complete() bool {
	return len(t.Plays) >= len(t.order)
}

// Turn returns the seat expected to play next.
func (t *Trick) Turn() (Seat, bool) {
	if t.Complete() {
		return 0, false
	}
	return t.order[len(t.Plays)].Seat, true
}

// LedSuit returns the relative suit of the first card played.
func (t *Trick) LedSuit() (Suit, bool) {
	if t.led == nil {
		return 0, false
	}
	return *t.led, true
}

// RelativeSuit is the suit c counts as in this trick.
func (t *Trick) RelativeSuit(c Card) Suit {
	return RelativeSuit(c, t.Trump)
}

// RelativeRank orders c against the other cards of this trick. Before a card is
// led, c is ranked as if it were the lead.
func (t *Trick) RelativeRank(c Card) Ranking {
	led := t.RelativeSuit(c)
	if t.led != nil {
		led = *t.led
	}
	return RelativeRank(c, t.Trump, led)
}

// Following reports whether c follows the led suit. Every card follows an empty trick.
func (t *Trick) Following(c Card) bool {
	return Follows(c, t.led, t.Trump)
}

// Play lays card for seat. The card leaves the player's hand only when the play is legal.
func (t *Trick) Play(seat Seat, card Card) error {
	turn, ok := t.Turn()
	if !ok || seat != turn {
		return fmt.Errorf("%w: seat %d", ErrNotPlayersTurn, seat)
	}
	player := t.order[len(t.Plays)]
	if !ContainsCard(player.Hand, card) {
		return fmt.Errorf("%w: %s is not in hand", ErrIllegalCard, card)
	}
	if !IsLegalPlay(player.Hand, card, t.led, t.Trump) {
		return fmt.Errorf("%w: must follow %s", ErrIllegalCard, *t.led)
	}

	player.Hand, _ = RemoveCard(player.Hand, card)
	if t.led == nil {
		led := t.RelativeSuit(card)
		t.led = &led
	}
	t.Plays = append(t.Plays, Play{Card: card, Seat: seat})
	return nil
}

// Winner returns the highest play of a complete trick.
func (t *Trick) Winner() (Play, bool) {
	if !t.Complete() {
		return Play{}, false
	}
	return t.CurrentWinner()
}

// CurrentWinner returns the play that would win if the trick ended now.
func (t *Trick) CurrentWinner() (Play, bool) {
	if len(t.Plays) == 0 {
		return Play{}, false
	}
	best := t.Plays[0]
	bestRank := t.RelativeRank(best.Card)
	for _, p := range t.Plays[1:] {
		if r := t.RelativeRank(p.Card); bestRank.Less(r) {
			best, bestRank = p, r
		}
	}
	return best, true
}
