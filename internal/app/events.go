package app

import "euchre/internal/domain"

// EventKind identifies emitted table events for adapter dispatch.
type EventKind string

const (
	EventPlayerSeated     EventKind = "player_seated"
	EventPlayerLeft       EventKind = "player_left"
	EventGameStarted      EventKind = "game_started"
	EventHandStarted      EventKind = "hand_started"
	EventHandDealt        EventKind = "hand_dealt"
	EventBidMade          EventKind = "bid_made"
	EventUpCardTurnedDown EventKind = "up_card_turned_down"
	EventTrumpSet         EventKind = "trump_set"
	EventUpCardTaken      EventKind = "up_card_taken"
	EventDealerDiscarded  EventKind = "dealer_discarded"
	EventCardPlayed       EventKind = "card_played"
	EventTrickWon         EventKind = "trick_won"
	EventHandScored       EventKind = "hand_scored"
	EventRedeal           EventKind = "redeal"
	EventGameEnded        EventKind = "game_ended"
)

// Event is a table event with optional targeted recipients.
type Event struct {
	Kind       EventKind     `json:"kind"`
	Payload    any           `json:"payload,omitempty"`
	Recipients []domain.Seat `json:"-"` // empty means broadcast
}

// Private reports whether the event may only reach its recipients.
func (e Event) Private() bool {
	return len(e.Recipients) > 0
}

// VisibleTo reports whether the occupant of seat may see e.
func (e Event) VisibleTo(seat domain.Seat) bool {
	if !e.Private() {
		return true
	}
	for _, r := range e.Recipients {
		if r == seat {
			return true
		}
	}
	return false
}

type PlayerSeatedPayload struct {
	Seat domain.Seat `json:"seat"`
	Name string      `json:"name"`
}

type PlayerLeftPayload struct {
	Seat domain.Seat `json:"seat"`
	Name string      `json:"name"`
}

type GameStartedPayload struct {
	Dealer domain.Seat `json:"dealer"`
}

type HandStartedPayload struct {
	Dealer domain.Seat `json:"dealer"`
	UpCard domain.Card `json:"up_card"`
	Turn   domain.Seat `json:"turn"`
}

type HandDealtPayload struct {
	Seat domain.Seat   `json:"seat"`
	Hand []domain.Card `json:"hand"`
}

type BidMadePayload struct {
	Seat  domain.Seat  `json:"seat"`
	Round int          `json:"round"`
	Pass  bool         `json:"pass"`
	Suit  *domain.Suit `json:"suit,omitempty"`
	Alone bool         `json:"alone"`
}

type UpCardTurnedDownPayload struct {
	Suit domain.Suit `json:"suit"`
	Turn domain.Seat `json:"turn"`
}

type TrumpSetPayload struct {
	Trump      domain.Suit        `json:"trump"`
	Caller     domain.Seat        `json:"caller"`
	Maker      domain.Partnership `json:"maker"`
	Alone      bool               `json:"alone"`
	SittingOut *domain.Seat       `json:"sitting_out,omitempty"`
}

type UpCardTakenPayload struct {
	Dealer domain.Seat `json:"dealer"`
	Card   domain.Card `json:"card"`
}

type DealerDiscardedPayload struct {
	Dealer domain.Seat `json:"dealer"`
	Leader domain.Seat `json:"leader"`
}

type CardPlayedPayload struct {
	Seat     domain.Seat  `json:"seat"`
	Card     domain.Card  `json:"card"`
	NextTurn *domain.Seat `json:"next_turn,omitempty"`
}

type TrickWonPayload struct {
	Winner      domain.Seat   `json:"winner"`
	Card        domain.Card   `json:"card"`
	Plays       []domain.Play `json:"plays"`
	TricksTaken [2]int        `json:"tricks_taken"`
}

type HandScoredPayload struct {
	Maker       domain.Partnership `json:"maker"`
	Alone       bool               `json:"alone"`
	TricksTaken [2]int             `json:"tricks_taken"`
	Scorer      domain.Partnership `json:"scorer"`
	Points      int                `json:"points"`
	Score       [2]int             `json:"score"`
}

type RedealPayload struct {
	Dealer     domain.Seat `json:"dealer"`
	NextDealer domain.Seat `json:"next_dealer"`
}

type GameEndedPayload struct {
	Winner domain.Partnership `json:"winner"`
	Score  [2]int             `json:"score"`
}
