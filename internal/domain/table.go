package domain

import (
	"fmt"
	"iter"
)

// Seat identifies one of the four fixed positions, numbered clockwise.
type Seat int

// Valid reports whether s is within 0..3.
func (s Seat) Valid() bool {
	return s >= 0 && s < SeatCount
}

// Next is the seat to the left, i.e. the next seat clockwise.
func (s Seat) Next() Seat {
	return (s + 1) % SeatCount
}

// Partner is the seat across the table.
func (s Seat) Partner() Seat {
	return (s + 2) % SeatCount
}

// Partnership is decided by seat parity.
func (s Seat) Partnership() Partnership {
	return Partnership(s % 2)
}

// Partnership identifies a team: 0 holds seats 0 and 2, 1 holds seats 1 and 3.
type Partnership int

// Valid reports whether p names one of the two partnerships.
func (p Partnership) Valid() bool {
	return p == 0 || p == 1
}

// Other returns the opposing partnership.
func (p Partnership) Other() Partnership {
	return 1 - p
}

// Player is a participant bound to one seat for the lifetime of a table.
type Player struct {
	Name string
	Seat Seat
	Hand []Card
}

// HandResult summarizes how a finished hand affected the table.
type HandResult struct {
	Redeal      bool
	Maker       Partnership
	Alone       bool
	TricksTaken [2]int
	Scorer      Partnership
	Points      int
}

// Table owns the seated players, the cumulative score and the active hand.
type Table struct {
	Players     [SeatCount]*Player
	Points      [2]int
	Won         bool
	Winner      Partnership
	Dealer      Seat
	Hand        *Hand
	HandsPlayed int
}

// NewTable returns an empty table with seat 0 as the first dealer.
func NewTable() *Table {
	return &Table{}
}

// SeatPlayer binds p to seat.
func (t *Table) SeatPlayer(p *Player, seat Seat) error {
	if !seat.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	if t.Players[seat] != nil {
		return fmt.Errorf("%w: %d", ErrSeatTaken, seat)
	}
	p.Seat = seat
	t.Players[seat] = p
	return nil
}

// UnseatPlayer frees seat. Seats are fixed while a hand is in progress.
func (t *Table) UnseatPlayer(seat Seat) (*Player, error) {
	if !seat.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	if t.Hand != nil && !t.Hand.Phase.Finished() {
		return nil, fmt.Errorf("%w: hand in progress", ErrWrongPhase)
	}
	p := t.Players[seat]
	if p == nil {
		return nil, fmt.Errorf("%w: %d", ErrSeatEmpty, seat)
	}
	t.Players[seat] = nil
	return p, nil
}

// Player returns the occupant of seat, or nil.
func (t *Table) Player(seat Seat) *Player {
	if !seat.Valid() {
		return nil
	}
	return t.Players[seat]
}

// Full reports whether all four seats are occupied.
func (t *Table) Full() bool {
	for _, p := range t.Players {
		if p == nil {
			return false
		}
	}
	return true
}

// IteratePlayers yields seated players clockwise from start, forever, skipping the
// excluded seats. The sequence is restartable; it yields nothing when no seated
// player remains after exclusions.
func (t *Table) IteratePlayers(start Seat, excluded ...Seat) iter.Seq[*Player] {
	skip := make(map[Seat]bool, len(excluded))
	for _, s := range excluded {
		skip[s] = true
	}
	return func(yield func(*Player) bool) {
		eligible := 0
		for s := Seat(0); s < SeatCount; s++ {
			if t.Players[s] != nil && !skip[s] {
				eligible++
			}
		}
		if eligible == 0 {
			return
		}
		for seat := ((start % SeatCount) + SeatCount) % SeatCount; ; seat = seat.Next() {
			p := t.Players[seat]
			if p == nil || skip[seat] {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// UpdateScore adds points to a partnership and records the first partnership to
// reach WinningScore. The winner never changes afterwards. Scores only grow.
func (t *Table) UpdateScore(p Partnership, points int) error {
	if !p.Valid() {
		return fmt.Errorf("%w: partnership %d", ErrInvalidScore, p)
	}
	if points < 0 {
		return fmt.Errorf("%w: %d points", ErrInvalidScore, points)
	}
	t.Points[p] += points
	if !t.Won && t.Points[p] >= WinningScore {
		t.Won = true
		t.Winner = p
	}
	return nil
}

// StartHand deals a new hand with the current dealer.
func (t *Table) StartHand(shuffler Shuffler) (*Hand, error) {
	if t.Won {
		return nil, ErrGameOver
	}
	if t.Hand != nil && !t.Hand.Phase.Finished() {
		return nil, fmt.Errorf("%w: hand in progress", ErrWrongPhase)
	}
	if !t.Full() {
		return nil, fmt.Errorf("%w: table is not full", ErrSeatEmpty)
	}
	h, err := NewHand(t, t.Dealer, shuffler)
	if err != nil {
		return nil, err
	}
	t.Hand = h
	return h, nil
}

// FinishHand scores a completed hand, or discards a thrown-in one, and passes the
// deal clockwise.
func (t *Table) FinishHand() (HandResult, error) {
	h := t.Hand
	if h == nil || !h.Phase.Finished() {
		return HandResult{}, fmt.Errorf("%w: no finished hand", ErrWrongPhase)
	}

	result := HandResult{Redeal: h.Phase == HandPhaseRedeal, TricksTaken: h.TricksTaken}
	if !result.Redeal {
		result.Maker = h.Maker
		result.Alone = h.Alone != nil
		result.Scorer, result.Points = ScoreHand(h.TricksTaken, h.Maker, result.Alone)
		if err := t.UpdateScore(result.Scorer, result.Points); err != nil {
			return HandResult{}, err
		}
		t.HandsPlayed++
	}

	for _, p := range t.Players {
		if p != nil {
			p.Hand = nil
		}
	}
	t.Hand = nil
	t.Dealer = t.Dealer.Next()
	return result, nil
}
