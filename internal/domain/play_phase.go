package domain

import "fmt"

// PlayPhase runs the five tricks of a hand once trump is fixed.
type PlayPhase struct {
	Trump      Suit
	SittingOut *Seat
	Trick      *Trick
	Completed  []*Trick

	hand *Hand
}

func newPlayPhase(h *Hand, leader Seat) *PlayPhase {
	p := &PlayPhase{
		Trump:      *h.Trump,
		SittingOut: h.SittingOut,
		hand:       h,
	}
	p.Trick = NewTrick(h.table, p.Trump, leader, p.SittingOut)
	return p
}

// Turn returns the seat expected to play next.
func (p *PlayPhase) Turn() (Seat, bool) {
	if p.Trick == nil {
		return 0, false
	}
	return p.Trick.Turn()
}

// Play lays card for seat and resolves the trick on its last play. The completed
// trick is returned when this play finished one.
func (p *PlayPhase) Play(seat Seat, card Card) (*Trick, error) {
	if p.Trick == nil {
		return nil, fmt.Errorf("%w: all tricks played", ErrWrongPhase)
	}
	if err := p.Trick.Play(seat, card); err != nil {
		return nil, err
	}
	if !p.Trick.Complete() {
		return nil, nil
	}
	return p.trickWon(), nil
}

func (p *PlayPhase) trickWon() *Trick {
	done := p.Trick
	winner, _ := done.Winner()
	p.hand.TricksTaken[winner.Seat.Partnership()]++
	p.Completed = append(p.Completed, done)

	if len(p.Completed) == TricksPerHand {
		p.Trick = nil
		p.hand.Phase = HandPhaseDone
		return done
	}
	p.Trick = NewTrick(p.hand.table, p.Trump, winner.Seat, p.SittingOut)
	return done
}
