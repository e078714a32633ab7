package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

type seatPlay struct {
	seat Seat
	card string
}

func playTricks(t *testing.T, h *Hand, tricks [][]seatPlay) {
	t.Helper()
	for i, trick := range tricks {
		for _, p := range trick {
			if _, err := h.PlayCard(p.seat, mustCard(t, p.card)); err != nil {
				t.Fatalf("trick %d: PlayCard(%d, %s) error: %v", i+1, p.seat, p.card, err)
			}
		}
	}
}

func TestDealerOrdersUpAndIsEuchred(t *testing.T) {
	table := seatedTable(t)
	table.Dealer = 3
	hands := map[Seat][]Card{
		0: mustCards(t, "AH", "KH", "AD", "9S", "10S"),
		1: mustCards(t, "QH", "JH", "KD", "QS", "KS"),
		2: mustCards(t, "9H", "10H", "QD", "9C", "10C"),
		3: mustCards(t, "AC", "9D", "10D", "AS", "JD"),
	}
	h, err := table.StartHand(stackDeck(3, hands, mustCard(t, "JC")))
	if err != nil {
		t.Fatalf("StartHand() error: %v", err)
	}
	if h.UpCard != mustCard(t, "JC") {
		t.Fatalf("UpCard = %v, want JC", h.UpCard)
	}
	for seat := Seat(0); seat < SeatCount; seat++ {
		if got := len(table.Players[seat].Hand); got != HandSize {
			t.Fatalf("seat %d holds %d cards, want %d", seat, got, HandSize)
		}
	}

	for _, seat := range []Seat{0, 1, 2} {
		if err := h.Pass(seat); err != nil {
			t.Fatalf("Pass(%d) error: %v", seat, err)
		}
	}
	if err := h.OrderUp(3, false); err != nil {
		t.Fatalf("OrderUp(3) error: %v", err)
	}
	if h.Phase != HandPhaseDiscard || *h.Trump != Clubs || h.Maker != 1 {
		t.Fatalf("after order up: phase=%s trump=%v maker=%d", h.Phase, h.Trump, h.Maker)
	}
	if !ContainsCard(table.Players[3].Hand, mustCard(t, "JC")) || len(table.Players[3].Hand) != HandSize+1 {
		t.Fatalf("dealer did not pick up: %v", table.Players[3].Hand)
	}
	if err := h.Discard(3, mustCard(t, "JD")); err != nil {
		t.Fatalf("Discard() error: %v", err)
	}
	if len(table.Players[3].Hand) != HandSize {
		t.Fatalf("dealer holds %d cards after discard", len(table.Players[3].Hand))
	}
	if h.Phase != HandPhasePlaying || h.Leader != 0 {
		t.Fatalf("phase=%s leader=%d, want playing, 0", h.Phase, h.Leader)
	}

	playTricks(t, h, [][]seatPlay{
		{{0, "AH"}, {1, "QH"}, {2, "9H"}, {3, "9D"}},
		{{0, "KH"}, {1, "JH"}, {2, "10H"}, {3, "10D"}},
		{{0, "AD"}, {1, "KD"}, {2, "QD"}, {3, "AS"}},
		{{0, "9S"}, {1, "QS"}, {2, "9C"}, {3, "AC"}},
		{{3, "JC"}, {0, "10S"}, {1, "KS"}, {2, "10C"}},
	})
	if h.Phase != HandPhaseDone {
		t.Fatalf("Phase = %s, want done", h.Phase)
	}
	if h.TricksTaken != [2]int{3, 2} {
		t.Fatalf("TricksTaken = %v, want [3 2]", h.TricksTaken)
	}

	result, err := table.FinishHand()
	if err != nil {
		t.Fatalf("FinishHand() error: %v", err)
	}
	if result.Scorer != 0 || result.Points != 2 {
		t.Fatalf("result = %+v, want partnership 0 scoring 2", result)
	}
	if table.Points != [2]int{2, 0} {
		t.Fatalf("Points = %v, want [2 0]", table.Points)
	}
	if table.Dealer != 0 || table.Hand != nil {
		t.Fatalf("Dealer = %d, Hand = %v after finish", table.Dealer, table.Hand)
	}
}

func TestGoingAlone(t *testing.T) {
	t.Run("caller's partner sits out", func(t *testing.T) {
		table := seatedTable(t)
		h, err := table.StartHand(nil)
		if err != nil {
			t.Fatalf("StartHand() error: %v", err)
		}
		if err := h.OrderUp(1, true); err != nil {
			t.Fatalf("OrderUp(1, alone) error: %v", err)
		}
		if h.SittingOut == nil || *h.SittingOut != 3 || h.Alone == nil || *h.Alone != 1 {
			t.Fatalf("SittingOut=%v Alone=%v, want 3 and 1", h.SittingOut, h.Alone)
		}
		if err := h.Discard(0, table.Players[0].Hand[0]); err != nil {
			t.Fatalf("Discard() error: %v", err)
		}
		if h.Leader != 1 {
			t.Fatalf("Leader = %d, want 1", h.Leader)
		}
		playOneTrick(t, h)
		if len(h.Play.Completed) != 1 {
			t.Fatalf("completed tricks = %d, want 1", len(h.Play.Completed))
		}
		if got := len(h.Play.Completed[0].Plays); got != 3 {
			t.Fatalf("trick resolved after %d plays, want 3", got)
		}
		for _, p := range h.Play.Completed[0].Plays {
			if p.Seat == 3 {
				t.Fatalf("sitting-out seat played %v", p.Card)
			}
		}
	})

	t.Run("dealer's partner goes alone", func(t *testing.T) {
		table := seatedTable(t)
		h, err := table.StartHand(nil)
		if err != nil {
			t.Fatalf("StartHand() error: %v", err)
		}
		if err := h.Pass(1); err != nil {
			t.Fatalf("Pass(1) error: %v", err)
		}
		if err := h.OrderUp(2, true); err != nil {
			t.Fatalf("OrderUp(2, alone) error: %v", err)
		}
		if h.Phase != HandPhasePlaying {
			t.Fatalf("Phase = %s, want playing without pickup", h.Phase)
		}
		if ContainsCard(table.Players[0].Hand, h.UpCard) {
			t.Fatalf("sitting-out dealer picked up %v", h.UpCard)
		}
		if h.Leader != 1 {
			t.Fatalf("Leader = %d, want 1", h.Leader)
		}
	})

	t.Run("round two lone call", func(t *testing.T) {
		table := seatedTable(t)
		h, err := table.StartHand(nil)
		if err != nil {
			t.Fatalf("StartHand() error: %v", err)
		}
		passAround(t, h)
		suit := SameColorSuit(h.UpCard.Suit)
		if err := h.CallSuit(1, suit, true); err != nil {
			t.Fatalf("CallSuit() error: %v", err)
		}
		if h.Leader != 2 || h.Play.Trick.Size() != 3 {
			t.Fatalf("Leader=%d size=%d, want 2 and 3", h.Leader, h.Play.Trick.Size())
		}
		if turn, _ := h.Turn(); turn != 2 {
			t.Fatalf("Turn() = %d, want 2", turn)
		}
		playOneTrick(t, h)
		if got := h.TricksTaken[0] + h.TricksTaken[1]; got != 1 {
			t.Fatalf("tricks taken = %d, want 1", got)
		}
	})
}

func playOneTrick(t *testing.T, h *Hand) {
	t.Helper()
	for !h.Play.Trick.Complete() {
		seat, _ := h.Turn()
		legal := h.LegalCards(seat)
		if len(legal) == 0 {
			t.Fatalf("seat %d has no legal card", seat)
		}
		done, err := h.PlayCard(seat, legal[0])
		if err != nil {
			t.Fatalf("PlayCard(%d, %v) error: %v", seat, legal[0], err)
		}
		if done != nil {
			return
		}
	}
}

func passAround(t *testing.T, h *Hand) {
	t.Helper()
	for i := 0; i < SeatCount; i++ {
		seat, _ := h.Turn()
		if err := h.Pass(seat); err != nil {
			t.Fatalf("Pass(%d) error: %v", seat, err)
		}
	}
}

func TestRedeal(t *testing.T) {
	table := seatedTable(t)
	table.Dealer = 2
	table.Points = [2]int{4, 7}
	h, err := table.StartHand(nil)
	if err != nil {
		t.Fatalf("StartHand() error: %v", err)
	}

	passAround(t, h)
	if h.Phase != HandPhaseBidRound2 || h.TurnedDown == nil || *h.TurnedDown != h.UpCard.Suit {
		t.Fatalf("after round one: phase=%s turnedDown=%v", h.Phase, h.TurnedDown)
	}
	passAround(t, h)
	if h.Phase != HandPhaseRedeal {
		t.Fatalf("Phase = %s, want redeal", h.Phase)
	}
	if len(h.Bids) != 8 {
		t.Fatalf("len(Bids) = %d, want 8", len(h.Bids))
	}

	result, err := table.FinishHand()
	if err != nil {
		t.Fatalf("FinishHand() error: %v", err)
	}
	if !result.Redeal || result.Points != 0 {
		t.Fatalf("result = %+v, want unscored redeal", result)
	}
	if table.Points != [2]int{4, 7} {
		t.Fatalf("Points = %v, want unchanged", table.Points)
	}
	if table.Dealer != 3 {
		t.Fatalf("Dealer = %d, want 3", table.Dealer)
	}

	next, err := table.StartHand(nil)
	if err != nil {
		t.Fatalf("StartHand() after redeal error: %v", err)
	}
	if next.Dealer != 3 || next.Phase != HandPhaseBidRound1 {
		t.Fatalf("new hand dealer=%d phase=%s", next.Dealer, next.Phase)
	}
	if turn, _ := next.Turn(); turn != 0 {
		t.Fatalf("Turn() = %d, want 0", turn)
	}
}

func TestBidRejections(t *testing.T) {
	table := seatedTable(t)
	h, err := table.StartHand(nil)
	if err != nil {
		t.Fatalf("StartHand() error: %v", err)
	}

	if err := h.Pass(2); !errors.Is(err, ErrNotPlayersTurn) {
		t.Fatalf("Pass out of turn error = %v, want %v", err, ErrNotPlayersTurn)
	}
	if err := h.CallSuit(1, Hearts, false); !errors.Is(err, ErrInvalidBid) {
		t.Fatalf("CallSuit in round one error = %v, want %v", err, ErrInvalidBid)
	}
	if err := h.Discard(0, table.Players[0].Hand[0]); !errors.Is(err, ErrInvalidBid) {
		t.Fatalf("Discard before order up error = %v, want %v", err, ErrInvalidBid)
	}
	if _, err := h.PlayCard(1, table.Players[1].Hand[0]); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("PlayCard while bidding error = %v, want %v", err, ErrWrongPhase)
	}

	passAround(t, h)
	if err := h.OrderUp(1, false); !errors.Is(err, ErrInvalidBid) {
		t.Fatalf("OrderUp in round two error = %v, want %v", err, ErrInvalidBid)
	}
	if err := h.CallSuit(1, h.UpCard.Suit, false); !errors.Is(err, ErrInvalidBid) {
		t.Fatalf("CallSuit(turned down) error = %v, want %v", err, ErrInvalidBid)
	}
	if h.Trump != nil || h.Phase != HandPhaseBidRound2 {
		t.Fatalf("rejected bid changed state: trump=%v phase=%s", h.Trump, h.Phase)
	}
}

func TestDiscardRejections(t *testing.T) {
	table := seatedTable(t)
	h, err := table.StartHand(nil)
	if err != nil {
		t.Fatalf("StartHand() error: %v", err)
	}
	if err := h.OrderUp(1, false); err != nil {
		t.Fatalf("OrderUp() error: %v", err)
	}
	if err := h.Discard(1, table.Players[1].Hand[0]); !errors.Is(err, ErrNotPlayersTurn) {
		t.Fatalf("Discard by non-dealer error = %v, want %v", err, ErrNotPlayersTurn)
	}
	held := table.Players[0].Hand
	var missing Card
	for _, c := range CanonicalCards() {
		if !ContainsCard(held, c) {
			missing = c
			break
		}
	}
	if err := h.Discard(0, missing); !errors.Is(err, ErrIllegalCard) {
		t.Fatalf("Discard(unheld) error = %v, want %v", err, ErrIllegalCard)
	}
	if h.Phase != HandPhaseDiscard {
		t.Fatalf("Phase = %s, want discard", h.Phase)
	}
}

func TestDealGivesFiveCardBlocksFromDealersLeft(t *testing.T) {
	table := seatedTable(t)
	table.Dealer = 2
	h, err := table.StartHand(ShufflerFunc(func([]Card) {}))
	if err != nil {
		t.Fatalf("StartHand() error: %v", err)
	}
	canonical := CanonicalCards()
	for i, seat := range []Seat{3, 0, 1, 2} {
		want := canonical[i*HandSize : (i+1)*HandSize]
		got := table.Players[seat].Hand
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("seat %d hand = %v, want %v", seat, got, want)
			}
		}
	}
	if h.UpCard != canonical[SeatCount*HandSize] {
		t.Fatalf("UpCard = %v, want %v", h.UpCard, canonical[SeatCount*HandSize])
	}
	if got := h.Deck().Len(); got != DeckSize-SeatCount*HandSize-1 {
		t.Fatalf("Deck().Len() = %d, want %d", got, DeckSize-SeatCount*HandSize-1)
	}
}

func TestBidJSONOmitsSuitOnPass(t *testing.T) {
	table := seatedTable(t)
	h, err := table.StartHand(nil)
	if err != nil {
		t.Fatalf("StartHand() error: %v", err)
	}
	if err := h.Pass(1); err != nil {
		t.Fatalf("Pass(1) error: %v", err)
	}
	if err := h.OrderUp(2, false); err != nil {
		t.Fatalf("OrderUp(2) error: %v", err)
	}

	got, err := json.Marshal(h.Bids)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	up := h.UpCard.Suit.String()
	want := `[{"seat":1,"round":1,"pass":true},{"seat":2,"round":1,"pass":false,"suit":"` + up + `"}]`
	if string(got) != want {
		t.Fatalf("Bids JSON = %s, want %s", got, want)
	}
}

func TestHandPhaseBidding(t *testing.T) {
	tests := []struct {
		phase HandPhase
		want  bool
	}{
		{HandPhaseBidRound1, true},
		{HandPhaseDiscard, true},
		{HandPhaseBidRound2, true},
		{HandPhasePlaying, false},
		{HandPhaseDone, false},
		{HandPhaseRedeal, false},
	}
	for _, tt := range tests {
		if got := tt.phase.Bidding(); got != tt.want {
			t.Errorf("%s.Bidding() = %v, want %v", tt.phase, got, tt.want)
		}
	}
}
