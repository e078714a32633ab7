package bot

import (
	"slices"

	"euchre/internal/app"
	"euchre/internal/bot/brain"
	"euchre/internal/domain"
)

// Bid thresholds on the handStrength scale.
const (
	orderUpThreshold = 14
	goAloneThreshold = 22
)

// GoodBot bids on trump strength, follows with the lowest card that wins and
// never overtakes its partner.
type GoodBot struct {
	Memory *brain.GameMemory
	upCard *domain.Card
}

func NewGoodBot() *GoodBot {
	return &GoodBot{Memory: brain.NewMemory()}
}

func (b *GoodBot) OnEvent(event app.Event) {
	switch p := event.Payload.(type) {
	case app.HandStartedPayload:
		b.Memory.Reset()
		up := p.UpCard
		b.upCard = &up
	case app.UpCardTurnedDownPayload:
		if b.upCard != nil {
			b.Memory.MarkBuried(*b.upCard)
		}
	case app.TrumpSetPayload:
		b.Memory.SetTrump(p.Trump)
	case app.CardPlayedPayload:
		b.Memory.RecordPlay(p.Seat, p.Card)
	case app.TrickWonPayload:
		b.Memory.EndTrick()
	}
}

func (b *GoodBot) CalculateMove(view View) (app.Move, error) {
	if len(view.Legal) == 0 {
		return app.Move{}, ErrNoLegalMove
	}
	b.Memory.UpdateHand(view.Hand)

	switch view.State.HandPhase {
	case domain.HandPhaseBidRound1:
		return b.bidRoundOne(view), nil
	case domain.HandPhaseBidRound2:
		return b.bidRoundTwo(view), nil
	case domain.HandPhaseDiscard:
		return b.discard(view), nil
	case domain.HandPhasePlaying:
		return b.play(view), nil
	}
	return view.Legal[0], nil
}

func (b *GoodBot) bidRoundOne(view View) app.Move {
	st := view.State
	if st.UpCard == nil {
		return app.Pass()
	}
	up := *st.UpCard
	trump := up.Suit

	var score int
	switch st.Dealer {
	case view.Seat:
		hand := append(slices.Clone(view.Hand), up)
		hand, _ = domain.RemoveCard(hand, worstCard(hand, trump))
		score = handStrength(hand, trump)
	case view.Seat.Partner():
		score = handStrength(view.Hand, trump) + cardValue(up, trump)/2
	default:
		score = handStrength(view.Hand, trump) - cardValue(up, trump)/2
	}
	return bid(view, score, app.OrderUp(false), app.OrderUp(true))
}

func (b *GoodBot) bidRoundTwo(view View) app.Move {
	var (
		best      *domain.Suit
		bestScore int
	)
	for _, m := range view.Legal {
		if m.Kind != app.MoveCallSuit || m.Alone || m.Suit == nil {
			continue
		}
		if score := handStrength(view.Hand, *m.Suit); best == nil || score > bestScore {
			suit := *m.Suit
			best, bestScore = &suit, score
		}
	}
	if best == nil {
		return app.Pass()
	}
	return bid(view, bestScore, app.CallSuit(*best, false), app.CallSuit(*best, true))
}

func (b *GoodBot) discard(view View) app.Move {
	if view.State.Trump == nil || len(view.Hand) == 0 {
		return view.Legal[0]
	}
	c := worstCard(view.Hand, *view.State.Trump)
	b.Memory.MarkBuried(c)
	return app.Discard(c)
}

func (b *GoodBot) play(view View) app.Move {
	st := view.State
	cards := legalCards(view.Legal)
	if st.Trump == nil || len(cards) == 0 {
		return view.Legal[0]
	}
	trump := *st.Trump
	if b.Memory.Trump == nil {
		b.Memory.SetTrump(trump)
	}
	for _, p := range st.Trick {
		b.Memory.MarkPlayed([]domain.Card{p.Card})
	}

	if len(st.Trick) == 0 {
		return app.Play(b.lead(view, cards, trump))
	}
	return app.Play(b.follow(view, cards, trump))
}

func (b *GoodBot) lead(view View, cards []domain.Card, trump domain.Suit) domain.Card {
	st := view.State
	makers := st.Maker != nil && *st.Maker == view.Seat.Partnership()

	var trumps, offSuit []domain.Card
	for _, c := range cards {
		if domain.RelativeSuit(c, trump) == trump {
			trumps = append(trumps, c)
		} else {
			offSuit = append(offSuit, c)
		}
	}

	if makers && len(trumps) > 0 && b.Memory.Outstanding(trump, trump) > 0 {
		top := highest(trumps, trump, trump)
		if b.Memory.IsBoss(top, trump) || len(trumps) >= 2 {
			return top
		}
	}

	var bosses []domain.Card
	for _, c := range offSuit {
		if b.Memory.IsBoss(c, trump) && !b.opponentVoid(view.Seat, c.Suit) {
			bosses = append(bosses, c)
		}
	}
	if len(bosses) > 0 {
		return highest(bosses, trump, trump)
	}
	if len(offSuit) > 0 {
		return lowest(offSuit, trump, trump)
	}
	return lowest(trumps, trump, trump)
}

func (b *GoodBot) follow(view View, cards []domain.Card, trump domain.Suit) domain.Card {
	st := view.State
	led := domain.RelativeSuit(st.Trick[0].Card, trump)
	if st.LedSuit != nil {
		led = *st.LedSuit
	}

	winner := st.Trick[0]
	for _, p := range st.Trick[1:] {
		if domain.RelativeRank(winner.Card, trump, led).Less(domain.RelativeRank(p.Card, trump, led)) {
			winner = p
		}
	}
	if winner.Seat == view.Seat.Partner() {
		return lowest(cards, trump, led)
	}

	top := domain.RelativeRank(winner.Card, trump, led)
	var beating []domain.Card
	for _, c := range cards {
		if top.Less(domain.RelativeRank(c, trump, led)) {
			beating = append(beating, c)
		}
	}
	if len(beating) > 0 {
		return lowest(beating, trump, led)
	}
	return lowest(cards, trump, led)
}

func (b *GoodBot) opponentVoid(seat domain.Seat, suit domain.Suit) bool {
	return b.Memory.IsVoid(seat.Next(), suit) || b.Memory.IsVoid(seat.Partner().Next(), suit)
}

// cardValue scores one card for bidding under trump.
func cardValue(c domain.Card, trump domain.Suit) int {
	switch {
	case domain.IsRightBower(c, trump):
		return 6
	case domain.IsLeftBower(c, trump):
		return 5
	case c.Suit == trump && c.Rank == domain.Ace:
		return 4
	case c.Suit == trump && c.Rank == domain.King:
		return 3
	case c.Suit == trump:
		return 2
	case c.Rank == domain.Ace:
		return 2
	}
	return 0
}

// handStrength sums card values and adds a point per void when holding at
// least two trumps.
func handStrength(hand []domain.Card, trump domain.Suit) int {
	score := 0
	var held [len(domain.Suits)]bool
	for _, c := range hand {
		score += cardValue(c, trump)
		held[domain.RelativeSuit(c, trump)] = true
	}
	if domain.CountTrump(hand, trump) >= 2 {
		for _, s := range domain.Suits {
			if s != trump && !held[s] {
				score++
			}
		}
	}
	return score
}

func bid(view View, score int, normal, alone app.Move) app.Move {
	if score >= goAloneThreshold && isLegal(view.Legal, alone) {
		return alone
	}
	if score >= orderUpThreshold && isLegal(view.Legal, normal) {
		return normal
	}
	return app.Pass()
}

// worstCard picks the discard: the lowest off-suit card, preferring one that
// leaves a void. Aces and trumps go last.
func worstCard(hand []domain.Card, trump domain.Suit) domain.Card {
	var counts [len(domain.Suits)]int
	for _, c := range hand {
		counts[domain.RelativeSuit(c, trump)]++
	}
	key := func(c domain.Card) int {
		suit := domain.RelativeSuit(c, trump)
		switch {
		case suit == trump:
			return 100 + domain.RelativeRank(c, trump, trump).Rank
		case c.Rank == domain.Ace:
			return 50
		}
		return int(c.Rank) + 10*(counts[suit]-1)
	}
	worst := hand[0]
	for _, c := range hand[1:] {
		if key(c) < key(worst) {
			worst = c
		}
	}
	return worst
}

func lowest(cards []domain.Card, trump, led domain.Suit) domain.Card {
	return slices.MinFunc(cards, func(a, b domain.Card) int {
		return compareRank(a, b, trump, led)
	})
}

func highest(cards []domain.Card, trump, led domain.Suit) domain.Card {
	return slices.MaxFunc(cards, func(a, b domain.Card) int {
		return compareRank(a, b, trump, led)
	})
}

func compareRank(a, b domain.Card, trump, led domain.Suit) int {
	ra, rb := domain.RelativeRank(a, trump, led), domain.RelativeRank(b, trump, led)
	switch {
	case ra.Less(rb):
		return -1
	case rb.Less(ra):
		return 1
	}
	return 0
}

func legalCards(moves []app.Move) []domain.Card {
	var cards []domain.Card
	for _, m := range moves {
		if m.Kind == app.MovePlay && m.Card != nil {
			cards = append(cards, *m.Card)
		}
	}
	return cards
}

func isLegal(moves []app.Move, want app.Move) bool {
	for _, m := range moves {
		if sameMove(m, want) {
			return true
		}
	}
	return false
}

func sameMove(a, b app.Move) bool {
	if a.Kind != b.Kind || a.Alone != b.Alone {
		return false
	}
	if (a.Suit == nil) != (b.Suit == nil) || (a.Suit != nil && *a.Suit != *b.Suit) {
		return false
	}
	if (a.Card == nil) != (b.Card == nil) || (a.Card != nil && *a.Card != *b.Card) {
		return false
	}
	return true
}
