package domain

// Phase represents the lifecycle stage of a table.
type Phase string

const (
	// PhaseLobby is the pre-game state where players take seats.
	PhaseLobby Phase = "lobby"
	// PhasePlaying means a game is in progress.
	PhasePlaying Phase = "playing"
	// PhaseEnded is the state after a partnership reached the winning score.
	PhaseEnded Phase = "ended"
)

// HandPhase is the observable state of the bidding/playing state machine of one deal.
// Dealing, trump resolution and scoring complete within a single move and are never
// visible between moves.
type HandPhase string

const (
	// HandPhaseBidRound1 asks each seat in turn to order up the up-card or pass.
	HandPhaseBidRound1 HandPhase = "bid_round_1"
	// HandPhaseDiscard waits for the dealer to discard after picking up the up-card.
	HandPhaseDiscard HandPhase = "discard"
	// HandPhaseBidRound2 asks each seat to name a trump suit other than the turned-down one.
	HandPhaseBidRound2 HandPhase = "bid_round_2"
	// HandPhasePlaying covers the five tricks.
	HandPhasePlaying HandPhase = "playing"
	// HandPhaseDone means all five tricks were played and the hand was scored.
	HandPhaseDone HandPhase = "done"
	// HandPhaseRedeal means every bid opportunity passed; the hand is thrown in.
	HandPhaseRedeal HandPhase = "redeal"
)

// Finished reports whether the hand accepts no further moves.
func (p HandPhase) Finished() bool {
	return p == HandPhaseDone || p == HandPhaseRedeal
}

// Bidding reports whether the hand is still resolving trump.
func (p HandPhase) Bidding() bool {
	return p == HandPhaseBidRound1 || p == HandPhaseDiscard || p == HandPhaseBidRound2
}
