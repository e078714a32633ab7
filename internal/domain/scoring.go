package domain

// ScoreHand converts the tricks taken in a hand into the single (partnership, points)
// award of standard euchre scoring:
//
//	makers take 3 or 4 tricks  -> makers score 1
//	makers take all 5          -> makers score 2, or 4 when the caller went alone
//	makers take fewer than 3   -> defenders score 2 (euchre)
func ScoreHand(tricks [2]int, maker Partnership, alone bool) (Partnership, int) {
	taken := tricks[maker]
	switch {
	case taken < MakerTarget:
		return maker.Other(), 2
	case taken == TricksPerHand && alone:
		return maker, 4
	case taken == TricksPerHand:
		return maker, 2
	default:
		return maker, 1
	}
}
