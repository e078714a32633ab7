package bot

import (
	"math/rand/v2"

	"euchre/internal/app"
)

// RandomBot picks uniformly among the legal moves. It never goes alone.
type RandomBot struct {
	Rand *rand.Rand
}

func (b *RandomBot) CalculateMove(view View) (app.Move, error) {
	candidates := make([]app.Move, 0, len(view.Legal))
	for _, m := range view.Legal {
		if !m.Alone {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return app.Move{}, ErrNoLegalMove
	}
	return candidates[b.intN(len(candidates))], nil
}

func (b *RandomBot) OnEvent(app.Event) {}

func (b *RandomBot) intN(n int) int {
	if b.Rand != nil {
		return b.Rand.IntN(n)
	}
	return rand.IntN(n)
}
