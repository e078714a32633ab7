package bot

import (
	"euchre/internal/app"
	"euchre/internal/domain"
)

// View is everything a seat is allowed to know when asked to act.
type View struct {
	Seat  domain.Seat
	Hand  []domain.Card
	State app.PublicState
	Legal []app.Move
}

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	CalculateMove(view View) (app.Move, error)
	OnEvent(event app.Event)
}

// BotLevel selects a strategy.
type BotLevel int

const (
	BotLevelRandom BotLevel = iota
	BotLevelGood
)

// LevelForDifficulty maps an identity's difficulty label to a strategy.
func LevelForDifficulty(difficulty string) BotLevel {
	switch difficulty {
	case "easy":
		return BotLevelRandom
	default:
		return BotLevelGood
	}
}
