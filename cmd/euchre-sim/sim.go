package main

import (
	"errors"
	"fmt"
	"math/rand"

	"euchre/internal/app"
	"euchre/internal/bot"
	"euchre/internal/domain"
)

// maxSteps bounds one game so a stuck table fails instead of spinning.
const maxSteps = 50000

var errStuck = errors.New("game did not finish")

// GameResult summarises one self-play game.
type GameResult struct {
	Winner   domain.Partnership
	Score    [2]int
	Hands    int
	Redeals  int
	Euchres  [2]int // hands each partnership lost as makers
	Marches  [2]int // all five tricks taken by the makers
	AloneWon [2]int
}

// Stats aggregates many games.
type Stats struct {
	Games    int
	Wins     [2]int
	Hands    int
	Redeals  int
	Euchres  [2]int
	Marches  [2]int
	AloneWon [2]int
}

func (s *Stats) Add(r GameResult) {
	s.Games++
	s.Wins[r.Winner]++
	s.Hands += r.Hands
	s.Redeals += r.Redeals
	for p := range 2 {
		s.Euchres[p] += r.Euchres[p]
		s.Marches[p] += r.Marches[p]
		s.AloneWon[p] += r.AloneWon[p]
	}
}

// playGame seats levels[p] bots for each partnership and plays one game to the end.
func playGame(rng *rand.Rand, dealer domain.Seat, levels [2]bot.BotLevel) (GameResult, error) {
	svc := app.NewService(domain.NewRandShuffler(rng))
	id := svc.CreateTable()

	agents := make([]*bot.Agent, domain.SeatCount)
	for seat := domain.Seat(0); seat < domain.SeatCount; seat++ {
		identity := bot.GetBotIdentity(int(seat))
		agent, err := bot.NewAgent(identity.UserID, identity.DisplayName, levels[seat.Partnership()])
		if err != nil {
			return GameResult{}, err
		}
		agents[seat] = agent
		if _, err := svc.SeatPlayer(id, seat, agent.Name); err != nil {
			return GameResult{}, err
		}
	}

	var result GameResult
	deliver := func(events []app.Event) bool {
		ended := false
		for _, ev := range events {
			for seat, agent := range agents {
				if ev.VisibleTo(domain.Seat(seat)) {
					agent.OnGameEvent(ev)
				}
			}
			switch p := ev.Payload.(type) {
			case app.RedealPayload:
				result.Redeals++
			case app.HandScoredPayload:
				result.Hands++
				switch {
				case p.Scorer != p.Maker:
					result.Euchres[p.Maker]++
				case p.TricksTaken[p.Maker] == domain.HandSize && p.Alone:
					result.AloneWon[p.Maker]++
					result.Marches[p.Maker]++
				case p.TricksTaken[p.Maker] == domain.HandSize:
					result.Marches[p.Maker]++
				}
			case app.GameEndedPayload:
				result.Winner = p.Winner
				result.Score = p.Score
				ended = true
			}
		}
		return ended
	}

	events, err := svc.StartGame(id, dealer)
	if err != nil {
		return GameResult{}, err
	}
	if deliver(events) {
		return result, nil
	}

	for range maxSteps {
		state, err := svc.PublicState(id)
		if err != nil {
			return GameResult{}, err
		}
		if state.Turn == nil {
			return GameResult{}, fmt.Errorf("no seat to act in %s", state.HandPhase)
		}
		seat := *state.Turn
		move, err := agents[seat].Play(svc, id, seat)
		if errors.Is(err, bot.ErrNoLegalMove) {
			return GameResult{}, err
		}
		events, err := svc.ApplyMove(id, seat, move)
		if err != nil {
			return GameResult{}, fmt.Errorf("seat %d move %+v: %w", seat, move, err)
		}
		if deliver(events) {
			return result, nil
		}
	}
	return GameResult{}, errStuck
}
