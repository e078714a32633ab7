package bot

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"euchre/internal/app"
	"euchre/internal/domain"
)

// ErrNoLegalMove is returned when the agent is asked to act out of turn.
var ErrNoLegalMove = errors.New("no legal move for seat")

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// NewAgent builds an agent with the strategy for level.
func NewAgent(id, name string, level BotLevel) (*Agent, error) {
	brain, err := NewBrain(level)
	if err != nil {
		return nil, err
	}
	return &Agent{ID: id, Name: name, Strategy: brain}, nil
}

// Play asks the agent to calculate its move for seat on the given table.
// A strategy error falls back to the first legal move so the table never stalls.
func (a *Agent) Play(svc *app.Service, tableID uuid.UUID, seat domain.Seat) (app.Move, error) {
	legal, err := svc.LegalMoves(tableID, seat)
	if err != nil {
		return app.Move{}, err
	}
	if len(legal) == 0 {
		return app.Move{}, fmt.Errorf("seat %d: %w", seat, ErrNoLegalMove)
	}
	state, err := svc.PublicState(tableID)
	if err != nil {
		return app.Move{}, err
	}
	hand, err := svc.PrivateHand(tableID, seat)
	if err != nil {
		return app.Move{}, err
	}

	move, err := a.Strategy.CalculateMove(View{Seat: seat, Hand: hand, State: state, Legal: legal})
	if err != nil {
		return legal[0], err
	}
	return move, nil
}

// OnGameEvent notifies the agent of a game event.
func (a *Agent) OnGameEvent(event app.Event) {
	a.Strategy.OnEvent(event)
}
