package ports

import (
	"context"

	"euchre/internal/app"
	"euchre/internal/domain"
)

// StatePublisher pushes table state to subscribers outside the session that
// produced it, such as spectators or companion services.
type StatePublisher interface {
	// PublishPublicState broadcasts the state every observer may see.
	PublishPublicState(ctx context.Context, state app.PublicState) error

	// PublishPrivateHand delivers one seat's concealed cards on that seat's channel.
	PublishPrivateHand(ctx context.Context, tableID string, seat domain.Seat, hand []domain.Card) error

	// PublishEvent forwards a public table event.
	PublishEvent(ctx context.Context, tableID string, ev app.Event) error
}
