package ports

import (
	"errors"

	"euchre/internal/app"
	"euchre/internal/domain"
)

// ErrorCode maps table errors onto HTTP-like codes for clients.
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotPlayersTurn):
		return 403
	case errors.Is(err, app.ErrUnknownTable):
		return 404
	case errors.Is(err, domain.ErrWrongPhase), errors.Is(err, domain.ErrInvalidBid),
		errors.Is(err, domain.ErrSeatTaken), errors.Is(err, domain.ErrGameOver),
		errors.Is(err, app.ErrNotInLobby), errors.Is(err, app.ErrTableNotFull):
		return 409
	case errors.Is(err, domain.ErrIllegalCard):
		return 422
	}
	return 400
}
