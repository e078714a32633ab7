// Package ws serves Euchre tables to browser clients over WebSocket.
package ws

import (
	"encoding/json"

	"euchre/internal/app"
	"euchre/internal/domain"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound message types.
const (
	TypeCreateTable = "create_table"
	TypeJoinTable   = "join_table"
	TypeTakeSeat    = "take_seat"
	TypeLeaveSeat   = "leave_seat"
	TypeAddBot      = "add_bot"
	TypeStartGame   = "start_game"
	TypeMove        = "move"
	TypeGetState    = "get_state"
)

// Outbound message types.
const (
	TypeTableCreated = "table_created"
	TypeEvent        = "event"
	TypePublicState  = "public_state"
	TypePrivateHand  = "private_hand"
	TypeError        = "error"
)

type joinTableRequest struct {
	TableID string `json:"table_id"`
}

type takeSeatRequest struct {
	Seat domain.Seat `json:"seat"`
	Name string      `json:"name"`
}

type addBotRequest struct {
	Seat  domain.Seat `json:"seat"`
	Level string      `json:"level"`
}

// startGameRequest picks the first dealer. Without one the deal continues from
// the table's previous game.
type startGameRequest struct {
	Dealer *domain.Seat `json:"dealer,omitempty"`
}

type tableCreated struct {
	TableID string `json:"table_id"`
}

// PrivateHand is sent to the client holding a seat.
type PrivateHand struct {
	Seat  domain.Seat   `json:"seat"`
	Hand  []domain.Card `json:"hand"`
	Legal []app.Move    `json:"legal"`
}

// ErrorPayload reports a rejected request to its sender.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newMessage(typ string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: typ, Payload: data}, nil
}
