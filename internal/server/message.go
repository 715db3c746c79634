package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/cardtable/spades-server/internal/game"
	"github.com/cardtable/spades-server/internal/store"
)

// MessageType identifies a websocket message
type MessageType string

// Client → server message types
const (
	MessageTypeAuth      MessageType = "auth"
	MessageTypeJoinGame  MessageType = "join_game"
	MessageTypeSubmitBid MessageType = "submit_bid"
	MessageTypePlayCard  MessageType = "play_card"
	MessageTypeGetView   MessageType = "get_view"
	MessageTypeListGames MessageType = "list_games"
)

// Server → client message types
const (
	MessageTypeAuthResponse MessageType = "auth_response"
	MessageTypeGameJoined   MessageType = "game_joined"
	MessageTypeGameView     MessageType = "game_view"
	MessageTypeGameList     MessageType = "game_list"
	MessageTypeAck          MessageType = "ack"
	MessageTypeError        MessageType = "error"
)

// String returns the message type as a string
func (mt MessageType) String() string { return string(mt) }

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	PlayerID string `json:"playerId"`
}

type JoinGameData struct {
	// GameID is optional; empty means "find or create an open game".
	GameID string `json:"gameId,omitempty"`
}

type SubmitBidData struct {
	GameID string    `json:"gameId"`
	Seat   game.Seat `json:"seat"`
	Bid    int       `json:"bid"`
}

type PlayCardData struct {
	GameID string    `json:"gameId"`
	Seat   game.Seat `json:"seat"`
	Card   string    `json:"card"`
}

type GetViewData struct {
	GameID string `json:"gameId"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId,omitempty"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Error    string `json:"error,omitempty"`
}

type GameJoinedData struct {
	GameID string    `json:"gameId"`
	Seat   game.Seat `json:"seat"`
	State  string    `json:"state"`
}

type AckData struct {
	Action string `json:"action"`
	GameID string `json:"gameId"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GameSummary holds lightweight metadata for clients browsing open games.
type GameSummary struct {
	ID        string    `json:"id"`
	Players   int       `json:"players"`
	OpenSeats int       `json:"openSeats"`
	CreatedAt time.Time `json:"createdAt"`
}

type GameListData struct {
	Games []GameSummary `json:"games"`
}

// Service errors with no engine counterpart.
var (
	ErrUnknownGame = errors.New("unknown game")
	ErrNotSeated   = errors.New("player is not seated at this game")
)

// errorCode maps an error to the stable code surfaced to clients.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidBid):
		return "invalid_bid"
	case errors.Is(err, game.ErrIllegalPlay):
		return "illegal_play"
	case errors.Is(err, game.ErrWrongTurn):
		return "wrong_turn"
	case errors.Is(err, game.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, game.ErrGameFull):
		return "game_full"
	case errors.Is(err, game.ErrAlreadySeated):
		return "already_seated"
	case errors.Is(err, ErrUnknownGame), errors.Is(err, store.ErrNotFound):
		return "unknown_game"
	case errors.Is(err, ErrNotSeated):
		return "not_seated"
	default:
		return "internal_error"
	}
}
