package game

import "errors"

// Validation failures surfaced to the caller. Each one leaves game state
// unchanged; the caller corrects its input and retries.
var (
	// ErrInvalidBid is returned for a bid outside 0-13 or a resubmission.
	ErrInvalidBid = errors.New("invalid bid")

	// ErrIllegalPlay is returned for a suit-following or spade-breaking
	// violation, or for playing a card the seat does not hold.
	ErrIllegalPlay = errors.New("illegal play")

	// ErrWrongTurn is returned when a seat acts out of turn order.
	ErrWrongTurn = errors.New("wrong turn")

	// ErrWrongPhase is returned when an action is attempted outside its
	// valid lifecycle state, e.g. playing a card before bidding completes.
	ErrWrongPhase = errors.New("wrong phase")

	// ErrGameFull is returned when joining a game with no empty seat.
	ErrGameFull = errors.New("game is full")

	// ErrAlreadySeated is returned when a player joins a game twice.
	ErrAlreadySeated = errors.New("player already seated")
)
