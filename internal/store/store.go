package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// GameRecord is the persisted form of a game, keyed by game ID. Hands nest
// the records that the relational schema links by composite key
// (gameId, handNumber) and below.
type GameRecord struct {
	GameID       string            `json:"game_id"`
	Seats        map[string]string `json:"seats"` // seat name -> player ID
	State        string            `json:"state"`
	NSWin        *bool             `json:"ns_win,omitempty"`
	NSScore      int               `json:"ns_score"`
	EWScore      int               `json:"ew_score"`
	NSBags       int               `json:"ns_bags"`
	EWBags       int               `json:"ew_bags"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActivity time.Time         `json:"last_activity"`
	Hands        []HandRecord      `json:"hands,omitempty"`
}

// HandRecord is the persisted form of one hand, keyed by
// (gameId, handNumber).
type HandRecord struct {
	Number       int              `json:"hand_number"`
	Dealer       string           `json:"dealer"`
	Bids         map[string]*int  `json:"bids"`
	SpadesBroken bool             `json:"spades_broken"`
	Scored       bool             `json:"scored"`
	NSBagsAtEnd  int              `json:"ns_bags_at_end"`
	EWBagsAtEnd  int              `json:"ew_bags_at_end"`
	NSScoreAfter int              `json:"ns_score_after"`
	EWScoreAfter int              `json:"ew_score_after"`
	Cards        []HandCardRecord `json:"cards"`
	Tricks       []TrickRecord    `json:"tricks,omitempty"`
}

// HandCardRecord is the persisted form of one dealt card, keyed by
// (gameId, handNumber, seat, card).
type HandCardRecord struct {
	Seat   string `json:"seat"`
	Card   string `json:"card"`
	Played bool   `json:"played"`
}

// TrickRecord is the persisted form of one trick, keyed by
// (gameId, handNumber, trickNumber).
type TrickRecord struct {
	Number int               `json:"trick_number"`
	Lead   string            `json:"lead"`
	Plays  map[string]string `json:"plays"` // seat name -> card code
	Winner string            `json:"winner,omitempty"`
}

// Store is the persistence boundary. The engine snapshots state through it
// after every mutating operation and never retries a failed write, so
// failures surface to the caller unmodified.
type Store interface {
	// SaveGame writes the full game snapshot.
	SaveGame(ctx context.Context, rec *GameRecord) error

	// LoadGame reads a game snapshot; ErrNotFound if absent.
	LoadGame(ctx context.Context, gameID string) (*GameRecord, error)

	// DeleteGame removes a game past its retention window.
	DeleteGame(ctx context.Context, gameID string) error

	// ListGames returns the IDs of all persisted games.
	ListGames(ctx context.Context) ([]string, error)

	// RecordResult increments win/loss counters for the named players.
	RecordResult(ctx context.Context, winners, losers []string) error

	// PlayerRecord reads a player's win/loss counters.
	PlayerRecord(ctx context.Context, playerID string) (wins, losses int, err error)
}
