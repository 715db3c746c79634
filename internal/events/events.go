package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Event types published on game lifecycle transitions. Clients that need
// push notification subscribe to these instead of polling game views.
const (
	TypeGameCreated   = "game_created"
	TypeGameStarted   = "game_started"
	TypeHandCompleted = "hand_completed"
	TypeGameCompleted = "game_completed"
	TypeGameForfeited = "game_forfeited"
	TypeGameAbandoned = "game_abandoned"
)

// Event is one lifecycle notification for a game.
type Event struct {
	Type      string    `json:"type"`
	GameID    string    `json:"gameId"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Publisher delivers lifecycle events to interested parties. Publishing is
// best-effort: the engine's state transitions never depend on delivery.
type Publisher interface {
	Publish(event Event) error
	Close()
}

// NATSPublisher publishes events as JSON to per-game NATS subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// ConnectNATS dials the NATS server and returns a publisher that emits on
// "<prefix>.<gameId>.<type>" subjects.
func ConnectNATS(url, prefix string) (*NATSPublisher, error) {
	if prefix == "" {
		prefix = "spades"
	}
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

// Publish sends the event to its subject.
func (p *NATSPublisher) Publish(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := fmt.Sprintf("%s.%s.%s", p.prefix, event.GameID, event.Type)
	return p.conn.Publish(subject, data)
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}

// Nop is a Publisher that discards events, for configurations without a
// NATS server and for tests.
type Nop struct{}

// Publish discards the event.
func (Nop) Publish(Event) error { return nil }

// Close does nothing.
func (Nop) Close() {}
