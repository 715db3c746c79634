package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/cardtable/spades-server/internal/deck"
	"github.com/cardtable/spades-server/internal/events"
	"github.com/cardtable/spades-server/internal/game"
	"github.com/cardtable/spades-server/internal/randutil"
	"github.com/cardtable/spades-server/internal/store"
)

// GameService owns the live games and maps session operations onto the
// engine. Every mutating call snapshots the affected game to the store
// before returning; a store failure surfaces to the caller and is never
// retried here, so scoring and card-play effects cannot double-apply.
type GameService struct {
	logger *log.Logger
	server *Server
	store  store.Store
	events events.Publisher
	clock  quartz.Clock
	cfg    *Config

	mu      sync.RWMutex
	games   map[string]*game.Game
	order   []string // creation order, oldest first, for matchmaking
	nextRNG int64
}

// NewGameService creates a game service.
func NewGameService(cfg *Config, st store.Store, pub events.Publisher, clock quartz.Clock, logger *log.Logger) *GameService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &GameService{
		logger:  logger.WithPrefix("games"),
		store:   st,
		events:  pub,
		clock:   clock,
		cfg:     cfg,
		games:   make(map[string]*game.Game),
		nextRNG: cfg.Game.Seed,
	}
}

// SetServer attaches the websocket server used for broadcasts.
func (gs *GameService) SetServer(server *Server) {
	gs.server = server
}

// Restore loads persisted games back into memory, resuming live games
// after a restart. Terminal games are kept until their retention window
// lapses.
func (gs *GameService) Restore(ctx context.Context) error {
	ids, err := gs.store.ListGames(ctx)
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()
	for _, id := range ids {
		rec, err := gs.store.LoadGame(ctx, id)
		if err != nil {
			return fmt.Errorf("load game %s: %w", id, err)
		}
		g, err := game.Restore(rec, gs.cfg.GameConfig(), gs.clock, randutil.New(gs.seed()), gs.logger)
		if err != nil {
			return err
		}
		gs.games[id] = g
		gs.order = append(gs.order, id)
	}

	gs.logger.Info("Restored games", "count", len(ids))
	return nil
}

// seed returns the next per-game RNG seed. Caller holds the lock.
func (gs *GameService) seed() int64 {
	gs.nextRNG++
	if gs.cfg.Game.Seed == 0 {
		return gs.clock.Now().UnixNano() + gs.nextRNG
	}
	return gs.nextRNG
}

// CreateOrJoinGame seats the player in the oldest open game, creating a
// fresh one when none is open. Re-joining returns the player's existing
// seat in their live game.
func (gs *GameService) CreateOrJoinGame(ctx context.Context, playerID string) (string, game.Seat, error) {
	gs.mu.Lock()

	// Re-join: a player already in a live game stays where they are.
	for _, id := range gs.order {
		g := gs.games[id]
		if g.State().Terminal() {
			continue
		}
		if seat, ok := g.SeatOf(playerID); ok {
			gs.mu.Unlock()
			return id, seat, nil
		}
	}

	var joined *game.Game
	var seat game.Seat
	created := false
	for _, id := range gs.order {
		g := gs.games[id]
		if g.State() != game.Filling {
			continue
		}
		s, err := g.Join(playerID)
		if err != nil {
			gs.mu.Unlock()
			return "", 0, err
		}
		joined, seat = g, s
		break
	}

	if joined == nil {
		id := uuid.NewString()
		g := game.New(id, gs.cfg.GameConfig(), gs.clock, randutil.New(gs.seed()), gs.logger)
		gs.games[id] = g
		gs.order = append(gs.order, id)
		created = true

		s, err := g.Join(playerID)
		if err != nil {
			gs.mu.Unlock()
			return "", 0, err
		}
		joined, seat = g, s
	}
	gs.mu.Unlock()

	if err := gs.persist(ctx, joined); err != nil {
		return "", 0, err
	}

	if created {
		gs.publish(events.Event{Type: events.TypeGameCreated, GameID: joined.ID()})
	}
	if joined.State() == game.InProgress {
		gs.publish(events.Event{Type: events.TypeGameStarted, GameID: joined.ID()})
	}
	gs.broadcastViews(joined)
	return joined.ID(), seat, nil
}

// SubmitBid records a bid on behalf of the player.
func (gs *GameService) SubmitBid(ctx context.Context, playerID, gameID string, seat game.Seat, bid int) error {
	g, err := gs.gameFor(playerID, gameID, seat)
	if err != nil {
		return err
	}
	if err := g.SubmitBid(seat, bid); err != nil {
		return err
	}
	if err := gs.persist(ctx, g); err != nil {
		return err
	}
	gs.broadcastViews(g)
	return nil
}

// PlayCard applies a card play on behalf of the player.
func (gs *GameService) PlayCard(ctx context.Context, playerID, gameID string, seat game.Seat, cardCode string) error {
	g, err := gs.gameFor(playerID, gameID, seat)
	if err != nil {
		return err
	}

	card, err := deck.Parse(cardCode)
	if err != nil {
		return fmt.Errorf("%w: %s", game.ErrIllegalPlay, err)
	}

	handNumber := g.View(seat).HandNumber
	result, err := g.PlayCard(seat, card)
	if err != nil {
		return err
	}
	if err := gs.persist(ctx, g); err != nil {
		return err
	}

	if newHand := g.View(seat).HandNumber; newHand != handNumber || result != nil {
		gs.publish(events.Event{Type: events.TypeHandCompleted, GameID: gameID, Data: map[string]int{"hand": handNumber}})
	}
	if result != nil {
		gs.finalize(ctx, g, result)
	}
	gs.broadcastViews(g)
	return nil
}

// GetView returns the seat-restricted snapshot for the player.
func (gs *GameService) GetView(playerID, gameID string) (game.View, error) {
	g, ok := gs.lookup(gameID)
	if !ok {
		return game.View{}, ErrUnknownGame
	}
	seat, ok := g.SeatOf(playerID)
	if !ok {
		return game.View{}, ErrNotSeated
	}
	return g.View(seat), nil
}

// ListOpenGames returns summaries of games still accepting players.
func (gs *GameService) ListOpenGames() []GameSummary {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	summaries := make([]GameSummary, 0)
	for _, id := range gs.order {
		g := gs.games[id]
		if g.State() != game.Filling {
			continue
		}
		players := 0
		for _, seat := range game.Seats {
			if _, ok := g.PlayerAt(seat); ok {
				players++
			}
		}
		summaries = append(summaries, GameSummary{
			ID:        id,
			Players:   players,
			OpenSeats: len(game.Seats) - players,
			CreatedAt: g.CreatedAt(),
		})
	}
	return summaries
}

// PlayerRecord reads a player's win/loss counters from the store.
func (gs *GameService) PlayerRecord(ctx context.Context, playerID string) (wins, losses int, err error) {
	return gs.store.PlayerRecord(ctx, playerID)
}

// CheckTimeouts sweeps every live game for inactivity and reaps terminal
// games past retention. Safe to invoke repeatedly and concurrently with
// gameplay: the engine ignores terminal games, so a game is penalized at
// most once.
func (gs *GameService) CheckTimeouts(ctx context.Context) {
	gs.mu.RLock()
	ids := make([]string, len(gs.order))
	copy(ids, gs.order)
	gs.mu.RUnlock()

	for _, id := range ids {
		g, ok := gs.lookup(id)
		if !ok {
			continue
		}

		if result, transitioned := g.CheckTimeout(); transitioned {
			if err := gs.persist(ctx, g); err != nil {
				gs.logger.Error("Failed to persist timed-out game", "game", id, "error", err)
				continue
			}
			switch result.State {
			case game.Abandoned:
				gs.publish(events.Event{Type: events.TypeGameAbandoned, GameID: id})
			case game.Forfeited:
				gs.finalize(ctx, g, result)
			}
			gs.broadcastViews(g)
			continue
		}

		if g.State().Terminal() && gs.clock.Since(g.LastActivity()) > gs.cfg.Retention() {
			gs.reap(ctx, id)
		}
	}
}

// RunSweeper invokes CheckTimeouts at the configured interval until the
// context is canceled.
func (gs *GameService) RunSweeper(ctx context.Context) error {
	gs.logger.Info("Starting timeout sweeper", "interval", gs.cfg.SweepInterval())
	waiter := gs.clock.TickerFunc(ctx, gs.cfg.SweepInterval(), func() error {
		gs.CheckTimeouts(ctx)
		return nil
	})
	err := waiter.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// finalize records win/loss counters and publishes the terminal event.
// Called exactly once per game, on the call that performed the terminal
// transition.
func (gs *GameService) finalize(ctx context.Context, g *game.Game, result *game.Result) {
	if err := gs.store.RecordResult(ctx, result.Winners, result.Losers); err != nil {
		gs.logger.Error("Failed to record result", "game", g.ID(), "error", err)
	}

	eventType := events.TypeGameCompleted
	if result.State == game.Forfeited {
		eventType = events.TypeGameForfeited
	}
	gs.publish(events.Event{
		Type:   eventType,
		GameID: g.ID(),
		Data:   map[string]any{"nsWin": result.NSWin},
	})
}

// reap removes a terminal game past its retention window.
func (gs *GameService) reap(ctx context.Context, id string) {
	if err := gs.store.DeleteGame(ctx, id); err != nil {
		gs.logger.Error("Failed to delete archived game", "game", id, "error", err)
		return
	}

	gs.mu.Lock()
	delete(gs.games, id)
	for i, oid := range gs.order {
		if oid == id {
			gs.order = append(gs.order[:i], gs.order[i+1:]...)
			break
		}
	}
	gs.mu.Unlock()

	gs.logger.Info("Reaped archived game", "game", id)
}

func (gs *GameService) lookup(gameID string) (*game.Game, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	g, ok := gs.games[gameID]
	return g, ok
}

// gameFor resolves the game and verifies the player owns the seat they
// claim to act from.
func (gs *GameService) gameFor(playerID, gameID string, seat game.Seat) (*game.Game, error) {
	g, ok := gs.lookup(gameID)
	if !ok {
		return nil, ErrUnknownGame
	}
	if owner, ok := g.PlayerAt(seat); !ok || owner != playerID {
		return nil, ErrNotSeated
	}
	return g, nil
}

// persist snapshots the game to the store.
func (gs *GameService) persist(ctx context.Context, g *game.Game) error {
	if err := gs.store.SaveGame(ctx, g.Snapshot()); err != nil {
		return fmt.Errorf("save game %s: %w", g.ID(), err)
	}
	return nil
}

func (gs *GameService) publish(event events.Event) {
	event.Timestamp = gs.clock.Now()
	if err := gs.events.Publish(event); err != nil {
		gs.logger.Warn("Failed to publish event", "type", event.Type, "game", event.GameID, "error", err)
	}
}

// broadcastViews pushes each seated player their own view of the game.
// Views are per-seat so no player ever sees another seat's cards.
func (gs *GameService) broadcastViews(g *game.Game) {
	if gs.server == nil {
		return
	}
	for _, seat := range game.Seats {
		playerID, ok := g.PlayerAt(seat)
		if !ok {
			continue
		}
		msg, err := NewMessage(MessageTypeGameView, g.View(seat))
		if err != nil {
			gs.logger.Error("Failed to create view message", "error", err)
			continue
		}
		if err := gs.server.SendToPlayer(playerID, msg); err != nil {
			gs.logger.Debug("Player not connected for view push", "player", playerID)
		}
	}
}
