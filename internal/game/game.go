package game

import (
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardtable/spades-server/internal/deck"
)

// State represents the lifecycle state of a game
type State int

const (
	// Filling means the game is waiting for players to take seats.
	Filling State = iota
	// InProgress means all four seats are taken and hands are being played.
	InProgress
	// Abandoned means a Filling game timed out before it filled.
	Abandoned
	// Forfeited means a seated player timed out mid-game.
	Forfeited
	// Completed means a partnership reached the winning threshold.
	Completed
)

// String returns the string representation of a game state
func (s State) String() string {
	switch s {
	case Filling:
		return "filling"
	case InProgress:
		return "in_progress"
	case Abandoned:
		return "abandoned"
	case Forfeited:
		return "forfeited"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is absorbing.
func (s State) Terminal() bool {
	return s == Abandoned || s == Forfeited || s == Completed
}

// ParseState converts a state name back into a State.
func ParseState(name string) (State, bool) {
	for _, s := range []State{Filling, InProgress, Abandoned, Forfeited, Completed} {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// Config carries the tunables for a single game.
type Config struct {
	Scoring           ScoringConfig
	InactivityTimeout time.Duration
}

// DefaultConfig returns traditional scoring with a one-hour inactivity
// threshold, matching the reference sweep interval.
func DefaultConfig() Config {
	return Config{
		Scoring:           DefaultScoringConfig(),
		InactivityTimeout: time.Hour,
	}
}

// Result describes a terminal transition. Winners and Losers carry player
// IDs so the caller can update win/loss counters exactly once.
type Result struct {
	State   State
	NSWin   bool
	Winners []string
	Losers  []string
}

// Game is the aggregate root: four seat bindings, the hand sequence, and
// cumulative partnership scores and bags. A per-game mutex serializes all
// state transitions (single writer per game); operations on different
// games never contend.
type Game struct {
	id     string
	cfg    Config
	clock  quartz.Clock
	rng    *rand.Rand
	logger *log.Logger

	mu           sync.RWMutex
	seats        [4]string // player ID per seat, "" while empty
	state        State
	hands        []*Hand
	nsScore      int
	ewScore      int
	nsBags       int
	ewBags       int
	nsWin        *bool
	createdAt    time.Time
	lastActivity time.Time
}

// New creates an empty Filling game.
func New(id string, cfg Config, clock quartz.Clock, rng *rand.Rand, logger *log.Logger) *Game {
	now := clock.Now()
	return &Game{
		id:           id,
		cfg:          cfg,
		clock:        clock,
		rng:          rng,
		logger:       logger.WithPrefix("game").With("game", id),
		state:        Filling,
		createdAt:    now,
		lastActivity: now,
	}
}

// ID returns the game's identifier.
func (g *Game) ID() string { return g.id }

// State returns the game's lifecycle state.
func (g *Game) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// NSWin reports the terminal outcome for the North/South partnership. Only
// set once the game is Forfeited or Completed.
func (g *Game) NSWin() (bool, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.nsWin == nil {
		return false, false
	}
	return *g.nsWin, true
}

// CreatedAt returns the game's creation time.
func (g *Game) CreatedAt() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.createdAt
}

// LastActivity returns the time of the last mutating operation.
func (g *Game) LastActivity() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastActivity
}

// PlayerAt returns the player seated at the given seat, if any.
func (g *Game) PlayerAt(seat Seat) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.seats[seat] == "" {
		return "", false
	}
	return g.seats[seat], true
}

// SeatOf returns the seat a player occupies, if any.
func (g *Game) SeatOf(playerID string) (Seat, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.seatOf(playerID)
}

func (g *Game) seatOf(playerID string) (Seat, bool) {
	for _, seat := range Seats {
		if g.seats[seat] == playerID {
			return seat, true
		}
	}
	return 0, false
}

// Scores returns the cumulative partnership scores.
func (g *Game) Scores() (ns, ew int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nsScore, g.ewScore
}

// Bags returns the cumulative partnership bag counts.
func (g *Game) Bags() (ns, ew int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nsBags, g.ewBags
}

func (g *Game) currentHand() *Hand {
	if len(g.hands) == 0 {
		return nil
	}
	return g.hands[len(g.hands)-1]
}

// Join seats a player in the first empty seat. Once the fourth seat fills
// the game moves to InProgress and hand 1 is dealt with a random dealer.
func (g *Game) Join(playerID string) (Seat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Filling {
		return 0, ErrWrongPhase
	}
	if _, seated := g.seatOf(playerID); seated {
		return 0, ErrAlreadySeated
	}

	for _, seat := range Seats {
		if g.seats[seat] != "" {
			continue
		}
		g.seats[seat] = playerID
		g.touch()

		if g.full() {
			g.start()
		}
		return seat, nil
	}
	return 0, ErrGameFull
}

func (g *Game) full() bool {
	for _, id := range g.seats {
		if id == "" {
			return false
		}
	}
	return true
}

func (g *Game) start() {
	g.state = InProgress
	dealer := Seats[g.rng.IntN(len(Seats))]
	g.hands = append(g.hands, newHand(g.rng, 1, dealer))
	g.logger.Info("Game started", "dealer", dealer)
}

// SubmitBid records a bid for the seat in the current hand.
func (g *Game) SubmitBid(seat Seat, bid int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != InProgress {
		return ErrWrongPhase
	}

	if err := g.currentHand().PlaceBid(seat, bid); err != nil {
		return err
	}
	g.touch()
	g.logger.Debug("Bid placed", "seat", seat, "bid", bid)
	return nil
}

// PlayCard applies one play to the current hand. When the play completes
// the thirteenth trick the hand is scored; if a partnership has then
// crossed the winning threshold with a strict lead the game completes and
// the terminal Result is returned.
func (g *Game) PlayCard(seat Seat, card deck.Card) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != InProgress {
		return nil, ErrWrongPhase
	}

	h := g.currentHand()
	if err := h.PlayCard(seat, card); err != nil {
		return nil, err
	}
	g.touch()

	if !h.Complete() {
		return nil, nil
	}
	g.scoreHand(h)

	if winner, won := g.winner(); won {
		nsWin := winner == NorthSouth
		g.state = Completed
		g.nsWin = &nsWin
		g.logger.Info("Game completed", "winner", winner, "ns", g.nsScore, "ew", g.ewScore)
		return g.result(), nil
	}

	g.hands = append(g.hands, newHand(g.rng, h.Number+1, h.Dealer.Clockwise()))
	return nil, nil
}

// scoreHand folds a completed hand into the cumulative partnership totals.
// Scores change only here, at hand boundaries.
func (g *Game) scoreHand(h *Hand) {
	ns := scorePartnership(g.cfg.Scoring, h, NorthSouth)
	ew := scorePartnership(g.cfg.Scoring, h, EastWest)

	var penalty int
	g.nsBags, penalty = applyBags(g.cfg.Scoring, g.nsBags, ns.Bags)
	g.nsScore += ns.Points - penalty
	g.ewBags, penalty = applyBags(g.cfg.Scoring, g.ewBags, ew.Bags)
	g.ewScore += ew.Points - penalty

	h.NSBagsAtEnd = g.nsBags
	h.EWBagsAtEnd = g.ewBags
	h.NSScoreAfter = g.nsScore
	h.EWScoreAfter = g.ewScore
	h.scored = true

	g.logger.Info("Hand scored",
		"hand", h.Number,
		"nsPoints", ns.Points, "ewPoints", ew.Points,
		"nsScore", g.nsScore, "ewScore", g.ewScore,
		"nsBags", g.nsBags, "ewBags", g.ewBags)
}

// winner returns the partnership that has won, if any. Crossing the
// threshold while tied keeps the game going to another hand.
func (g *Game) winner() (Partnership, bool) {
	threshold := g.cfg.Scoring.WinThreshold
	if g.nsScore < threshold && g.ewScore < threshold {
		return 0, false
	}
	if g.nsScore == g.ewScore {
		return 0, false
	}
	if g.nsScore > g.ewScore {
		return NorthSouth, true
	}
	return EastWest, true
}

// CheckTimeout applies the inactivity rules: a stale Filling game is
// abandoned; a stale InProgress game is forfeited against the partnership
// of the seat that failed to act. Terminal games are untouched, so repeated
// sweeps never double-penalize.
func (g *Game) CheckTimeout() (*Result, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Terminal() {
		return nil, false
	}
	if g.clock.Since(g.lastActivity) < g.cfg.InactivityTimeout {
		return nil, false
	}

	if g.state == Filling {
		g.state = Abandoned
		g.logger.Info("Game abandoned")
		return &Result{State: Abandoned}, true
	}

	seat := g.stalledSeat()
	nsWin := seat.Partnership() == EastWest
	g.state = Forfeited
	g.nsWin = &nsWin
	g.logger.Info("Game forfeited", "stalledSeat", seat, "nsWin", nsWin)
	return g.result(), true
}

// stalledSeat is the seat whose action the game is waiting on: the next
// bidder while bidding (including before any bid of a fresh hand), the
// trick's lead seat while its first card is pending, and otherwise the
// first seat in play order that has not played while its predecessor has.
func (g *Game) stalledSeat() Seat {
	if seat, ok := g.currentHand().NextToAct(); ok {
		return seat
	}
	// A completed hand always rolls into a new hand or a terminal state,
	// so the wait is never on a finished hand.
	return g.currentHand().Dealer.Clockwise()
}

func (g *Game) result() *Result {
	r := &Result{State: g.state, NSWin: *g.nsWin}
	winners := NorthSouth
	if !r.NSWin {
		winners = EastWest
	}
	for _, seat := range winners.Seats() {
		r.Winners = append(r.Winners, g.seats[seat])
	}
	for _, seat := range winners.Opponent().Seats() {
		r.Losers = append(r.Losers, g.seats[seat])
	}
	return r
}

// touch refreshes the liveness signal driving timeout detection.
func (g *Game) touch() {
	g.lastActivity = g.clock.Now()
}
