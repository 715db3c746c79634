package game

import (
	"io"
	rand "math/rand/v2"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestGame(t *testing.T, cfg Config) (*Game, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	rng := rand.New(rand.NewPCG(17, 23))
	return New("g1", cfg, clock, rng, testLogger()), clock
}

func seatAll(t *testing.T, g *Game) map[Seat]string {
	t.Helper()
	players := map[Seat]string{}
	for i, id := range []string{"alice", "bob", "carol", "dave"} {
		seat, err := g.Join(id)
		require.NoError(t, err)
		assert.Equal(t, Seats[i], seat)
		players[seat] = id
	}
	return players
}

// bidCurrentHand places the given bid for every seat in bidding order.
func bidCurrentHand(t *testing.T, g *Game, bid int) {
	t.Helper()
	h := g.currentHand()
	for i := 0; i < 4; i++ {
		seat, ok := h.NextBidder()
		require.True(t, ok)
		require.NoError(t, g.SubmitBid(seat, bid))
	}
}

// playCurrentHand plays any legal card for the acting seat until the hand
// completes or the game ends.
func playCurrentHand(t *testing.T, g *Game) *Result {
	t.Helper()
	h := g.currentHand()
	for !h.Complete() {
		seat, ok := h.NextToAct()
		require.True(t, ok)
		played := false
		for _, card := range h.UnplayedCards(seat) {
			result, err := g.PlayCard(seat, card)
			if err != nil {
				continue
			}
			played = true
			if result != nil {
				return result
			}
			break
		}
		require.True(t, played, "seat %s had no legal play", seat)
	}
	return nil
}

func TestJoinFillsSeatsInOrder(t *testing.T) {
	g, _ := newTestGame(t, DefaultConfig())
	assert.Equal(t, Filling, g.State())

	seatAll(t, g)
	assert.Equal(t, InProgress, g.State())

	h := g.currentHand()
	require.NotNil(t, h)
	assert.Equal(t, 1, h.Number)
}

func TestJoinRejectsDuplicateAndLatePlayers(t *testing.T) {
	g, _ := newTestGame(t, DefaultConfig())

	_, err := g.Join("alice")
	require.NoError(t, err)
	_, err = g.Join("alice")
	assert.ErrorIs(t, err, ErrAlreadySeated)

	_, err = g.Join("bob")
	require.NoError(t, err)
	_, err = g.Join("carol")
	require.NoError(t, err)
	_, err = g.Join("dave")
	require.NoError(t, err)

	// The table is full and playing; a fifth player cannot join.
	_, err = g.Join("eve")
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestBidBeforeStartRejected(t *testing.T) {
	g, _ := newTestGame(t, DefaultConfig())
	_, err := g.Join("alice")
	require.NoError(t, err)

	err = g.SubmitBid(North, 3)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestHandBoundaryScoresAndRedeals(t *testing.T) {
	g, _ := newTestGame(t, DefaultConfig())
	seatAll(t, g)

	firstDealer := g.currentHand().Dealer
	bidCurrentHand(t, g, 3)

	// Nothing scores until the hand finishes.
	ns0, ew0 := g.Scores()
	assert.Zero(t, ns0)
	assert.Zero(t, ew0)

	result := playCurrentHand(t, g)
	require.Nil(t, result)

	ns, ew := g.Scores()
	assert.NotEqual(t, 0, ns+ew, "at least one partnership scores a 3 bid")

	h := g.currentHand()
	assert.Equal(t, 2, h.Number)
	assert.Equal(t, firstDealer.Clockwise(), h.Dealer)
	assert.Equal(t, InProgress, g.State())
}

func TestGamePlaysToCompletion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scoring.WinThreshold = 100
	g, _ := newTestGame(t, cfg)
	players := seatAll(t, g)

	var result *Result
	for i := 0; i < 50 && result == nil; i++ {
		bidCurrentHand(t, g, 3)
		result = playCurrentHand(t, g)
	}

	require.NotNil(t, result, "game should finish within 50 hands")
	assert.Equal(t, Completed, result.State)
	assert.Equal(t, Completed, g.State())

	nsWin, ok := g.NSWin()
	require.True(t, ok)
	assert.Equal(t, result.NSWin, nsWin)

	winners := NorthSouth
	if !result.NSWin {
		winners = EastWest
	}
	for _, seat := range winners.Seats() {
		assert.Contains(t, result.Winners, players[seat])
	}
	for _, seat := range winners.Opponent().Seats() {
		assert.Contains(t, result.Losers, players[seat])
	}

	// The winner leads strictly at or past the threshold.
	ns, ew := g.Scores()
	if result.NSWin {
		assert.GreaterOrEqual(t, ns, cfg.Scoring.WinThreshold)
		assert.Greater(t, ns, ew)
	} else {
		assert.GreaterOrEqual(t, ew, cfg.Scoring.WinThreshold)
		assert.Greater(t, ew, ns)
	}

	// Terminal games reject further play.
	seat, _ := g.currentHand().NextToAct()
	_, err := g.PlayCard(seat, mustCard(t, "2C"))
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestTimeoutAbandonsFillingGame(t *testing.T) {
	g, clock := newTestGame(t, DefaultConfig())
	_, err := g.Join("alice")
	require.NoError(t, err)

	// Not stale yet.
	_, timedOut := g.CheckTimeout()
	assert.False(t, timedOut)

	clock.Advance(time.Hour)
	result, timedOut := g.CheckTimeout()
	require.True(t, timedOut)
	assert.Equal(t, Abandoned, result.State)
	assert.Equal(t, Abandoned, g.State())
	assert.Empty(t, result.Winners)

	// A second sweep is a no-op.
	_, timedOut = g.CheckTimeout()
	assert.False(t, timedOut)
}

func TestTimeoutForfeitsStalledPartnership(t *testing.T) {
	g, clock := newTestGame(t, DefaultConfig())
	players := seatAll(t, g)

	// Two bids come in, then the third bidder goes quiet.
	h := g.currentHand()
	first, _ := h.NextBidder()
	require.NoError(t, g.SubmitBid(first, 3))
	second, _ := h.NextBidder()
	require.NoError(t, g.SubmitBid(second, 3))
	stalled, _ := h.NextBidder()

	clock.Advance(time.Hour)
	result, timedOut := g.CheckTimeout()
	require.True(t, timedOut)
	assert.Equal(t, Forfeited, result.State)
	assert.Equal(t, Forfeited, g.State())

	// The stalled seat's partnership loses.
	for _, seat := range stalled.Partnership().Seats() {
		assert.Contains(t, result.Losers, players[seat])
	}
	for _, seat := range stalled.Partnership().Opponent().Seats() {
		assert.Contains(t, result.Winners, players[seat])
	}

	_, timedOut = g.CheckTimeout()
	assert.False(t, timedOut)
}

func TestTimeoutForfeitsMidTrick(t *testing.T) {
	g, clock := newTestGame(t, DefaultConfig())
	players := seatAll(t, g)
	bidCurrentHand(t, g, 3)

	// Two seats play into the first trick, then the third stops responding.
	h := g.currentHand()
	for i := 0; i < 2; i++ {
		seat, ok := h.NextToAct()
		require.True(t, ok)
		played := false
		for _, card := range h.UnplayedCards(seat) {
			if _, err := g.PlayCard(seat, card); err == nil {
				played = true
				break
			}
		}
		require.True(t, played)
	}
	stalled, ok := h.NextToAct()
	require.True(t, ok)

	clock.Advance(time.Hour)
	result, timedOut := g.CheckTimeout()
	require.True(t, timedOut)
	assert.Equal(t, Forfeited, result.State)
	for _, seat := range stalled.Partnership().Seats() {
		assert.Contains(t, result.Losers, players[seat])
	}
	for _, seat := range stalled.Partnership().Opponent().Seats() {
		assert.Contains(t, result.Winners, players[seat])
	}
}

func TestActivityDefersTimeout(t *testing.T) {
	g, clock := newTestGame(t, DefaultConfig())
	seatAll(t, g)

	clock.Advance(59 * time.Minute)
	seat, _ := g.currentHand().NextBidder()
	require.NoError(t, g.SubmitBid(seat, 3))

	clock.Advance(59 * time.Minute)
	_, timedOut := g.CheckTimeout()
	assert.False(t, timedOut)
}

func TestViewHidesOtherHands(t *testing.T) {
	g, _ := newTestGame(t, DefaultConfig())
	seatAll(t, g)

	view := g.View(North)
	assert.Len(t, view.OwnCards, 13)
	assert.Equal(t, North, view.Seat)
	assert.Len(t, view.Players, 4)

	// The view carries only the viewer's cards; the other 39 never appear.
	all := map[string]bool{}
	for _, code := range view.OwnCards {
		all[code] = true
	}
	for _, other := range []Seat{East, South, West} {
		for _, code := range g.View(other).OwnCards {
			assert.False(t, all[code], "card %s visible from two seats", code)
		}
	}
}

func TestViewTracksTrickProgress(t *testing.T) {
	g, _ := newTestGame(t, DefaultConfig())
	seatAll(t, g)
	bidCurrentHand(t, g, 3)

	h := g.currentHand()
	seat, _ := h.NextToAct()
	var played string
	for _, card := range h.UnplayedCards(seat) {
		if _, err := g.PlayCard(seat, card); err == nil {
			played = card.Code()
			break
		}
	}
	require.NotEmpty(t, played)

	view := g.View(seat)
	require.Len(t, view.TrickPlays, 1)
	assert.Equal(t, seat, view.TrickPlays[0].Seat)
	assert.Equal(t, played, view.TrickPlays[0].Card)
	require.NotNil(t, view.NextToAct)
	assert.Equal(t, seat.Clockwise(), *view.NextToAct)
	assert.Len(t, view.OwnCards, 12)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	g, clock := newTestGame(t, DefaultConfig())
	seatAll(t, g)
	bidCurrentHand(t, g, 3)

	// Play a trick and a half so a resolved trick and a pending one are
	// both in the snapshot.
	h := g.currentHand()
	for i := 0; i < 6; i++ {
		seat, ok := h.NextToAct()
		require.True(t, ok)
		for _, card := range h.UnplayedCards(seat) {
			if _, err := g.PlayCard(seat, card); err == nil {
				break
			}
		}
	}

	rec := g.Snapshot()
	restored, err := Restore(rec, DefaultConfig(), clock, rand.New(rand.NewPCG(1, 1)), testLogger())
	require.NoError(t, err)

	assert.Equal(t, g.ID(), restored.ID())
	assert.Equal(t, g.State(), restored.State())
	assert.Equal(t, g.LastActivity(), restored.LastActivity())

	for _, seat := range Seats {
		want := g.View(seat)
		got := restored.View(seat)
		assert.Equal(t, want, got, "seat %s view diverged", seat)
	}

	// The restored game keeps playing from where it left off.
	rh := restored.currentHand()
	seat, ok := rh.NextToAct()
	require.True(t, ok)
	origSeat, _ := g.currentHand().NextToAct()
	assert.Equal(t, origSeat, seat)

	played := false
	for _, card := range rh.UnplayedCards(seat) {
		if _, err := restored.PlayCard(seat, card); err == nil {
			played = true
			break
		}
	}
	assert.True(t, played)
}

func TestSnapshotRestoreTerminalGame(t *testing.T) {
	g, clock := newTestGame(t, DefaultConfig())
	seatAll(t, g)
	clock.Advance(2 * time.Hour)
	_, timedOut := g.CheckTimeout()
	require.True(t, timedOut)

	rec := g.Snapshot()
	restored, err := Restore(rec, DefaultConfig(), clock, rand.New(rand.NewPCG(2, 2)), testLogger())
	require.NoError(t, err)

	assert.Equal(t, Forfeited, restored.State())
	nsWin, ok := restored.NSWin()
	require.True(t, ok)
	origWin, _ := g.NSWin()
	assert.Equal(t, origWin, nsWin)
}
