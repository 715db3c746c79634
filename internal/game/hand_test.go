package game

import (
	rand "math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardtable/spades-server/internal/deck"
)

// handWithCards builds a hand with fixed holdings so plays are deterministic.
func handWithCards(t *testing.T, dealer Seat, holdings map[Seat][]string) *Hand {
	t.Helper()
	h := &Hand{Number: 1, Dealer: dealer}
	for seat, codes := range holdings {
		for _, code := range codes {
			h.cards[seat] = append(h.cards[seat], &HandCard{Card: mustCard(t, code)})
		}
	}
	return h
}

func bidAll(t *testing.T, h *Hand, bids map[Seat]int) {
	t.Helper()
	for i := 0; i < 4; i++ {
		seat, ok := h.NextBidder()
		require.True(t, ok)
		require.NoError(t, h.PlaceBid(seat, bids[seat]))
	}
}

func TestHandDealsThirteenEach(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	h := newHand(rng, 1, North)

	for _, seat := range Seats {
		assert.Len(t, h.UnplayedCards(seat), deck.HandSize)
	}
}

func TestBiddingOrderStartsLeftOfDealer(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	h := newHand(rng, 1, South)

	bidder, ok := h.NextBidder()
	require.True(t, ok)
	assert.Equal(t, West, bidder)

	require.NoError(t, h.PlaceBid(West, 3))
	bidder, ok = h.NextBidder()
	require.True(t, ok)
	assert.Equal(t, North, bidder)
}

func TestBidValidation(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	h := newHand(rng, 1, North)

	// East bids first; out-of-turn bids are rejected.
	assert.ErrorIs(t, h.PlaceBid(South, 4), ErrWrongTurn)

	assert.ErrorIs(t, h.PlaceBid(East, -1), ErrInvalidBid)
	assert.ErrorIs(t, h.PlaceBid(East, 14), ErrInvalidBid)

	require.NoError(t, h.PlaceBid(East, 4))
	bid, ok := h.Bid(East)
	require.True(t, ok)
	assert.Equal(t, 4, bid)

	// A seat may not bid twice.
	assert.ErrorIs(t, h.PlaceBid(East, 2), ErrInvalidBid)
}

func TestNilBidAccepted(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	h := newHand(rng, 1, West)

	require.NoError(t, h.PlaceBid(North, 0))
	bid, ok := h.Bid(North)
	require.True(t, ok)
	assert.Equal(t, 0, bid)
}

func TestPlayBeforeBiddingRejected(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	h := newHand(rng, 1, North)

	cards := h.UnplayedCards(East)
	err := h.PlayCard(East, cards[0])
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestFinalBidStartsFirstTrick(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	h := newHand(rng, 1, West)
	bidAll(t, h, map[Seat]int{North: 3, East: 3, South: 4, West: 3})

	trick := h.CurrentTrick()
	require.NotNil(t, trick)
	assert.Equal(t, 1, trick.Number)
	assert.Equal(t, North, trick.Lead)
}

func TestMustFollowSuit(t *testing.T) {
	h := handWithCards(t, West, map[Seat][]string{
		North: {"AH", "2C"},
		East:  {"3H", "KD"},
		South: {"4H", "5D"},
		West:  {"6H", "7D"},
	})
	bidAll(t, h, map[Seat]int{North: 1, East: 1, South: 1, West: 1})

	require.NoError(t, h.PlayCard(North, mustCard(t, "AH")))

	// East holds a heart and must play it.
	err := h.PlayCard(East, mustCard(t, "KD"))
	assert.ErrorIs(t, err, ErrIllegalPlay)
	require.NoError(t, h.PlayCard(East, mustCard(t, "3H")))
}

func TestVoidSeatMayDiscard(t *testing.T) {
	h := handWithCards(t, West, map[Seat][]string{
		North: {"AH"},
		East:  {"KD"},
		South: {"4H"},
		West:  {"6H"},
	})
	bidAll(t, h, map[Seat]int{North: 1, East: 1, South: 1, West: 1})

	require.NoError(t, h.PlayCard(North, mustCard(t, "AH")))
	require.NoError(t, h.PlayCard(East, mustCard(t, "KD")))
}

func TestSpadeLeadBlockedUntilBroken(t *testing.T) {
	h := handWithCards(t, West, map[Seat][]string{
		North: {"AS", "2H", "3C"},
		East:  {"4H", "5C", "6D"},
		South: {"7H", "8C", "9D"},
		West:  {"TH", "JC", "QD"},
	})
	bidAll(t, h, map[Seat]int{North: 1, East: 1, South: 1, West: 1})

	err := h.PlayCard(North, mustCard(t, "AS"))
	assert.ErrorIs(t, err, ErrIllegalPlay)
	assert.False(t, h.SpadesBroken())

	require.NoError(t, h.PlayCard(North, mustCard(t, "2H")))
}

func TestSpadeLeadAllowedWhenOnlySpades(t *testing.T) {
	h := handWithCards(t, West, map[Seat][]string{
		North: {"AS", "2S"},
		East:  {"4H", "5C"},
		South: {"7H", "8C"},
		West:  {"TH", "JC"},
	})
	bidAll(t, h, map[Seat]int{North: 1, East: 1, South: 1, West: 1})

	require.NoError(t, h.PlayCard(North, mustCard(t, "AS")))
	assert.True(t, h.SpadesBroken())
}

func TestDiscardedSpadeBreaksSpades(t *testing.T) {
	h := handWithCards(t, West, map[Seat][]string{
		North: {"AH", "3S"},
		East:  {"2S", "4S"},
		South: {"4H", "5D"},
		West:  {"6H", "7D"},
	})
	bidAll(t, h, map[Seat]int{North: 1, East: 1, South: 1, West: 1})

	require.NoError(t, h.PlayCard(North, mustCard(t, "AH")))
	require.NoError(t, h.PlayCard(East, mustCard(t, "2S")))
	assert.True(t, h.SpadesBroken())

	require.NoError(t, h.PlayCard(South, mustCard(t, "4H")))
	require.NoError(t, h.PlayCard(West, mustCard(t, "6H")))

	// East's spade trumped the trick; with spades broken East may lead one.
	require.NoError(t, h.PlayCard(East, mustCard(t, "4S")))
}

func TestCannotPlayUnownedOrPlayedCard(t *testing.T) {
	h := handWithCards(t, West, map[Seat][]string{
		North: {"AH", "2C"},
		East:  {"3H", "KD"},
		South: {"4H", "5D"},
		West:  {"6H", "7D"},
	})
	bidAll(t, h, map[Seat]int{North: 1, East: 1, South: 1, West: 1})

	// North does not hold the king of diamonds.
	err := h.PlayCard(North, mustCard(t, "KD"))
	assert.ErrorIs(t, err, ErrIllegalPlay)

	require.NoError(t, h.PlayCard(North, mustCard(t, "AH")))
	require.NoError(t, h.PlayCard(East, mustCard(t, "3H")))
	require.NoError(t, h.PlayCard(South, mustCard(t, "4H")))
	require.NoError(t, h.PlayCard(West, mustCard(t, "6H")))

	// North won the first trick and leads, but the ace is gone.
	err = h.PlayCard(North, mustCard(t, "AH"))
	assert.ErrorIs(t, err, ErrIllegalPlay)
}

func TestTrickWinnerLeadsNext(t *testing.T) {
	h := handWithCards(t, West, map[Seat][]string{
		North: {"2H", "2C"},
		East:  {"AH", "KD"},
		South: {"4H", "5D"},
		West:  {"6H", "7D"},
	})
	bidAll(t, h, map[Seat]int{North: 1, East: 1, South: 1, West: 1})

	require.NoError(t, h.PlayCard(North, mustCard(t, "2H")))
	require.NoError(t, h.PlayCard(East, mustCard(t, "AH")))
	require.NoError(t, h.PlayCard(South, mustCard(t, "4H")))
	require.NoError(t, h.PlayCard(West, mustCard(t, "6H")))

	assert.Equal(t, 1, h.TricksWon(East))

	next, ok := h.NextToAct()
	require.True(t, ok)
	assert.Equal(t, East, next)
	assert.Equal(t, East, h.CurrentTrick().Lead)
}

func TestFullHandCompletes(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 99))
	h := newHand(rng, 1, North)
	bidAll(t, h, map[Seat]int{North: 3, East: 3, South: 4, West: 3})

	playOut(t, h)

	assert.True(t, h.Complete())
	_, more := h.NextToAct()
	assert.False(t, more)

	total := 0
	for _, seat := range Seats {
		total += h.TricksWon(seat)
		assert.Empty(t, h.UnplayedCards(seat))
	}
	assert.Equal(t, TricksPerHand, total)
}

// playOut plays any legal card for each seat in turn until the hand is done.
func playOut(t *testing.T, h *Hand) {
	t.Helper()
	for !h.Complete() {
		seat, ok := h.NextToAct()
		require.True(t, ok)
		played := false
		for _, card := range h.UnplayedCards(seat) {
			if err := h.PlayCard(seat, card); err == nil {
				played = true
				break
			}
		}
		require.True(t, played, "seat %s had no legal play", seat)
	}
}
