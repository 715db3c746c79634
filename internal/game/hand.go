package game

import (
	rand "math/rand/v2"

	"github.com/cardtable/spades-server/internal/deck"
)

// TricksPerHand is the number of tricks in a full hand.
const TricksPerHand = 13

// MaxBid is the highest legal bid; 0 is a nil bid.
const MaxBid = 13

// HandCard is the ownership record for one dealt card. A card flips to
// played exactly once and never reverts.
type HandCard struct {
	Card   deck.Card
	Played bool
}

// Hand is one round within a game: a deal, four bids, and thirteen tricks.
type Hand struct {
	Number int
	Dealer Seat

	cards        [4][]*HandCard
	bids         [4]*int
	spadesBroken bool
	tricks       []*Trick
	tricksWon    [4]int

	// Cumulative partnership totals recorded when the hand is scored.
	NSBagsAtEnd  int
	EWBagsAtEnd  int
	NSScoreAfter int
	EWScoreAfter int
	scored       bool
}

// newHand deals a fresh hand. The first bidder and first trick lead is the
// seat clockwise of the dealer.
func newHand(rng *rand.Rand, number int, dealer Seat) *Hand {
	h := &Hand{Number: number, Dealer: dealer}

	dealt := deck.ShuffleAndDeal(rng)
	for i, seat := range Seats {
		h.cards[seat] = make([]*HandCard, 0, deck.HandSize)
		for _, c := range dealt[i] {
			h.cards[seat] = append(h.cards[seat], &HandCard{Card: c})
		}
	}
	return h
}

// NextBidder returns the seat due to bid, or false once all four bids are
// in. Bidding runs clockwise starting from the seat after the dealer.
func (h *Hand) NextBidder() (Seat, bool) {
	seat := h.Dealer.Clockwise()
	for i := 0; i < 4; i++ {
		if h.bids[seat] == nil {
			return seat, true
		}
		seat = seat.Clockwise()
	}
	return 0, false
}

// BiddingComplete reports whether all four seats have bid. This is the
// precondition for the first trick.
func (h *Hand) BiddingComplete() bool {
	_, more := h.NextBidder()
	return !more
}

// PlaceBid records a bid for the seat. Bids run in seat order; a seat may
// not bid twice and a bid must be 0 (nil) through 13.
func (h *Hand) PlaceBid(seat Seat, bid int) error {
	if h.BiddingComplete() {
		return ErrWrongPhase
	}
	if bid < 0 || bid > MaxBid {
		return ErrInvalidBid
	}
	if h.bids[seat] != nil {
		return ErrInvalidBid
	}
	next, _ := h.NextBidder()
	if seat != next {
		return ErrWrongTurn
	}

	b := bid
	h.bids[seat] = &b

	if h.BiddingComplete() {
		h.startTrick(h.Dealer.Clockwise())
	}
	return nil
}

// Bid returns the seat's bid, or false if it has not been submitted.
func (h *Hand) Bid(seat Seat) (int, bool) {
	if h.bids[seat] == nil {
		return 0, false
	}
	return *h.bids[seat], true
}

// SpadesBroken reports whether a spade has been played this hand.
func (h *Hand) SpadesBroken() bool {
	return h.spadesBroken
}

// CurrentTrick returns the most recent trick, or nil during bidding.
func (h *Hand) CurrentTrick() *Trick {
	if len(h.tricks) == 0 {
		return nil
	}
	return h.tricks[len(h.tricks)-1]
}

// TricksWon returns how many tricks the seat has taken this hand.
func (h *Hand) TricksWon(seat Seat) int {
	return h.tricksWon[seat]
}

// Complete reports whether all thirteen tricks have been resolved.
func (h *Hand) Complete() bool {
	return len(h.tricks) == TricksPerHand && h.CurrentTrick().State() == TrickComplete
}

// UnplayedCards returns the seat's remaining cards.
func (h *Hand) UnplayedCards(seat Seat) []deck.Card {
	var cards []deck.Card
	for _, hc := range h.cards[seat] {
		if !hc.Played {
			cards = append(cards, hc.Card)
		}
	}
	return cards
}

// PlayCard validates and applies one play to the current trick. On the
// fourth play the trick resolves and the winner leads the next trick, until
// the thirteenth trick ends the hand. Validation failures leave all state
// untouched.
func (h *Hand) PlayCard(seat Seat, card deck.Card) error {
	if !h.BiddingComplete() || h.Complete() {
		return ErrWrongPhase
	}

	trick := h.CurrentTrick()
	next, ok := trick.NextToPlay()
	if !ok {
		return ErrWrongPhase
	}
	if seat != next {
		return ErrWrongTurn
	}

	hc := h.findUnplayed(seat, card)
	if hc == nil {
		return ErrIllegalPlay
	}
	if err := h.checkSuitLegality(seat, card, trick); err != nil {
		return err
	}

	if err := trick.play(seat, card); err != nil {
		return err
	}
	hc.Played = true
	if card.Suit == deck.Spades {
		h.spadesBroken = true
	}

	if winner, done := trick.Winner(); done {
		h.tricksWon[winner]++
		if len(h.tricks) < TricksPerHand {
			h.startTrick(winner)
		}
	}
	return nil
}

// checkSuitLegality enforces follow-suit and spade-breaking rules for a
// prospective play.
func (h *Hand) checkSuitLegality(seat Seat, card deck.Card, trick *Trick) error {
	lead, led := trick.LeadSuit()
	if !led {
		// Leading: spades may not be led until broken, unless the seat
		// holds nothing else.
		if card.Suit == deck.Spades && !h.spadesBroken && !h.holdsOnlySpades(seat) {
			return ErrIllegalPlay
		}
		return nil
	}

	if card.Suit != lead && h.holdsSuit(seat, lead) {
		return ErrIllegalPlay
	}
	return nil
}

func (h *Hand) findUnplayed(seat Seat, card deck.Card) *HandCard {
	for _, hc := range h.cards[seat] {
		if hc.Card == card && !hc.Played {
			return hc
		}
	}
	return nil
}

func (h *Hand) holdsSuit(seat Seat, suit deck.Suit) bool {
	for _, hc := range h.cards[seat] {
		if !hc.Played && hc.Card.Suit == suit {
			return true
		}
	}
	return false
}

func (h *Hand) holdsOnlySpades(seat Seat) bool {
	for _, hc := range h.cards[seat] {
		if !hc.Played && hc.Card.Suit != deck.Spades {
			return false
		}
	}
	return true
}

func (h *Hand) startTrick(lead Seat) {
	h.tricks = append(h.tricks, newTrick(len(h.tricks)+1, lead))
}

// NextToAct returns the seat due to bid or play, or false once the hand is
// complete.
func (h *Hand) NextToAct() (Seat, bool) {
	if bidder, ok := h.NextBidder(); ok {
		return bidder, true
	}
	if trick := h.CurrentTrick(); trick != nil {
		if seat, ok := trick.NextToPlay(); ok {
			return seat, true
		}
	}
	return 0, false
}
