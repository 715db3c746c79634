package game

import (
	"github.com/cardtable/spades-server/internal/deck"
)

// TrickState represents the progress of a single trick
type TrickState int

const (
	// TrickEmpty means no card has been played yet.
	TrickEmpty TrickState = iota
	// TrickLeading means the lead card has been placed and the lead suit
	// is fixed.
	TrickLeading
	// TrickCollecting means one to three follow cards have been placed.
	TrickCollecting
	// TrickComplete means all four cards are down and the winner is set.
	TrickComplete
)

// String returns the string representation of a trick state
func (ts TrickState) String() string {
	switch ts {
	case TrickEmpty:
		return "empty"
	case TrickLeading:
		return "leading"
	case TrickCollecting:
		return "collecting"
	case TrickComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Trick is one play sequence within a hand. The lead seat plays first and
// the remaining seats follow in clockwise order.
type Trick struct {
	Number int
	Lead   Seat

	plays  [4]*deck.Card
	placed int
	winner Seat
}

func newTrick(number int, lead Seat) *Trick {
	return &Trick{Number: number, Lead: lead}
}

// State derives the trick's lifecycle state from the number of plays.
func (t *Trick) State() TrickState {
	switch t.placed {
	case 0:
		return TrickEmpty
	case 1:
		return TrickLeading
	case 4:
		return TrickComplete
	default:
		return TrickCollecting
	}
}

// LeadSuit returns the suit fixed by the lead card. Only valid once at
// least one card has been played.
func (t *Trick) LeadSuit() (deck.Suit, bool) {
	if t.placed == 0 {
		return 0, false
	}
	return t.plays[t.Lead].Suit, true
}

// NextToPlay returns the seat whose turn it is, or false if the trick is
// complete.
func (t *Trick) NextToPlay() (Seat, bool) {
	if t.placed >= 4 {
		return 0, false
	}
	seat := t.Lead
	for i := 0; i < t.placed; i++ {
		seat = seat.Clockwise()
	}
	return seat, true
}

// Play records a card for the acting seat. Turn order is the only check
// performed here; card ownership and suit legality are the hand's concern.
func (t *Trick) play(seat Seat, card deck.Card) error {
	next, ok := t.NextToPlay()
	if !ok {
		return ErrWrongPhase
	}
	if seat != next {
		return ErrWrongTurn
	}

	c := card
	t.plays[seat] = &c
	t.placed++

	if t.placed == 4 {
		t.winner = t.resolve()
	}
	return nil
}

// PlayBySeat returns the card the seat has played in this trick, if any.
func (t *Trick) PlayBySeat(seat Seat) (deck.Card, bool) {
	if t.plays[seat] == nil {
		return deck.Card{}, false
	}
	return *t.plays[seat], true
}

// Winner returns the seat that won the trick. Only valid once the trick is
// complete.
func (t *Trick) Winner() (Seat, bool) {
	if t.State() != TrickComplete {
		return 0, false
	}
	return t.winner, true
}

// resolve walks the four plays in play order, keeping the current best
// card under the lead-suit/spade-trump ordering.
func (t *Trick) resolve() Seat {
	lead, _ := t.LeadSuit()
	best := t.Lead
	seat := t.Lead
	for i := 1; i < 4; i++ {
		seat = seat.Clockwise()
		if deck.Beats(*t.plays[seat], *t.plays[best], lead) {
			best = seat
		}
	}
	return best
}
