package deck

import (
	rand "math/rand/v2"
)

// HandSize is the number of cards dealt to each seat.
const HandSize = 13

// NumSeats is the number of seats a deal partitions the deck across.
const NumSeats = 4

// Deck represents a deck of playing cards
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New creates a full 52-card deck that shuffles with the provided RNG.
func New(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}

	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}

	return d
}

// Shuffle randomizes the order of cards in the deck
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Deal removes and returns the top n cards from the deck.
func (d *Deck) Deal(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}

	cards := make([]Card, n)
	copy(cards, d.cards[:n])
	d.cards = d.cards[n:]
	return cards
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// ShuffleAndDeal shuffles a fresh deck and partitions it into four 13-card
// allotments. The four slices are pairwise disjoint and together cover the
// full deck; the partition carries no seat bias beyond the RNG itself.
func ShuffleAndDeal(rng *rand.Rand) [NumSeats][]Card {
	d := New(rng)
	d.Shuffle()

	var hands [NumSeats][]Card
	for i := range hands {
		hands[i] = d.Deal(HandSize)
	}
	return hands
}
