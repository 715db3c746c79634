package game

// ScoringConfig exposes the point values house rules vary. Bag accounting
// (penalty and reset every BagLimit bags) and bid-fulfillment logic are
// structural and not configurable away.
type ScoringConfig struct {
	TrickValue   int // points per bid trick when the bid is met
	BagValue     int // points per overtrick
	NilBonus     int // points for a fulfilled nil bid
	NilPenalty   int // points lost for a failed nil bid
	BagPenalty   int // points lost each time accumulated bags reach BagLimit
	BagLimit     int // accumulated bags that trigger the penalty
	WinThreshold int // cumulative score that ends the game
}

// DefaultScoringConfig returns traditional scoring: 10 a trick, 1 a bag,
// 100-point nil swing, 100-point penalty per 10 bags, game to 500.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		TrickValue:   10,
		BagValue:     1,
		NilBonus:     100,
		NilPenalty:   100,
		BagPenalty:   100,
		BagLimit:     10,
		WinThreshold: 500,
	}
}

// handScore is one partnership's outcome for a single hand.
type handScore struct {
	Points int
	Bags   int
}

// scorePartnership tallies one partnership's hand. The partnership bid is
// the sum of its non-nil bids; meeting it scores TrickValue per bid trick
// plus BagValue per overtrick, missing it loses TrickValue per bid trick.
// Nil bids are judged per seat on that seat's own trick count, while the
// nil seat's tricks still count toward the partnership total.
func scorePartnership(cfg ScoringConfig, h *Hand, p Partnership) handScore {
	var score handScore

	bid := 0
	tricks := 0
	for _, seat := range p.Seats() {
		b, ok := h.Bid(seat)
		if !ok {
			continue
		}
		tricks += h.TricksWon(seat)
		if b == 0 {
			if h.TricksWon(seat) == 0 {
				score.Points += cfg.NilBonus
			} else {
				score.Points -= cfg.NilPenalty
			}
			continue
		}
		bid += b
	}

	if bid > 0 {
		if tricks >= bid {
			score.Points += bid * cfg.TrickValue
			score.Bags = tricks - bid
			score.Points += score.Bags * cfg.BagValue
		} else {
			score.Points -= bid * cfg.TrickValue
		}
	} else {
		// Double-nil partnerships bag every trick they take.
		score.Bags = tricks
		score.Points += score.Bags * cfg.BagValue
	}

	return score
}

// applyBags folds a hand's bags into the cumulative bag count, charging the
// penalty and carrying the remainder each time the count reaches the limit.
func applyBags(cfg ScoringConfig, bags, newBags int) (totalBags, penalty int) {
	totalBags = bags + newBags
	for totalBags >= cfg.BagLimit {
		totalBags -= cfg.BagLimit
		penalty += cfg.BagPenalty
	}
	return totalBags, penalty
}
