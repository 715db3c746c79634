package game

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardtable/spades-server/internal/deck"
	"github.com/cardtable/spades-server/internal/store"
)

// Snapshot serializes the full game state into the persisted record form.
// The snapshot is taken under the game lock, so it is always consistent.
func (g *Game) Snapshot() *store.GameRecord {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec := &store.GameRecord{
		GameID:       g.id,
		Seats:        make(map[string]string),
		State:        g.state.String(),
		NSWin:        g.nsWin,
		NSScore:      g.nsScore,
		EWScore:      g.ewScore,
		NSBags:       g.nsBags,
		EWBags:       g.ewBags,
		CreatedAt:    g.createdAt,
		LastActivity: g.lastActivity,
	}
	for _, seat := range Seats {
		if g.seats[seat] != "" {
			rec.Seats[seat.String()] = g.seats[seat]
		}
	}

	for _, h := range g.hands {
		rec.Hands = append(rec.Hands, snapshotHand(h))
	}
	return rec
}

func snapshotHand(h *Hand) store.HandRecord {
	hr := store.HandRecord{
		Number:       h.Number,
		Dealer:       h.Dealer.String(),
		Bids:         make(map[string]*int),
		SpadesBroken: h.spadesBroken,
		Scored:       h.scored,
		NSBagsAtEnd:  h.NSBagsAtEnd,
		EWBagsAtEnd:  h.EWBagsAtEnd,
		NSScoreAfter: h.NSScoreAfter,
		EWScoreAfter: h.EWScoreAfter,
	}
	for _, seat := range Seats {
		hr.Bids[seat.String()] = h.bids[seat]
		for _, hc := range h.cards[seat] {
			hr.Cards = append(hr.Cards, store.HandCardRecord{
				Seat:   seat.String(),
				Card:   hc.Card.Code(),
				Played: hc.Played,
			})
		}
	}

	for _, t := range h.tricks {
		tr := store.TrickRecord{
			Number: t.Number,
			Lead:   t.Lead.String(),
			Plays:  make(map[string]string),
		}
		for _, seat := range Seats {
			if card, ok := t.PlayBySeat(seat); ok {
				tr.Plays[seat.String()] = card.Code()
			}
		}
		if winner, ok := t.Winner(); ok {
			tr.Winner = winner.String()
		}
		hr.Tricks = append(hr.Tricks, tr)
	}
	return hr
}

// Restore rebuilds an in-memory game from a persisted record, e.g. when
// resuming live games after a restart.
func Restore(rec *store.GameRecord, cfg Config, clock quartz.Clock, rng *rand.Rand, logger *log.Logger) (*Game, error) {
	state, ok := ParseState(rec.State)
	if !ok {
		return nil, fmt.Errorf("restore game %s: unknown state %q", rec.GameID, rec.State)
	}

	g := New(rec.GameID, cfg, clock, rng, logger)
	g.state = state
	g.nsWin = rec.NSWin
	g.nsScore = rec.NSScore
	g.ewScore = rec.EWScore
	g.nsBags = rec.NSBags
	g.ewBags = rec.EWBags
	g.createdAt = rec.CreatedAt
	g.lastActivity = rec.LastActivity

	for name, playerID := range rec.Seats {
		seat, err := ParseSeat(name)
		if err != nil {
			return nil, fmt.Errorf("restore game %s: %w", rec.GameID, err)
		}
		g.seats[seat] = playerID
	}

	for _, hr := range rec.Hands {
		h, err := restoreHand(hr)
		if err != nil {
			return nil, fmt.Errorf("restore game %s hand %d: %w", rec.GameID, hr.Number, err)
		}
		g.hands = append(g.hands, h)
	}
	return g, nil
}

func restoreHand(hr store.HandRecord) (*Hand, error) {
	dealer, err := ParseSeat(hr.Dealer)
	if err != nil {
		return nil, err
	}

	h := &Hand{
		Number:       hr.Number,
		Dealer:       dealer,
		spadesBroken: hr.SpadesBroken,
		NSBagsAtEnd:  hr.NSBagsAtEnd,
		EWBagsAtEnd:  hr.EWBagsAtEnd,
		NSScoreAfter: hr.NSScoreAfter,
		EWScoreAfter: hr.EWScoreAfter,
	}

	for _, cr := range hr.Cards {
		seat, err := ParseSeat(cr.Seat)
		if err != nil {
			return nil, err
		}
		card, err := deck.Parse(cr.Card)
		if err != nil {
			return nil, err
		}
		h.cards[seat] = append(h.cards[seat], &HandCard{Card: card, Played: cr.Played})
	}

	for name, bid := range hr.Bids {
		if bid == nil {
			continue
		}
		seat, err := ParseSeat(name)
		if err != nil {
			return nil, err
		}
		b := *bid
		h.bids[seat] = &b
	}

	for _, tr := range hr.Tricks {
		lead, err := ParseSeat(tr.Lead)
		if err != nil {
			return nil, err
		}
		t := newTrick(tr.Number, lead)
		// Replay in play order so turn bookkeeping and the winner come out
		// exactly as they were. Plays are contiguous from the lead seat.
		seat := lead
		for i := 0; i < 4; i++ {
			code, ok := tr.Plays[seat.String()]
			if !ok {
				break
			}
			card, err := deck.Parse(code)
			if err != nil {
				return nil, err
			}
			if err := t.play(seat, card); err != nil {
				return nil, err
			}
			seat = seat.Clockwise()
		}
		if winner, ok := t.Winner(); ok {
			h.tricksWon[winner]++
		}
		h.tricks = append(h.tricks, t)
	}

	h.scored = hr.Scored
	return h, nil
}
