package game

// TrickPlay is one card already placed in the current trick.
type TrickPlay struct {
	Seat Seat   `json:"seat"`
	Card string `json:"card"`
}

// View is the per-seat snapshot the session layer serves. It carries the
// viewing seat's own unplayed cards and never another seat's.
type View struct {
	GameID string `json:"gameId"`
	State  string `json:"state"`
	Seat   Seat   `json:"seat"`

	Players map[string]string `json:"players"` // seat name -> player ID

	HandNumber   int             `json:"handNumber,omitempty"`
	Dealer       *Seat           `json:"dealer,omitempty"`
	Bids         map[string]*int `json:"bids,omitempty"`
	OwnCards     []string        `json:"ownCards,omitempty"`
	SpadesBroken bool            `json:"spadesBroken"`

	TrickNumber int         `json:"trickNumber,omitempty"`
	TrickLead   *Seat       `json:"trickLead,omitempty"`
	LeadSuit    string      `json:"leadSuit,omitempty"`
	TrickPlays  []TrickPlay `json:"trickPlays,omitempty"`

	NSScore int `json:"nsScore"`
	EWScore int `json:"ewScore"`
	NSBags  int `json:"nsBags"`
	EWBags  int `json:"ewBags"`

	NextToAct *Seat `json:"nextToAct,omitempty"`
	NSWin     *bool `json:"nsWin,omitempty"`
}

// View builds the seat-restricted snapshot of the game. Concurrent with a
// pending write it either observes the state before or after that write,
// never a partial one.
func (g *Game) View(seat Seat) View {
	g.mu.RLock()
	defer g.mu.RUnlock()

	v := View{
		GameID:  g.id,
		State:   g.state.String(),
		Seat:    seat,
		Players: make(map[string]string),
		NSScore: g.nsScore,
		EWScore: g.ewScore,
		NSBags:  g.nsBags,
		EWBags:  g.ewBags,
		NSWin:   g.nsWin,
	}
	for _, s := range Seats {
		if g.seats[s] != "" {
			v.Players[s.String()] = g.seats[s]
		}
	}

	h := g.currentHand()
	if h == nil {
		return v
	}

	v.HandNumber = h.Number
	dealer := h.Dealer
	v.Dealer = &dealer
	v.SpadesBroken = h.SpadesBroken()

	v.Bids = make(map[string]*int)
	for _, s := range Seats {
		if bid, ok := h.Bid(s); ok {
			b := bid
			v.Bids[s.String()] = &b
		} else {
			v.Bids[s.String()] = nil
		}
	}

	for _, c := range h.UnplayedCards(seat) {
		v.OwnCards = append(v.OwnCards, c.Code())
	}

	if trick := h.CurrentTrick(); trick != nil {
		v.TrickNumber = trick.Number
		lead := trick.Lead
		v.TrickLead = &lead
		if suit, ok := trick.LeadSuit(); ok {
			v.LeadSuit = suit.Code()
		}
		s := trick.Lead
		for i := 0; i < 4; i++ {
			if card, ok := trick.PlayBySeat(s); ok {
				v.TrickPlays = append(v.TrickPlays, TrickPlay{Seat: s, Card: card.Code()})
			}
			s = s.Clockwise()
		}
	}

	if g.state == InProgress {
		if next, ok := h.NextToAct(); ok {
			n := next
			v.NextToAct = &n
		}
	}
	return v
}
