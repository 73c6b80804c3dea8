package game

// Deal draws n response cards into a player's hand. Drawn cards are never held
// anywhere else in the room. The hand is left untouched when the pool cannot
// cover the whole draw.
func (r *Room) Deal(playerID string, n int) error {
	p := r.player(playerID)
	if p == nil {
		return ErrNotOnRoster
	}
	if n < 0 {
		return ErrInvalidInput
	}
	return r.deal(p, n)
}

func (r *Room) deal(p *Player, n int) error {
	if n == 0 {
		return nil
	}
	ids, err := r.st.Pool.draw(n, r.rng)
	if err != nil {
		return err
	}
	p.Hand = append(p.Hand, ids...)
	r.emitHand(p)
	return nil
}

// topUp fills every given hand to the target size, or deals nothing at all
// when the pool cannot meet the combined demand.
func (r *Room) topUp(players []*Player) error {
	demand := 0
	for _, p := range players {
		if missing := r.rules.HandSize - len(p.Hand); missing > 0 {
			demand += missing
		}
	}
	if demand > r.st.Pool.available() {
		return ErrPoolExhausted
	}
	for _, p := range players {
		if missing := r.rules.HandSize - len(p.Hand); missing > 0 {
			if err := r.deal(p, missing); err != nil {
				return err
			}
		}
	}
	return nil
}

// settle hands a withdrawn submission back to its author, up to the hand
// target; whatever does not fit goes to the discard pile.
func (r *Room) settle(sub *Submission) {
	p := r.player(sub.PlayerID)
	if p == nil {
		r.st.Pool.discard(sub.Cards...)
		sub.Cards = nil
		return
	}
	room := r.rules.HandSize - len(p.Hand)
	if room < 0 {
		room = 0
	}
	if room > len(sub.Cards) {
		room = len(sub.Cards)
	}
	if room > 0 {
		p.Hand = append(p.Hand, sub.Cards[:room]...)
		r.emitHand(p)
	}
	r.st.Pool.discard(sub.Cards[room:]...)
	sub.Cards = nil
}
