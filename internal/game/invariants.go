package game

import "fmt"

// CheckInvariants verifies the structural rules the engine maintains after
// every operation. It is used by tests and by recovery before a restored room
// is put back into service.
func (r *Room) CheckInvariants() error {
	seen := make(map[string]string, len(r.st.Pool.Responses))
	place := func(id, where string) error {
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("card %s is in %s and %s", id, prev, where)
		}
		if _, ok := r.st.Pool.Responses[id]; !ok {
			return fmt.Errorf("card %s in %s is not in the catalog", id, where)
		}
		seen[id] = where
		return nil
	}

	joinSeq := -1
	for _, p := range r.st.Players {
		if p.JoinSeq <= joinSeq {
			return fmt.Errorf("player %s breaks join order", p.ID)
		}
		joinSeq = p.JoinSeq
		if len(p.Hand) > r.rules.HandSize {
			return fmt.Errorf("player %s holds %d cards", p.ID, len(p.Hand))
		}
		for _, id := range p.Hand {
			if err := place(id, "hand of "+p.ID); err != nil {
				return err
			}
		}
	}

	if round := r.st.Round; round != nil {
		if round.Phase != PhaseCompleted && r.player(round.JudgeID) == nil {
			return fmt.Errorf("judge %s of round %s is not on the roster", round.JudgeID, round.ID)
		}
		for _, sub := range round.Submissions {
			if sub.PlayerID == round.JudgeID {
				return fmt.Errorf("judge %s authored submission %s", sub.PlayerID, sub.ID)
			}
			if len(sub.Cards) > round.PickCount {
				return fmt.Errorf("submission %s has %d cards, pick is %d", sub.ID, len(sub.Cards), round.PickCount)
			}
			if round.Phase != PhasePicking && len(sub.Cards) != round.PickCount {
				return fmt.Errorf("submission %s judged with %d of %d cards", sub.ID, len(sub.Cards), round.PickCount)
			}
			// Completed rounds keep their cards only as a record.
			if round.Phase == PhaseCompleted {
				continue
			}
			for _, id := range sub.Cards {
				if err := place(id, "submission "+sub.ID); err != nil {
					return err
				}
			}
		}
	}

	for _, pile := range []struct {
		name string
		ids  []string
	}{
		{"draw pile", r.st.Pool.Draw},
		{"discard pile", r.st.Pool.Discard},
		{"retired pile", r.st.Pool.Retired},
	} {
		for _, id := range pile.ids {
			if err := place(id, pile.name); err != nil {
				return err
			}
		}
	}
	if len(seen) != len(r.st.Pool.Responses) {
		return fmt.Errorf("%d of %d response cards are unaccounted for", len(r.st.Pool.Responses)-len(seen), len(r.st.Pool.Responses))
	}
	if r.st.HostID != "" && r.player(r.st.HostID) == nil {
		return fmt.Errorf("host %s is not on the roster", r.st.HostID)
	}
	return nil
}
