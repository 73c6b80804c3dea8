package game

import (
	"math/rand"
	"strings"
)

type CardKind string

const (
	CardPrompt   CardKind = "prompt"
	CardResponse CardKind = "response"
)

const (
	ProvenanceSystem = "system"
	ProvenancePlayer = "player"
)

const (
	CardApproved = "approved"
	CardPending  = "pending"
	CardRejected = "rejected"
)

type Card struct {
	ID         string   `json:"id"`
	Kind       CardKind `json:"kind"`
	Text       string   `json:"text"`
	Pick       int      `json:"pick,omitempty"`
	Provenance string   `json:"provenance,omitempty"`
	Status     string   `json:"status,omitempty"`
}

// PickCount is the number of response cards a prompt asks for. An explicit
// Pick wins; otherwise every run of three or more underscores is a blank.
func (c Card) PickCount() int {
	if c.Pick > 0 {
		return c.Pick
	}
	if n := countBlanks(c.Text); n > 0 {
		return n
	}
	return 1
}

// Eligible reports whether the card may enter a room's pool. Cards without a
// status come from the built-in catalog and are treated as approved.
func (c Card) Eligible() bool {
	if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.Text) == "" {
		return false
	}
	if c.Kind != CardPrompt && c.Kind != CardResponse {
		return false
	}
	return c.Status == "" || c.Status == CardApproved
}

func countBlanks(text string) int {
	blanks := 0
	run := 0
	for _, r := range text {
		if r == '_' {
			run++
			continue
		}
		if run >= 3 {
			blanks++
		}
		run = 0
	}
	if run >= 3 {
		blanks++
	}
	return blanks
}

// Pool is the room's card catalog plus the location of every response card
// that is not in a hand or a submission. Draw is a stack; the top is the end.
type Pool struct {
	Prompts     []Card          `json:"prompts"`
	Responses   map[string]Card `json:"responses"`
	Draw        []string        `json:"draw"`
	Discard     []string        `json:"discard"`
	Retired     []string        `json:"retired"`
	UsedPrompts map[string]bool `json:"used_prompts"`
}

func newPool() Pool {
	return Pool{
		Responses:   make(map[string]Card),
		UsedPrompts: make(map[string]bool),
	}
}

// merge adds eligible cards whose ids the pool has not seen. New response
// cards are shuffled into the draw pile.
func (p *Pool) merge(cards []Card, rng *rand.Rand) int {
	known := make(map[string]struct{}, len(p.Prompts))
	for _, card := range p.Prompts {
		known[card.ID] = struct{}{}
	}
	added := 0
	for _, card := range cards {
		if !card.Eligible() {
			continue
		}
		switch card.Kind {
		case CardPrompt:
			if _, ok := known[card.ID]; ok {
				continue
			}
			known[card.ID] = struct{}{}
			p.Prompts = append(p.Prompts, card)
		case CardResponse:
			if _, ok := p.Responses[card.ID]; ok {
				continue
			}
			p.Responses[card.ID] = card
			p.Draw = append(p.Draw, card.ID)
		}
		added++
	}
	if added > 0 {
		shuffleIDs(p.Draw, rng)
	}
	return added
}

// nextPrompt picks a random prompt that was not used this session and whose
// pick count fits in a hand.
func (p *Pool) nextPrompt(rng *rand.Rand, maxPick int) (Card, bool) {
	candidates := make([]int, 0, len(p.Prompts))
	for i, card := range p.Prompts {
		if p.UsedPrompts[card.ID] || card.PickCount() > maxPick {
			continue
		}
		candidates = append(candidates, i)
	}
	if len(candidates) == 0 {
		return Card{}, false
	}
	return p.Prompts[candidates[rng.Intn(len(candidates))]], true
}

func (p *Pool) available() int {
	return len(p.Draw) + len(p.Discard)
}

// draw takes n cards, reshuffling the discard pile into the draw pile when it
// runs short. It never returns a partial draw.
func (p *Pool) draw(n int, rng *rand.Rand) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	if p.available() < n {
		return nil, ErrPoolExhausted
	}
	if len(p.Draw) < n {
		shuffleIDs(p.Discard, rng)
		p.Draw = append(p.Discard, p.Draw...)
		p.Discard = nil
	}
	cut := len(p.Draw) - n
	drawn := append([]string(nil), p.Draw[cut:]...)
	p.Draw = p.Draw[:cut]
	return drawn, nil
}

func (p *Pool) discard(ids ...string) {
	p.Discard = append(p.Discard, ids...)
}

func (p *Pool) retire(ids ...string) {
	p.Retired = append(p.Retired, ids...)
}

func (p *Pool) cards(ids []string) []Card {
	out := make([]Card, 0, len(ids))
	for _, id := range ids {
		if card, ok := p.Responses[id]; ok {
			out = append(out, card)
		}
	}
	return out
}

func shuffleIDs(ids []string, rng *rand.Rand) {
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}
