package server

import (
	"bytes"
	"context"
	_ "embed"

	"fill-the-blank/internal/db"
	"fill-the-blank/internal/game"

	"gorm.io/gorm"
)

//go:embed decks/starter.csv
var starterDeck []byte

// Catalog supplies the cards a room's pool is built from. Rooms merge the
// catalog again before every operation that can start a round, so cards
// approved while a game is running show up in later rounds.
type Catalog interface {
	Cards(ctx context.Context, deck string) ([]game.Card, error)
}

type dbCatalog struct {
	conn *gorm.DB
}

func (c dbCatalog) Cards(ctx context.Context, deck string) ([]game.Card, error) {
	rows, err := db.ApprovedCards(c.conn.WithContext(ctx), deck)
	if err != nil {
		return nil, err
	}
	return toGameCards(rows, ""), nil
}

// staticCatalog serves a fixed card list, either a CSV file or the built-in
// starter deck. Deck names filter when a deck is given.
type staticCatalog struct {
	cards []db.Card
}

func newStaticCatalog(path string) (staticCatalog, error) {
	if path == "" {
		cards, err := db.ReadCards(bytes.NewReader(starterDeck))
		if err != nil {
			return staticCatalog{}, err
		}
		return staticCatalog{cards: cards}, nil
	}
	cards, err := db.ReadCardsFile(path)
	if err != nil {
		return staticCatalog{}, err
	}
	return staticCatalog{cards: cards}, nil
}

func (c staticCatalog) Cards(_ context.Context, deck string) ([]game.Card, error) {
	return toGameCards(c.cards, deck), nil
}

func toGameCards(rows []db.Card, deck string) []game.Card {
	cards := make([]game.Card, 0, len(rows))
	for _, row := range rows {
		if deck != "" && row.Deck != deck {
			continue
		}
		cards = append(cards, game.Card{
			ID:         row.ID,
			Kind:       game.CardKind(row.Kind),
			Text:       row.Text,
			Pick:       row.Pick,
			Provenance: row.Provenance,
			Status:     row.Status,
		})
	}
	return cards
}
