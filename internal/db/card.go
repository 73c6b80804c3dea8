package db

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Card struct {
	ID         string    `gorm:"primaryKey;size:64"`
	Deck       string    `gorm:"size:64;not null;default:'';uniqueIndex:idx_cards_deck_kind_text"`
	Kind       string    `gorm:"size:16;not null;uniqueIndex:idx_cards_deck_kind_text"`
	Text       string    `gorm:"size:280;not null;uniqueIndex:idx_cards_deck_kind_text"`
	Pick       int       `gorm:"not null;default:0"`
	Status     string    `gorm:"size:16;not null;default:'approved';index"`
	Provenance string    `gorm:"size:16;not null;default:'system'"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// ApprovedCards lists the cards of a deck that may enter a room's pool. The
// empty deck name selects every deck.
func ApprovedCards(conn *gorm.DB, deck string) ([]Card, error) {
	query := conn.Where("status = ?", "approved")
	if deck != "" {
		query = query.Where("deck = ?", deck)
	}
	var cards []Card
	if err := query.Order("id").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
