package db

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CardID derives a stable id so the same card text always maps to the same
// card, whether it came from the database or a CSV file.
func CardID(deck, kind, text string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(deck+"\x00"+kind+"\x00"+text)).String()
}

// ReadCardsFile parses a card CSV with the header kind,text,pick,deck.
func ReadCardsFile(path string) ([]Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCards(file)
}

func ReadCards(r io.Reader) ([]Card, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var cards []Card
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		kind, ok := normalizeKind(row[0])
		if !ok {
			return nil, fmt.Errorf("line %d: unknown card kind %q", i+1, row[0])
		}
		text := strings.TrimSpace(row[1])
		if text == "" {
			continue
		}
		pick := 0
		if len(row) >= 3 && strings.TrimSpace(row[2]) != "" {
			pick, err = strconv.Atoi(strings.TrimSpace(row[2]))
			if err != nil || pick < 0 {
				return nil, fmt.Errorf("line %d: invalid pick %q", i+1, row[2])
			}
		}
		deck := ""
		if len(row) >= 4 {
			deck = strings.TrimSpace(row[3])
		}
		cards = append(cards, Card{
			ID:         CardID(deck, kind, text),
			Deck:       deck,
			Kind:       kind,
			Text:       text,
			Pick:       pick,
			Status:     "approved",
			Provenance: "system",
		})
	}
	return cards, nil
}

func normalizeKind(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prompt", "black", "question":
		return "prompt", true
	case "response", "white", "answer":
		return "response", true
	}
	return "", false
}

// LoadCards reads a card CSV and inserts the cards that are not already in
// the catalog. It returns the number of new cards.
func LoadCards(conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, nil
	}
	cards, err := ReadCardsFile(path)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, card := range cards {
		entry := card
		result := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
		if result.Error != nil {
			return inserted, result.Error
		}
		inserted += int(result.RowsAffected)
	}
	return inserted, nil
}
