package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fill-the-blank/internal/db"
	"fill-the-blank/internal/game"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errPersistence = errors.New("room state could not be saved")

// persistRoom writes the room snapshot and the events that produced it in
// one transaction. Without a database it is a no-op.
func (s *Server) persistRoom(ctx context.Context, deck string, room *game.Room, events []game.Event) error {
	if s.db == nil {
		return nil
	}
	state, err := room.MarshalState()
	if err != nil {
		return err
	}
	rows := make([]db.Event, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", ev.Type, err)
		}
		rows = append(rows, db.Event{
			RoomID:    ev.RoomID,
			Version:   ev.Version,
			Type:      string(ev.Type),
			Payload:   datatypes.JSON(payload),
			CreatedAt: ev.At,
		})
	}
	record := db.Room{
		ID:      room.ID(),
		Deck:    deck,
		Status:  string(room.Status()),
		Version: room.Version(),
		State:   datatypes.JSON(state),
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "version", "state", "updated_at"}),
		}).Create(&record).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// loadEvents reads committed events after version, oldest first. A positive
// limit keeps only the newest entries.
func (s *Server) loadEvents(ctx context.Context, roomID string, after uint64, limit int) ([]game.Event, error) {
	if s.db == nil {
		return nil, nil
	}
	var records []db.Event
	query := s.db.WithContext(ctx).Where("room_id = ? AND version > ?", roomID, after)
	if limit > 0 {
		query = query.Order("version desc").Limit(limit)
	} else {
		query = query.Order("version asc")
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	if limit > 0 {
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
	}
	events := make([]game.Event, 0, len(records))
	for _, record := range records {
		events = append(events, game.Event{
			Version: record.Version,
			Type:    game.EventType(record.Type),
			RoomID:  record.RoomID,
			At:      record.CreatedAt,
			Payload: json.RawMessage(record.Payload),
		})
	}
	return events, nil
}
