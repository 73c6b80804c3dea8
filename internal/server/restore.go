package server

import (
	"context"
	"fmt"

	"fill-the-blank/internal/db"
	"fill-the-blank/internal/game"

	"github.com/rs/zerolog/log"
)

// Recover reloads every room that was not closed when the process stopped.
// Each room is checked before it is trusted, its feed is primed with the tail
// of the event log so clients can resume by version, and its timers are armed
// again from the restored phase.
func (s *Server) Recover(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, nil
	}
	var records []db.Room
	if err := s.db.WithContext(ctx).
		Where("status <> ?", string(game.StatusClosed)).
		Order("id").
		Find(&records).Error; err != nil {
		return 0, fmt.Errorf("load rooms: %w", err)
	}
	recovered := 0
	for _, record := range records {
		if err := s.recoverRoom(ctx, record); err != nil {
			log.Error().Err(err).Str("room_id", record.ID).Msg("room not recovered")
			continue
		}
		recovered++
	}
	return recovered, nil
}

func (s *Server) recoverRoom(ctx context.Context, record db.Room) error {
	room, err := game.Restore(record.State, s.cfg.Rules(), s.roomOpts...)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if room.Version() != record.Version {
		return fmt.Errorf("state version %d does not match row version %d", room.Version(), record.Version)
	}
	if err := room.CheckInvariants(); err != nil {
		return fmt.Errorf("invariants: %w", err)
	}
	tail, err := s.loadEvents(ctx, record.ID, 0, s.cfg.EventBacklog)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	actor := s.newActor(record.ID, record.Deck, room)
	actor.feed.prime(tail)
	s.store.add(actor)

	if err := actor.query(ctx, func(*game.Room) { actor.syncTimers() }); err != nil {
		s.store.remove(record.ID)
		return err
	}
	log.Info().Str("room_id", record.ID).Uint64("version", record.Version).Int("events", len(tail)).Msg("room recovered")
	return nil
}
