package db

import (
	"time"

	"gorm.io/datatypes"
)

// Event is one entry of a room's durable event log. Versions are unique per
// room and contiguous.
type Event struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    string         `gorm:"size:64;not null;uniqueIndex:idx_events_room_version"`
	Version   uint64         `gorm:"not null;uniqueIndex:idx_events_room_version"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
