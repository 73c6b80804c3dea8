package db

import (
	"time"

	"gorm.io/datatypes"
)

// Room stores the latest committed state of a room. Version matches the last
// event written in the same transaction.
type Room struct {
	ID        string         `gorm:"primaryKey;size:64"`
	Deck      string         `gorm:"size:64;not null;default:''"`
	Status    string         `gorm:"size:16;not null;index"`
	Version   uint64         `gorm:"not null"`
	State     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}
