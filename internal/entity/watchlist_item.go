package entity

import (
	"time"

	"gorm.io/gorm"
)

// WatchlistItem is a user-tracked ticker with an optional note.
type WatchlistItem struct {
	ID        uint           `gorm:"primaryKey"`
	Symbol    string         `gorm:"not null;uniqueIndex"`
	Note      string
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
