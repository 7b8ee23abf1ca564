package entity

import (
	"time"

	"gorm.io/datatypes"
)

// FundamentalsCache stores the last fetched provider fundamentals per symbol
// so repeated analyses within the TTL do not hit the providers again. Computed
// scores are never stored here, only raw provider input.
type FundamentalsCache struct {
	ID        uint           `gorm:"primaryKey"`
	Symbol    string         `gorm:"not null;uniqueIndex"`
	Payload   datatypes.JSON `gorm:"not null"`
	FetchedAt time.Time      `gorm:"not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}
