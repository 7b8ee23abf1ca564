package entity

import (
	"time"

	"gorm.io/gorm"
)

// Stock is one row of the scannable ticker universe.
type Stock struct {
	ID        uint   `gorm:"primaryKey"`
	Symbol    string `gorm:"not null;uniqueIndex"`
	Name      string `gorm:"not null"`
	Sector    string `gorm:"index"`
	Exchange  string
	IsActive  bool           `gorm:"default:true"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
