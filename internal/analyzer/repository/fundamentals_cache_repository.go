package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang-ticker-analyzer/internal/analyzer/dto"
	"golang-ticker-analyzer/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FundamentalsCacheRepository stores raw provider fundamentals per symbol so
// repeated analyses inside the TTL skip the scrape.
type FundamentalsCacheRepository interface {
	Get(ctx context.Context, symbol string, maxAge time.Duration) (*dto.CompanyInfo, error)
	Put(ctx context.Context, symbol string, info *dto.CompanyInfo) error
}

type fundamentalsCacheRepository struct {
	db *gorm.DB
}

// NewFundamentalsCacheRepository creates a new FundamentalsCacheRepository.
func NewFundamentalsCacheRepository(db *gorm.DB) FundamentalsCacheRepository {
	return &fundamentalsCacheRepository{db: db}
}

// Get returns the cached fundamentals, or nil when missing or stale.
func (r *fundamentalsCacheRepository) Get(ctx context.Context, symbol string, maxAge time.Duration) (*dto.CompanyInfo, error) {
	var row entity.FundamentalsCache
	err := r.db.WithContext(ctx).Where("symbol = ?", symbol).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(row.FetchedAt) > maxAge {
		return nil, nil
	}

	var info dto.CompanyInfo
	if err := json.Unmarshal(row.Payload, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *fundamentalsCacheRepository) Put(ctx context.Context, symbol string, info *dto.CompanyInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return err
	}

	row := entity.FundamentalsCache{
		Symbol:    symbol,
		Payload:   payload,
		FetchedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at", "updated_at"}),
	}).Create(&row).Error
}
