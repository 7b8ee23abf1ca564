package repository

import (
	"context"

	"golang-ticker-analyzer/internal/entity"

	"gorm.io/gorm"
)

// WatchlistRepository persists user-tracked tickers.
type WatchlistRepository interface {
	Create(ctx context.Context, item *entity.WatchlistItem) error
	Delete(ctx context.Context, id uint) error
	GetAll(ctx context.Context) ([]entity.WatchlistItem, error)
}

type watchlistRepository struct {
	db *gorm.DB
}

// NewWatchlistRepository creates a new WatchlistRepository.
func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &watchlistRepository{db: db}
}

func (r *watchlistRepository) Create(ctx context.Context, item *entity.WatchlistItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *watchlistRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.WatchlistItem{}, id).Error
}

func (r *watchlistRepository) GetAll(ctx context.Context) ([]entity.WatchlistItem, error) {
	var items []entity.WatchlistItem
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
