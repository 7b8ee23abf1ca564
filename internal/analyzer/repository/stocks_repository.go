package repository

import (
	"context"

	"golang-ticker-analyzer/internal/entity"

	"gorm.io/gorm"
)

// StocksRepository reads the scannable ticker universe.
type StocksRepository interface {
	GetActiveStocks(ctx context.Context) ([]entity.Stock, error)
	GetBySymbol(ctx context.Context, symbol string) (*entity.Stock, error)
}

type stocksRepository struct {
	db *gorm.DB
}

// NewStocksRepository creates a new StocksRepository.
func NewStocksRepository(db *gorm.DB) StocksRepository {
	return &stocksRepository{db: db}
}

func (s *stocksRepository) GetActiveStocks(ctx context.Context) ([]entity.Stock, error) {
	var stocks []entity.Stock
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

func (s *stocksRepository) GetBySymbol(ctx context.Context, symbol string) (*entity.Stock, error) {
	var stock entity.Stock
	if err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}
