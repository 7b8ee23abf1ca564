package service

import (
	"context"
	"fmt"
	"strings"

	"golang-ticker-analyzer/internal/analyzer/dto"
	"golang-ticker-analyzer/internal/analyzer/repository"
	"golang-ticker-analyzer/internal/entity"
)

// WatchlistService manages the user-tracked ticker list.
type WatchlistService interface {
	Add(ctx context.Context, req dto.CreateWatchlistItemRequest) (*dto.WatchlistItemResponse, error)
	Remove(ctx context.Context, id uint) error
	List(ctx context.Context) ([]dto.WatchlistItemResponse, error)
}

type watchlistService struct {
	repo repository.WatchlistRepository
}

// NewWatchlistService creates a new WatchlistService.
func NewWatchlistService(repo repository.WatchlistRepository) WatchlistService {
	return &watchlistService{repo: repo}
}

func (s *watchlistService) Add(ctx context.Context, req dto.CreateWatchlistItemRequest) (*dto.WatchlistItemResponse, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	item := entity.WatchlistItem{
		Symbol: symbol,
		Note:   req.Note,
	}
	if err := s.repo.Create(ctx, &item); err != nil {
		return nil, err
	}
	return toWatchlistResponse(item), nil
}

func (s *watchlistService) Remove(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func (s *watchlistService) List(ctx context.Context) ([]dto.WatchlistItemResponse, error) {
	items, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.WatchlistItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, *toWatchlistResponse(item))
	}
	return responses, nil
}

func toWatchlistResponse(item entity.WatchlistItem) *dto.WatchlistItemResponse {
	return &dto.WatchlistItemResponse{
		ID:        item.ID,
		Symbol:    item.Symbol,
		Note:      item.Note,
		CreatedAt: item.CreatedAt,
	}
}
