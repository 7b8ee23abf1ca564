package dto

import "time"

// CreateWatchlistItemRequest adds a ticker to the watchlist.
type CreateWatchlistItemRequest struct {
	Symbol string `json:"symbol"`
	Note   string `json:"note"`
}

// WatchlistItemResponse is one watchlist row.
type WatchlistItemResponse struct {
	ID        uint      `json:"id"`
	Symbol    string    `json:"symbol"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}
