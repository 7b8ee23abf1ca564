package http

import (
	"net/http"
	"strconv"

	"golang-ticker-analyzer/internal/analyzer/dto"
	"golang-ticker-analyzer/internal/analyzer/service"
	"golang-ticker-analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
)

// WatchlistHandler handles HTTP requests for the watchlist.
type WatchlistHandler struct {
	watchlistService service.WatchlistService
	logger           *logger.Logger
}

// NewWatchlistHandler creates a new WatchlistHandler.
func NewWatchlistHandler(watchlistService service.WatchlistService, logger *logger.Logger) *WatchlistHandler {
	return &WatchlistHandler{watchlistService: watchlistService, logger: logger}
}

// RegisterRoutes registers the watchlist routes to the Echo group.
func (h *WatchlistHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Add)
	g.GET("", h.List)
	g.DELETE("/:id", h.Remove)
}

// Add inserts a ticker into the watchlist.
func (h *WatchlistHandler) Add(c echo.Context) error {
	var req dto.CreateWatchlistItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if req.Symbol == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Symbol is required"})
	}

	item, err := h.watchlistService.Add(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, item)
}

// List returns the watchlist, newest first.
func (h *WatchlistHandler) List(c echo.Context) error {
	items, err := h.watchlistService.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, items)
}

// Remove deletes a watchlist item by ID.
func (h *WatchlistHandler) Remove(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid watchlist item ID"})
	}

	if err := h.watchlistService.Remove(c.Request().Context(), uint(id)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
