package http

import (
	"errors"
	"net/http"

	"golang-ticker-analyzer/internal/analyzer/dto"
	"golang-ticker-analyzer/internal/analyzer/service"
	"golang-ticker-analyzer/internal/backtest"
	"golang-ticker-analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
)

// BacktestHandler handles HTTP requests for strategy simulations.
type BacktestHandler struct {
	backtestService service.BacktestService
	logger          *logger.Logger
}

// NewBacktestHandler creates a new BacktestHandler.
func NewBacktestHandler(backtestService service.BacktestService, logger *logger.Logger) *BacktestHandler {
	return &BacktestHandler{backtestService: backtestService, logger: logger}
}

// RegisterRoutes registers the backtest routes to the Echo group.
func (h *BacktestHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Run)
}

// Run simulates the strategy over the requested history window.
func (h *BacktestHandler) Run(c echo.Context) error {
	var req dto.BacktestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if req.Ticker == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Ticker is required"})
	}

	result, err := h.backtestService.Run(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, backtest.ErrInsufficientData) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
		}
		h.logger.Error("Backtest failed", logger.ErrorField(err), logger.StringField("ticker", req.Ticker))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, dto.BacktestResponse{Result: result})
}
