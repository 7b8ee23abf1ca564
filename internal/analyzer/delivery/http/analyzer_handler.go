package http

import (
	"net/http"
	"strings"

	"golang-ticker-analyzer/internal/analyzer/service"
	"golang-ticker-analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalyzerHandler handles HTTP requests for ticker analysis.
type AnalyzerHandler struct {
	analyzerService service.AnalyzerService
	logger          *logger.Logger
}

// NewAnalyzerHandler creates a new AnalyzerHandler.
func NewAnalyzerHandler(analyzerService service.AnalyzerService, logger *logger.Logger) *AnalyzerHandler {
	return &AnalyzerHandler{analyzerService: analyzerService, logger: logger}
}

// RegisterRoutes registers the analyzer routes to the Echo group.
func (h *AnalyzerHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/:symbol", h.Analyze)
	g.POST("/:symbol/enqueue", h.Enqueue)
}

// Analyze runs the full analysis pipeline synchronously and returns the
// result.
func (h *AnalyzerHandler) Analyze(c echo.Context) error {
	symbol := normalizeSymbol(c.Param("symbol"))
	if symbol == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Symbol is required"})
	}

	result, err := h.analyzerService.Analyze(c.Request().Context(), symbol)
	if err != nil {
		h.logger.Error("Analysis failed", logger.ErrorField(err), logger.StringField("symbol", symbol))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

// Enqueue puts an analysis task on the stream and returns immediately.
func (h *AnalyzerHandler) Enqueue(c echo.Context) error {
	symbol := normalizeSymbol(c.Param("symbol"))
	if symbol == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Symbol is required"})
	}

	if err := h.analyzerService.Enqueue(c.Request().Context(), symbol); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "enqueued", "symbol": symbol})
}

func normalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
