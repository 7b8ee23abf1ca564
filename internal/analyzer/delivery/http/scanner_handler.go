package http

import (
	"net/http"

	"golang-ticker-analyzer/internal/analyzer/service"
	"golang-ticker-analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScannerHandler handles HTTP requests for the market scanner.
type ScannerHandler struct {
	scannerService service.ScannerService
	logger         *logger.Logger
}

// NewScannerHandler creates a new ScannerHandler.
func NewScannerHandler(scannerService service.ScannerService, logger *logger.Logger) *ScannerHandler {
	return &ScannerHandler{scannerService: scannerService, logger: logger}
}

// RegisterRoutes registers the scanner routes to the Echo group.
func (h *ScannerHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.StartScan)
	g.GET("/results", h.GetResults)
}

// StartScan fans the active ticker universe out onto the scanner stream.
func (h *ScannerHandler) StartScan(c echo.Context) error {
	summary, err := h.scannerService.EnqueueScan(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to start scan", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, summary)
}

// GetResults returns the current scan table.
func (h *ScannerHandler) GetResults(c echo.Context) error {
	results, err := h.scannerService.GetResults(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, results)
}
