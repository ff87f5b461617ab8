package reports

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbon-scribe/impact-ledger/internal/reports/export"
)

// Handler handles HTTP requests for reports
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new reports handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers report routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	{
		reports.GET("/summary", h.getSummary)
		reports.GET("/:dataset/export", h.exportDataset)
	}
}

// getSummary handles GET /api/v1/reports/summary
func (h *Handler) getSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get ledger summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// exportDataset handles GET /api/v1/reports/:dataset/export
func (h *Handler) exportDataset(c *gin.Context) {
	dataset := c.Param("dataset")

	format, err := export.ParseFormat(c.DefaultQuery("format", "csv"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// render fully before writing headers so failures can still return JSON
	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), dataset, format, &buf); err != nil {
		if errors.Is(err, ErrUnknownDataset) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "datasets": Datasets()})
			return
		}
		h.logger.Error("Failed to export dataset", zap.Error(err), zap.String("dataset", dataset))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("%s_%s%s", dataset, h.service.now().UTC().Format("20060102_150405"), format.FileExtension())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
