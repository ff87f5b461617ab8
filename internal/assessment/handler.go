package assessment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbon-scribe/impact-ledger/internal/middleware"
)

// Handler handles HTTP requests for the assessment registry
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new assessment handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers assessment routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	assessments := router.Group("/assessments")
	{
		assessments.POST("", middleware.RequireCaller(), h.submit)
		assessments.GET("", h.list)
		assessments.GET("/:id", h.get)
		assessments.POST("/:id/verify", middleware.RequireCaller(), h.verify)
		assessments.GET("/:id/score", h.score)
	}
}

// submit handles POST /api/v1/assessments
func (h *Handler) submit(c *gin.Context) {
	var data AssessmentData
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.Submit(c.Request.Context(), data, middleware.CallerID(c))
	if err != nil {
		h.logger.Error("Failed to submit assessment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	middleware.RespondResult(c, res.Result, http.StatusCreated, res)
}

// list handles GET /api/v1/assessments
func (h *Handler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list assessments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assessments": list, "total": len(list)})
}

// get handles GET /api/v1/assessments/:id
func (h *Handler) get(c *gin.Context) {
	id, ok := middleware.ParseID(c, "id")
	if !ok {
		return
	}

	a, found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get assessment", zap.Error(err), zap.Int64("assessment_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not-found"})
		return
	}

	c.JSON(http.StatusOK, a)
}

// verify handles POST /api/v1/assessments/:id/verify
func (h *Handler) verify(c *gin.Context) {
	id, ok := middleware.ParseID(c, "id")
	if !ok {
		return
	}

	res, err := h.service.Verify(c.Request.Context(), id, middleware.CallerID(c))
	if err != nil {
		h.logger.Error("Failed to verify assessment", zap.Error(err), zap.Int64("assessment_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	middleware.RespondResult(c, res, http.StatusOK, res)
}

// score handles GET /api/v1/assessments/:id/score. Unknown ids answer 200
// with a null score.
func (h *Handler) score(c *gin.Context) {
	id, ok := middleware.ParseID(c, "id")
	if !ok {
		return
	}

	score, found, err := h.service.CalculateScore(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to calculate score", zap.Error(err), zap.Int64("assessment_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := ScoreResult{AssessmentID: id}
	if found {
		out.Score = &score
	}
	c.JSON(http.StatusOK, out)
}
