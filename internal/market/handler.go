package market

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbon-scribe/impact-ledger/internal/middleware"
)

// Handler handles HTTP requests for the market ledger
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new market handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers market routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	market := router.Group("/market")
	{
		listings := market.Group("/listings")
		listings.POST("", middleware.RequireCaller(), h.createListing)
		listings.GET("", h.listListings)
		listings.GET("/:id", h.getListing)
		listings.POST("/:id/purchase", middleware.RequireCaller(), h.purchase)
		listings.PUT("/:id/status", middleware.RequireCaller(), h.updateStatus)

		transactions := market.Group("/transactions")
		transactions.GET("", h.listTransactions)
		transactions.GET("/:id", h.getTransaction)
	}
}

// createListing handles POST /api/v1/market/listings
func (h *Handler) createListing(c *gin.Context) {
	var data ListingData
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.CreateListing(c.Request.Context(), data, middleware.CallerID(c))
	if errors.Is(err, ErrNegativeQuantity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrNegativeQuantity.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Failed to create listing", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	middleware.RespondResult(c, res.Result, http.StatusCreated, res)
}

// listListings handles GET /api/v1/market/listings
func (h *Handler) listListings(c *gin.Context) {
	activeOnly := false
	if v := c.Query("active"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid active filter"})
			return
		}
		activeOnly = parsed
	}

	list, err := h.service.ListListings(c.Request.Context(), activeOnly)
	if err != nil {
		h.logger.Error("Failed to list listings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": list, "total": len(list)})
}

// getListing handles GET /api/v1/market/listings/:id
func (h *Handler) getListing(c *gin.Context) {
	id, ok := middleware.ParseID(c, "id")
	if !ok {
		return
	}

	l, found, err := h.service.GetListing(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get listing", zap.Error(err), zap.Int64("listing_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not-found"})
		return
	}

	c.JSON(http.StatusOK, l)
}

// purchase handles POST /api/v1/market/listings/:id/purchase
func (h *Handler) purchase(c *gin.Context) {
	id, ok := middleware.ParseID(c, "id")
	if !ok {
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.Purchase(c.Request.Context(), id, req.Quantity, middleware.CallerID(c))
	if err != nil {
		h.logger.Error("Failed to purchase listing", zap.Error(err), zap.Int64("listing_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	middleware.RespondResult(c, res.Result, http.StatusCreated, res)
}

// updateStatus handles PUT /api/v1/market/listings/:id/status
func (h *Handler) updateStatus(c *gin.Context) {
	id, ok := middleware.ParseID(c, "id")
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.UpdateListingStatus(c.Request.Context(), id, *req.Active, middleware.CallerID(c))
	if err != nil {
		h.logger.Error("Failed to update listing status", zap.Error(err), zap.Int64("listing_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	middleware.RespondResult(c, res, http.StatusOK, res)
}

// listTransactions handles GET /api/v1/market/transactions
func (h *Handler) listTransactions(c *gin.Context) {
	list, err := h.service.ListTransactions(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list transactions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": list, "total": len(list)})
}

// getTransaction handles GET /api/v1/market/transactions/:id
func (h *Handler) getTransaction(c *gin.Context) {
	id, ok := middleware.ParseID(c, "id")
	if !ok {
		return
	}

	t, found, err := h.service.GetTransaction(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get transaction", zap.Error(err), zap.Int64("transaction_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not-found"})
		return
	}

	c.JSON(http.StatusOK, t)
}
