package v1

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbon-scribe/impact-ledger/internal/assessment"
	"carbon-scribe/impact-ledger/internal/config"
	"carbon-scribe/impact-ledger/internal/market"
	"carbon-scribe/impact-ledger/internal/metrics"
	"carbon-scribe/impact-ledger/internal/middleware"
	"carbon-scribe/impact-ledger/internal/notifications"
	"carbon-scribe/impact-ledger/internal/notifications/websocket"
	"carbon-scribe/impact-ledger/internal/reports"
)

// API holds the ledger services and the infrastructure they publish to
type API struct {
	Assessments *assessment.Service
	Market      *market.Service
	Reports     *reports.Service
	Bus         *notifications.Bus
	Events      *websocket.Manager
	Metrics     *metrics.Prometheus

	cancel context.CancelFunc

	assessmentHandler *assessment.Handler
	marketHandler     *market.Handler
	reportsHandler    *reports.Handler
}

// SetupAPI builds both ledgers with in-memory storage. Committed changes go
// to the event bus, which feeds the websocket clients, and every operation is
// counted by the Prometheus recorder.
func SetupAPI(cfg *config.Config, logger *zap.Logger) (*API, error) {
	bus := notifications.NewBus(logger.Named("events"))
	events := websocket.NewManager(logger)
	recorder := metrics.NewPrometheus()

	ctx, cancel := context.WithCancel(context.Background())
	for _, channel := range notifications.Channels() {
		if err := bus.Subscribe(ctx, channel, func(e notifications.Event) {
			events.Publish(ctx, e)
		}); err != nil {
			cancel()
			bus.Close()
			events.Close()
			return nil, fmt.Errorf("failed to connect event feed: %w", err)
		}
	}

	assessments := assessment.NewService(
		assessment.NewMemoryRepository(),
		cfg.Assessment.OwnerID,
		logger.Named("assessment"),
		bus,
		recorder,
	)
	mkt := market.NewService(
		market.NewMemoryRepository(),
		logger.Named("market"),
		bus,
		recorder,
	)
	reportsService := reports.NewService(assessments, mkt, cfg.Reports.Title, logger.Named("reports"))

	return &API{
		Assessments: assessments,
		Market:      mkt,
		Reports:     reportsService,
		Bus:         bus,
		Events:      events,
		Metrics:     recorder,
		cancel:      cancel,

		assessmentHandler: assessment.NewHandler(assessments, logger),
		marketHandler:     market.NewHandler(mkt, logger),
		reportsHandler:    reports.NewHandler(reportsService, logger),
	}, nil
}

// NewRouter registers every route on a new gin engine
func NewRouter(api *API, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		api.assessmentHandler.RegisterRoutes(v1)
		api.marketHandler.RegisterRoutes(v1)
		api.reportsHandler.RegisterRoutes(v1)
	}

	router.GET("/ws/events", api.Events.ServeWS)
	router.GET("/metrics", gin.WrapH(api.Metrics.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "healthy",
			"timestamp":      time.Now().UTC(),
			"ws_connections": api.Events.GetConnectionCount(),
		})
	})

	return router
}

// Close stops the event bus and then the websocket feed
func (a *API) Close() {
	a.cancel()
	_ = a.Bus.Close()
	a.Events.Close()
}
