package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "carbon-scribe/impact-ledger/api/v1"
	"carbon-scribe/impact-ledger/internal/config"
	"carbon-scribe/impact-ledger/internal/logging"
	"carbon-scribe/impact-ledger/internal/reports/scheduler"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.Server.Mode)

	// Initialize ledgers
	api, err := v1.SetupAPI(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to set up API", zap.Error(err))
	}
	defer api.Close()

	// Scheduled ledger summary
	summaries := scheduler.NewManager(api.Reports, logger.Named("scheduler"))
	if err := summaries.Schedule(cfg.Reports.SummarySchedule); err != nil {
		logger.Fatal("Failed to schedule ledger summary", zap.Error(err))
	}
	if err := summaries.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer summaries.Stop()

	// Start Server
	srv := &http.Server{
		Addr:    cfg.Server.GetServerAddr(),
		Handler: v1.NewRouter(api, logger),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("addr", srv.Addr),
		zap.String("assessment_owner", cfg.Assessment.OwnerID))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
