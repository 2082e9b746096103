package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/kehngithub111/litalkon/analysis"
	"github.com/kehngithub111/litalkon/config"
	"github.com/kehngithub111/litalkon/internal/api"
	"github.com/kehngithub111/litalkon/internal/clips"
	"github.com/kehngithub111/litalkon/internal/history"
	"github.com/kehngithub111/litalkon/logging"
	"github.com/kehngithub111/litalkon/transcode"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Route the analysis packages' logging through the same zap backend
	logging.SetGlobalLogger(logging.NewZapLogger(logger))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	decoder := transcode.NewDecoder(cfg.DecoderConfig())
	if err := decoder.CheckAvailability(); err != nil {
		logger.Fatal("audio decoder unavailable", zap.Error(err))
	}

	analyzer := analysis.NewAnalyzer(decoder, cfg.Analyzer)
	clipStore := clips.NewFilesystemStore(cfg.ClipsDir)
	historyStore := history.NewMemoryStore(cfg.HistoryLimit)

	if ids, err := clipStore.List(); err != nil {
		logger.Warn("could not list reference clips", zap.String("dir", cfg.ClipsDir), zap.Error(err))
	} else {
		logger.Info("reference clips loaded", zap.Int("count", len(ids)))
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("12M")) // slightly above the audio limit to leave room for the form envelope

	handler := api.NewHandler(analyzer, clipStore, historyStore, cfg.MaxUploadBytes, logger)
	api.InitRoutes(e, handler)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("analysis server started", zap.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("server is shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
