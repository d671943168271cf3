package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"newsletter-go/pkg/api"
	"newsletter-go/pkg/cli/logger"
	"newsletter-go/pkg/config"
	"newsletter-go/pkg/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(os.Stderr, "info", "api").Error("failed to load config", "err", err)
		os.Exit(1)
	}

	_ = logger.Init(logger.Config{Level: cfg.CLI.LogLevel, Output: os.Stderr, Prefix: "api"})
	if cfg.CLI.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	service := services.NewTaskService(services.TaskOptions{
		StepInterval: cfg.StepInterval(),
		FailMarker:   cfg.API.FailMarker,
	})
	defer service.Close()

	router := api.NewRouter(service, cfg.API.APIKey)

	// Cancelled before Shutdown so open event streams return.
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	defer cancelStreams()

	// WriteTimeout stays zero: event streams are long-lived responses.
	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancelStreams()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
	}

	logger.Info("server exited")
}
