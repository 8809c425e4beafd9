package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/appointment-scheduler/internal/api/router"
	"github.com/wolfman30/appointment-scheduler/internal/app/bootstrap"
	appconfig "github.com/wolfman30/appointment-scheduler/internal/config"
	"github.com/wolfman30/appointment-scheduler/internal/http/handlers"
	"github.com/wolfman30/appointment-scheduler/internal/observability/metrics"
	"github.com/wolfman30/appointment-scheduler/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting appointment-scheduler dev server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	reg, metricsHandler, fulfillmentMetrics := setupMetrics()

	hook, err := bootstrap.BuildFulfillment(context.Background(), cfg, logger, fulfillmentMetrics)
	if err != nil {
		logger.Error("failed to build fulfillment hook", "error", err)
		os.Exit(1)
	}
	defer hook.Close()

	r := router.New(&router.Config{
		Logger:             logger,
		FulfillmentHandler: handlers.NewFulfillmentHandler(hook.Dispatcher, logger),
		StatsHandler:       handlers.NewStatsHandler(reg),
		MetricsHandler:     metricsHandler,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers the fulfillment metrics on a private registry along
// with the Go and process collectors.
func setupMetrics() (*prometheus.Registry, http.Handler, *metrics.FulfillmentMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewFulfillmentMetrics(reg)
	return reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}
