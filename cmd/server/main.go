package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/light-bringer/dynprice-service/internal/config"
	"github.com/light-bringer/dynprice-service/internal/pkg/logging"
	"github.com/light-bringer/dynprice-service/internal/services"
	"github.com/light-bringer/dynprice-service/internal/transport/grpc/preview"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.Setup(os.Stdout, cfg.LogLevel, "dynprice")

	logger.Info("starting dynamic pricing service",
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("spanner_database", cfg.SpannerDatabase),
		slog.Any("catalogs", cfg.CatalogIDs),
		slog.String("run_time_of_day", cfg.RunTimeOfDay),
		slog.String("run_timezone", cfg.RunTimezone),
		slog.String("grpc_port", cfg.GRPCPort),
		slog.String("http_port", cfg.HTTPPort),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize service dependencies (DI container)
	serviceOpts, err := services.NewServiceOptions(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	defer serviceOpts.Close()

	// 3. Create gRPC server with health and reflection
	grpcServer, healthServer := preview.NewServer(serviceOpts.PreviewHandler, logger)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port: %w", err)
	}

	errCh := make(chan error, 2)

	// 4. Start gRPC server in background
	go func() {
		logger.Info("gRPC server listening", slog.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	// 5. Start HTTP server in background
	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           serviceOpts.HTTPServer,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	// 6. Start the daily scheduler
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := serviceOpts.Scheduler.Run(ctx); err != nil {
			logger.Error("scheduler stopped", slog.Any("error", err))
		}
	}()

	// 7. Graceful shutdown handling
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
	case runErr = <-errCh:
		logger.Error("server failed, shutting down", slog.Any("error", runErr))
		stop()
	}

	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", slog.Any("error", err))
	}
	grpcServer.GracefulStop()

	// An in-flight run is cancelled with ctx and releases its lease.
	select {
	case <-schedDone:
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop before shutdown timeout")
	}

	return runErr
}
