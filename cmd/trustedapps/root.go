package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/trustedapps/internal/api"
	"github.com/hyperengineering/trustedapps/internal/config"
	"github.com/hyperengineering/trustedapps/internal/export"
	"github.com/hyperengineering/trustedapps/internal/listclient"
	"github.com/hyperengineering/trustedapps/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "trustedapps",
	Short: "Trusted Apps - allow-list service for endpoint protection",
	RunE:  run,
}

func init() {
	rootCmd.AddCommand(appsCmd)
}

func run(cmd *cobra.Command, args []string) error {
	// Signal handling drives the shutdown sequence
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("configuration loaded")

	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)
	slog.Info("logger initialized", "level", cfg.Log.Level)

	// Initialize list client (migrations, WAL mode)
	client, err := listclient.NewSQLiteClient(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("list client initialized", "path", cfg.Database.Path)

	// Initialize backup uploader
	uploader, err := export.NewUploader(cfg.Export)
	if err != nil {
		return err
	}

	// Initialize HTTP router
	handler := api.NewHandler(cfg.Auth.APIKey, Version)
	router := api.NewRouter(handler, client)
	slog.Info("router initialized")

	// Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// Worker lifecycle infrastructure
	var wg sync.WaitGroup
	if uploader.Configured() {
		exportWorker := worker.NewExportWorker(uploader, cfg.Database.Path,
			time.Duration(cfg.Export.Interval))
		startWorker(ctx, &wg, "export", exportWorker.Run)
	}

	// Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called
		// gracefully. Anything else is an actual server failure.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// Stop HTTP server (drains in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Wait for workers to complete
	wg.Wait()

	// Close list client
	if err := client.Close(); err != nil {
		slog.Error("list client close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context
// cancellation. Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
