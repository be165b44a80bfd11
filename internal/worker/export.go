// Package worker contains background jobs started alongside the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperengineering/trustedapps/internal/export"
)

// ExportWorker periodically uploads the database file as a backup.
type ExportWorker struct {
	uploader export.Uploader
	dbPath   string
	interval time.Duration
}

// NewExportWorker creates a worker with the given uploader and interval.
func NewExportWorker(uploader export.Uploader, dbPath string, interval time.Duration) *ExportWorker {
	return &ExportWorker{
		uploader: uploader,
		dbPath:   dbPath,
		interval: interval,
	}
}

// Run starts the worker loop. Uploads immediately on start, then on each
// interval. Respects context cancellation for graceful shutdown.
func (w *ExportWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "export",
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.export(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "export",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.export(ctx)
		}
	}
}

// export uploads the database file and logs any errors.
func (w *ExportWorker) export(ctx context.Context) {
	if err := w.uploader.Upload(ctx, w.dbPath); err != nil {
		// Context cancellation means graceful shutdown, not failure
		if ctx.Err() != nil {
			return
		}
		slog.Warn("backup export failed",
			"component", "worker",
			"action", "export_failed",
			"error", err,
		)
	}
}
