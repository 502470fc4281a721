package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"soda/internal/amqp"
	"soda/internal/core"
	applog "soda/internal/log"
	"soda/internal/sheets"
)

// Lister is the read side of the summary repository.
type Lister interface {
	ListAll(ctx context.Context) ([]core.Summary, error)
}

// ExportWorker rewrites the weekly report whenever summaries change and on
// a fixed interval for anything missed.
type ExportWorker struct {
	lister Lister
	writer sheets.ReportWriter
	logger *applog.Logger

	mu         sync.Mutex
	lastExport time.Time
}

func NewExportWorker(lister Lister, writer sheets.ReportWriter, logger *applog.Logger) *ExportWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &ExportWorker{
		lister: lister,
		writer: writer,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleChange processes one change event from the queue.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.SummaryChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing summary change",
		applog.FieldOperation, msg.Op,
		applog.FieldSummaryID, msg.ID,
		"published_at", msg.Timestamp)

	w.mu.Lock()
	stale := msg.Timestamp.Before(w.lastExport)
	w.mu.Unlock()
	if stale {
		w.logger.DebugContext(ctx, "Change already covered by a later export", applog.FieldSummaryID, msg.ID)
		return nil
	}
	return w.Export(ctx)
}

// Export reloads every summary and rewrites the report. Exports never run
// concurrently.
func (w *ExportWorker) Export(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	started := time.Now()
	all, err := w.lister.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list summaries: %w", err)
	}
	rows := sheets.BuildWeekRows(core.SortWeeksDescending(core.GroupByWeek(all)))
	if err := w.writer.WriteWeeklyReport(ctx, rows); err != nil {
		return fmt.Errorf("write weekly report: %w", err)
	}
	w.lastExport = started

	w.logger.InfoContext(ctx, "Weekly report exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldCount, len(rows),
		applog.FieldDuration, time.Since(started).Milliseconds())
	return nil
}

// Run exports once, then every interval until ctx is done. Failures are
// logged and retried on the next tick.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.Export(ctx); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Startup export failed", applog.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Export(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Periodic export failed", applog.FieldError, err)
			}
		}
	}
}

// LastExport returns when the last successful export started.
func (w *ExportWorker) LastExport() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastExport
}
