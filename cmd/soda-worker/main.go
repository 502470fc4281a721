package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"soda/internal/amqp"
	"soda/internal/backend"
	"soda/internal/cli"
	"soda/internal/config"
	applog "soda/internal/log"
	"soda/internal/sheets"
	gsheet "soda/internal/sheets/google"
	mem "soda/internal/sheets/memory"
	"soda/internal/worker"
)

func main() {
	cfg, logger := cli.MustStart("soda-worker")
	logger.Info("Starting soda-worker")

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	// The worker only reads; change events come from its own consumer.
	backendCfg.AMQPURL = ""
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Close()

	writer, err := newReportWriter(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer consumer.Close()
	} else {
		logger.Info("No AMQP_URL provided, exporting on the interval only")
	}

	exporter := worker.NewExportWorker(result.Repository, writer, logger)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return exporter.Run(gctx, cfg.ExportInterval)
	})
	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeSummaryChanged(gctx, exporter.HandleChange)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", applog.FieldError, err)
		os.Exit(1)
	}
	<-done
	logger.Info("Worker stopped gracefully", "last_export", exporter.LastExport())
}

// newReportWriter writes to Google Sheets when a spreadsheet is configured
// and keeps the report in memory otherwise.
func newReportWriter(cfg *config.Config, logger *applog.Logger) (sheets.ReportWriter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
		return mem.New(), nil
	}
	client, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		ReportSheet:     cfg.GoogleReportSheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}
