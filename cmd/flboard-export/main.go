package main

import (
	"context"
	"flag"
	"os"
	"time"

	"flboard/internal/cli"
	"flboard/internal/export/gsheet"
	applog "flboard/internal/log"
)

func main() {
	cli.LoadEnvFile()
	slogger := cli.SetupLogger()

	now := time.Now()
	year := flag.Int("year", now.Year(), "year to export")
	month := flag.Int("month", int(now.Month()), "month to export (1-12)")
	flag.Parse()

	cfg := cli.LoadAndValidateConfig(slogger)
	sess := cli.InitSession(slogger, cfg)
	backend := cli.InitBackend(slogger, cfg, sess)

	logger := applog.New(applog.Config{Component: applog.ComponentExport})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := backend.MonthlySummary(ctx, *year, *month)
	if err != nil {
		logger.Error("Failed to fetch monthly report", applog.FieldError, err,
			applog.FieldYear, *year, applog.FieldMonth, *month)
		os.Exit(1)
	}

	exporter, err := gsheet.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Sheets exporter", applog.FieldError, err)
		os.Exit(1)
	}

	ref, err := exporter.Export(ctx, report)
	if err != nil {
		logger.Error("Export failed", applog.FieldError, err,
			applog.FieldYear, *year, applog.FieldMonth, *month)
		os.Exit(1)
	}
	logger.Info("Monthly report exported", applog.FieldSheetsRef, ref,
		applog.FieldYear, *year, applog.FieldMonth, *month)
}
