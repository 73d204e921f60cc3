// Package gsheet exports monthly reports to a Google Sheets spreadsheet,
// one sheet tab per month, so the numbers can be shared with accounting
// without giving out backend access.
package gsheet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"flboard/internal/config"
	"flboard/internal/core"
)

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

// New creates an exporter from the export section of the configuration.
// Credentials come either inline as JSON or from a file.
func New(ctx context.Context, cfg *config.Config) (*Exporter, error) {
	if err := cfg.ValidateExport(); err != nil {
		return nil, err
	}

	var credentialsJSON []byte
	switch {
	case cfg.GoogleOAuthClientJSON != "":
		credentialsJSON = []byte(cfg.GoogleOAuthClientJSON)
	case cfg.GoogleOAuthClientFile != "":
		b, err := os.ReadFile(cfg.GoogleOAuthClientFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing Google credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetBase:     cfg.GoogleSheetName,
	}, nil
}

// Export writes the report to the month's sheet tab and returns the written
// range reference. The whole tab range is rewritten on every export, so
// re-running after a correction just overwrites the old numbers.
func (e *Exporter) Export(ctx context.Context, report core.MonthlyReport) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheetName := e.sheetName(report.Year, report.Month)
	values := buildRows(report)

	rng := fmt.Sprintf("%s!A1", sheetName)
	vr := &gsheet.ValueRange{Values: values}
	_, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update sheet %s: %w", sheetName, err)
	}

	ref := fmt.Sprintf("%s!A1:H%d", sheetName, len(values))
	return ref, nil
}

// sheetName returns "<base> <year>-<month>" unless base already carries the
// year and month.
func (e *Exporter) sheetName(year, month int) string {
	base := strings.TrimSpace(e.sheetBase)
	suffix := fmt.Sprintf("%d-%02d", year, month)
	if strings.HasSuffix(base, suffix) {
		return base
	}
	return fmt.Sprintf("%s %s", base, suffix)
}

// buildRows renders the report as sheet rows: a header, one row per calendar
// day, and a totals row. Ratios are exported as percentages; days without
// data leave their cells empty.
func buildRows(report core.MonthlyReport) [][]any {
	rows := make([][]any, 0, len(report.Days)+2)
	rows = append(rows, []any{
		"Date", "Sales", "Wage", "Food costs", "L ratio", "F ratio", "FL ratio", "Cumulative FL",
	})
	for _, d := range report.Days {
		rows = append(rows, []any{
			d.Date.String(),
			yenCell(d.Sales),
			d.Wage,
			yenCell(d.FoodCosts),
			ratioCell(d.LRatio),
			ratioCell(d.FRatio),
			ratioCell(d.FLRatio),
			ratioCell(d.CumulativeFLRatio),
		})
	}
	rows = append(rows, []any{
		"Total",
		yenCell(report.Sales),
		report.Wage,
		yenCell(report.FoodCosts),
		ratioCell(report.LRatio),
		ratioCell(report.FRatio),
		ratioCell(report.FLRatio),
		"",
	})
	return rows
}

func yenCell(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}

func ratioCell(v *float64) any {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}
