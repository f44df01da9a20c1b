// Package export renders index data as spreadsheets and charts.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/xuri/excelize/v2"

	"github.com/arnabmitra/topcap-index/internal/index"
	"github.com/arnabmitra/topcap-index/internal/sanitize"
)

const (
	SheetPerformance  = "Index Performance"
	SheetCompositions = "Daily Compositions"
	SheetChanges      = "Composition Changes"
)

// Source is the read side of index.Service.
type Source interface {
	Performance(ctx context.Context, start, end string) ([]index.PerformanceRecord, error)
	Composition(ctx context.Context, date string) ([]index.CompositionRecord, error)
	Changes(ctx context.Context, start, end string) ([]index.ChangeRecord, error)
}

type Exporter struct {
	source Source
	logger *slog.Logger
}

func NewExporter(source Source, logger *slog.Logger) *Exporter {
	return &Exporter{
		source: source,
		logger: logger.With(slog.String("component", "export")),
	}
}

// Workbook builds an xlsx file with the performance, the composition of every
// business day and the membership changes for [start, end].
func (e *Exporter) Workbook(ctx context.Context, start, end string) (*bytes.Buffer, error) {
	from, err := index.ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := index.ParseDate(end)
	if err != nil {
		return nil, err
	}

	performance, err := e.source.Performance(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("performance: %w", err)
	}
	changes, err := e.source.Changes(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("changes: %w", err)
	}

	var compositions []index.CompositionRecord
	for _, day := range index.BusinessDays(from, to) {
		date := sanitize.Date(day)
		records, err := e.source.Composition(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("composition %s: %w", date, err)
		}
		for _, r := range records {
			r.Date = date
			compositions = append(compositions, r)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetPerformance); err != nil {
		return nil, err
	}
	if err := writeRows(f, SheetPerformance, performanceRows(performance)); err != nil {
		return nil, err
	}

	for _, sheet := range []string{SheetCompositions, SheetChanges} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	if err := writeRows(f, SheetCompositions, compositionRows(compositions)); err != nil {
		return nil, err
	}
	if err := writeRows(f, SheetChanges, changeRows(changes)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	e.logger.Info("workbook exported",
		slog.String("start", start),
		slog.String("end", end),
		slog.Int("performance_rows", len(performance)),
		slog.String("composition_rows", humanize.Comma(int64(len(compositions)))),
		slog.String("size", humanize.Bytes(uint64(buf.Len()))),
	)
	return buf, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func performanceRows(records []index.PerformanceRecord) [][]any {
	rows := [][]any{{"date", "index_value", "daily_return", "cumulative_return"}}
	for _, r := range records {
		rows = append(rows, []any{r.Date, cellValue(r.IndexValue), cellValue(r.DailyReturn), cellValue(r.CumulativeReturn)})
	}
	return rows
}

func compositionRows(records []index.CompositionRecord) [][]any {
	rows := [][]any{{"date", "symbol", "name", "weight"}}
	for _, r := range records {
		rows = append(rows, []any{r.Date, r.Symbol, r.Name, cellValue(r.Weight)})
	}
	return rows
}

func changeRows(records []index.ChangeRecord) [][]any {
	rows := [][]any{{"date", "entered", "exited"}}
	for _, r := range records {
		rows = append(rows, []any{r.Date, strings.Join(r.Entered, ", "), strings.Join(r.Exited, ", ")})
	}
	return rows
}

// cellValue leaves null values as empty cells.
func cellValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
