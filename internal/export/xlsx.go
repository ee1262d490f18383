package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mohamedkhairy/intraday-volatility/internal/analysis"
	"github.com/mohamedkhairy/intraday-volatility/internal/models"
)

// Sheet names of the workbook, in order
const (
	SheetBars      = "Bars"
	SheetDaily     = "Daily"
	SheetSummary   = "Summary"
	SheetAnomalies = "Anomalies"
	SheetIntraday  = "Intraday"
)

const cellTimeLayout = "2006-01-02 15:04:05"

// WriteWorkbook renders the report as an XLSX workbook at path. Undefined
// values are left as blank cells.
func WriteWorkbook(report *analysis.Report, path string) error {
	f, err := BuildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// BuildWorkbook renders the report into an in-memory workbook; the caller closes it
func BuildWorkbook(report *analysis.Report) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("report cannot be nil")
	}

	f := excelize.NewFile()
	w := &workbook{file: f}
	if err := f.SetSheetName("Sheet1", SheetBars); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetDaily, SheetSummary, SheetAnomalies, SheetIntraday} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	w.header = header

	w.writeBars(report)
	w.writeDaily(report)
	w.writeSummary(report)
	w.writeAnomalies(report)
	w.writeIntraday(report)
	if w.err != nil {
		f.Close()
		return nil, fmt.Errorf("render workbook: %w", w.err)
	}

	f.SetActiveSheet(0)
	return f, nil
}

// workbook keeps the first write error so sheet writers stay linear
type workbook struct {
	file   *excelize.File
	header int
	err    error
}

func (w *workbook) row(sheet string, n int, cells []interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.file.SetSheetRow(sheet, cell, &cells)
}

func (w *workbook) headerRow(sheet string, cells ...interface{}) {
	w.row(sheet, 1, cells)
	if w.err != nil {
		return
	}
	if w.err = w.file.SetRowStyle(sheet, 1, 1, w.header); w.err != nil {
		return
	}
	w.err = w.file.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cell converts an optional value to a workbook cell; nil renders blank
func cell(v models.Value) interface{} {
	if !v.Valid {
		return nil
	}
	return v.V
}

func timeCell(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(cellTimeLayout)
}

func (w *workbook) writeBars(r *analysis.Report) {
	maNames := r.MovingAverageNames()
	header := []interface{}{"Timestamp", "Open", "High", "Low", "Close", "Volume", "Return", "Volatility", "VWAP"}
	for _, name := range maNames {
		header = append(header, name)
	}
	header = append(header, "ZScore", "Anomaly")
	w.headerRow(SheetBars, header...)

	for i, b := range r.Bars {
		cells := []interface{}{
			timeCell(b.Timestamp), b.Open, b.High, b.Low, b.Close, b.Volume,
			cell(b.Return), cell(b.Volatility), cell(b.VWAP),
		}
		for _, name := range maNames {
			cells = append(cells, cell(b.MovingAverages[name]))
		}
		cells = append(cells, cell(b.ZScore), b.Anomaly)
		w.row(SheetBars, i+2, cells)
	}
}

func (w *workbook) writeDaily(r *analysis.Report) {
	w.headerRow(SheetDaily, "Date", "Bars", "Return", "Volatility", "Skewness",
		"TotalVolume", "AvgVolume", "AvgPrice", "PriceRange")
	for i, d := range r.Daily {
		w.row(SheetDaily, i+2, []interface{}{
			d.Date, d.Bars, cell(d.Return), cell(d.Volatility), cell(d.Skewness),
			d.TotalVolume, cell(d.AvgVolume), cell(d.AvgPrice), cell(d.PriceRange),
		})
	}
}

func (w *workbook) writeSummary(r *analysis.Report) {
	s := r.Summary
	rows := [][]interface{}{
		{"Run ID", r.RunID},
		{"Symbol", r.Symbol},
		{"Timezone", r.Timezone},
		{"Interval", r.Interval},
		{"Generated", timeCell(r.GeneratedAt)},
		{"Raw bars", r.RawBars},
		{"Clean bars", s.Bars},
		{"Dropped bars", r.Dropped.Total()},
		{"Days", s.Days},
		{"Start", timeCell(s.Start)},
		{"End", timeCell(s.End)},
		{"Mean return", cell(s.MeanReturn)},
		{"Annualized volatility", cell(s.Volatility)},
		{"Skewness", cell(s.Skewness)},
		{"Mean volume", cell(s.MeanVolume)},
		{"Anomalies", len(r.Anomalies)},
		{"Fence multiplier", r.Params.FenceMultiplier},
		{"Volatility window", r.Params.VolatilityWindow},
		{"Z-score threshold", r.Params.ZScoreThreshold},
		{"Bars per day", r.Params.BarsPerDay},
		{"Trading days per year", r.Params.TradingDays},
	}
	w.headerRow(SheetSummary, "Metric", "Value")
	for i, cells := range rows {
		w.row(SheetSummary, i+2, cells)
	}
}

func (w *workbook) writeAnomalies(r *analysis.Report) {
	w.headerRow(SheetAnomalies, "Index", "Timestamp", "ZScore")
	for i, a := range r.Anomalies {
		w.row(SheetAnomalies, i+2, []interface{}{a.Index, timeCell(a.Timestamp), a.ZScore})
	}
}

func (w *workbook) writeIntraday(r *analysis.Report) {
	w.headerRow(SheetIntraday, "Hour", "Bars", "AvgVolatility", "AvgVolume", "AvgPrice")
	for i, h := range r.Hourly {
		w.row(SheetIntraday, i+2, []interface{}{
			h.Hour, h.Bars, cell(h.AvgVolatility), cell(h.AvgVolume), cell(h.AvgPrice),
		})
	}
}
