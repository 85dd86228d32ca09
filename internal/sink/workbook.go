package sink

import (
	"context"
	"os"

	"marketpulse/internal/market"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// defaultSheet is the sheet every new excelize workbook starts with.
const defaultSheet = "Sheet1"

// TableHeader is the first row of the live table.
var TableHeader = []string{
	"name",
	"symbol",
	"current_price",
	"market_cap",
	"total_volume",
	"price_change_percentage_24h",
}

// Workbook mirrors each snapshot into one sheet of an .xlsx file.
type Workbook struct {
	Path   string
	Sheet  string
	Logger *zap.Logger
}

func NewWorkbook(path, sheet string, logger *zap.Logger) *Workbook {
	return &Workbook{Path: path, Sheet: sheet, Logger: logger}
}

func (w *Workbook) Name() string { return "live_table" }

// Replace opens (or creates) the workbook, clears the sheet, writes the
// header and one row per asset from A1, and saves.
func (w *Workbook) Replace(ctx context.Context, snap market.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return &market.PublishError{Sink: w.Name(), Err: err}
	}
	if err := w.replace(snap); err != nil {
		return &market.PublishError{Sink: w.Name(), Err: err}
	}
	return nil
}

func (w *Workbook) replace(snap market.Snapshot) error {
	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := clearSheet(f, w.Sheet); err != nil {
		return err
	}

	header := make([]interface{}, len(TableHeader))
	for i, h := range TableHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(w.Sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "write header")
	}

	for i, a := range snap.Assets() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		row := []interface{}{
			a.Name,
			a.Symbol,
			a.CurrentPrice,
			a.MarketCap,
			a.TotalVolume,
			a.PriceChangePercentage24h,
		}
		if err := f.SetSheetRow(w.Sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "write row %d", i+2)
		}
	}

	if err := f.SaveAs(w.Path); err != nil {
		return errors.Wrapf(err, "save %s", w.Path)
	}
	return nil
}

// open returns the workbook with w.Sheet present, creating the file if needed.
func (w *Workbook) open() (*excelize.File, error) {
	created := false
	f, err := excelize.OpenFile(w.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		f = excelize.NewFile()
		created = true
		w.logger().Info("creating workbook", zap.String("path", w.Path), zap.String("sheet", w.Sheet))
	case err != nil:
		return nil, errors.Wrapf(err, "open %s", w.Path)
	}

	idx, err := f.GetSheetIndex(w.Sheet)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "sheet %q", w.Sheet)
	}
	if idx == -1 {
		if idx, err = f.NewSheet(w.Sheet); err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "create sheet %q", w.Sheet)
		}
		f.SetActiveSheet(idx)
		if created && w.Sheet != defaultSheet {
			if err := f.DeleteSheet(defaultSheet); err != nil {
				f.Close()
				return nil, errors.Wrap(err, "drop default sheet")
			}
		}
	}
	return f, nil
}

// clearSheet blanks every populated cell, keeping the sheet and its formatting.
func clearSheet(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return errors.Wrapf(err, "read sheet %q", sheet)
	}
	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return errors.Wrap(err, "cell name")
			}
			if err := f.SetCellDefault(sheet, cell, ""); err != nil {
				return errors.Wrapf(err, "clear %s", cell)
			}
		}
	}
	return nil
}

func (w *Workbook) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}
