// Package workbook reads a multi-sheet sales spreadsheet into a read-only
// models.Workbook. Each sheet is one product category.
package workbook

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"outlet-dashboard/internal/errors"
	"outlet-dashboard/internal/models"
)

// ErrFileNotFound indicates the workbook path does not exist.
var ErrFileNotFound = stderrors.New("file not found")

// ErrNoSheets indicates the file opened but holds no usable sheet.
var ErrNoSheets = stderrors.New("workbook has no sheets")

// Loader turns spreadsheet files into workbooks.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load opens path and reads every sheet. Any failure is a LOAD_ERROR and no
// partial workbook is returned.
func (l *Loader) Load(ctx context.Context, path string) (*models.Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Load(fmt.Errorf("%w: %s", ErrFileNotFound, path), "Failed to load data: workbook file not found")
		}
		return nil, errors.Load(err, "Failed to load data: workbook file is unreadable")
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Load(err, "Failed to load data: file is not a valid xlsx workbook")
	}
	defer f.Close()

	return l.read(ctx, f, filepath.Base(path))
}

// LoadReader reads a workbook from r; name is used as the workbook source.
func (l *Loader) LoadReader(ctx context.Context, name string, r io.Reader) (*models.Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Load(err, "Failed to load data: file is not a valid xlsx workbook")
	}
	defer f.Close()

	return l.read(ctx, f, name)
}

func (l *Loader) read(ctx context.Context, f *excelize.File, source string) (*models.Workbook, error) {
	wb := &models.Workbook{Source: source}

	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Load(err, "Failed to load data: load canceled")
		}

		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, errors.Load(fmt.Errorf("sheet %q: %w", name, err), "Failed to load data: sheet is unreadable")
		}

		sheet := l.parseSheet(name, rows)
		l.logger.Debug("sheet parsed",
			"sheet", name,
			"outlets", len(sheet.Outlets),
			"months", len(sheet.Months),
		)
		wb.Sheets = append(wb.Sheets, sheet)
	}

	if len(wb.Sheets) == 0 {
		return nil, errors.Load(ErrNoSheets, "Failed to load data: workbook has no sheets")
	}

	return wb, nil
}

// parseSheet maps the header row to trimmed labels and every following row
// to an outlet. Labels are trimmed here and nowhere else.
func (l *Loader) parseSheet(name string, rows [][]string) *models.Sheet {
	sheet := &models.Sheet{Name: name}

	header := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			header = i
			break
		}
	}
	if header < 0 {
		return sheet
	}

	index := make(map[string]int)
	for col, raw := range rows[header] {
		label := strings.TrimSpace(raw)
		if label == "" {
			continue
		}
		if _, dup := index[label]; dup {
			l.logger.Warn("duplicate column label ignored", "sheet", name, "label", label, "column", col+1)
			continue
		}
		index[label] = col
		sheet.Columns = append(sheet.Columns, label)
		if models.IsMonthLabel(label) {
			sheet.Months = append(sheet.Months, label)
		}
	}
	slices.Sort(sheet.Months)

	for r, row := range rows[header+1:] {
		if isBlankRow(row) {
			continue
		}

		outlet := models.Outlet{
			ID:         cellText(row, index, models.ColOutletID),
			Name:       cellText(row, index, models.ColOutletName),
			HeadOffice: cellText(row, index, models.ColHeadOffice),
			Channel:    cellText(row, index, models.ColCustomerChannel),
			Segment:    cellText(row, index, models.ColCustomerSegment),
			Status:     cellText(row, index, models.ColCustomerStatus),
			Warehouse:  cellText(row, index, models.ColWarehouse),
			Sales:      make(map[string]float64),
		}
		if outlet.ID == "" && outlet.Name == "" {
			continue
		}

		for _, month := range sheet.Months {
			raw := cellText(row, index, month)
			if raw == "" {
				continue
			}
			v, err := parseAmount(raw)
			if err != nil {
				l.logger.Debug("non-numeric sales cell treated as absent",
					"sheet", name,
					"row", header+r+2,
					"month", month,
					"value", raw,
				)
				continue
			}
			outlet.Sales[month] = v
		}

		sheet.Outlets = append(sheet.Outlets, outlet)
	}

	return sheet
}

func cellText(row []string, index map[string]int, label string) string {
	col, ok := index[label]
	if !ok || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
