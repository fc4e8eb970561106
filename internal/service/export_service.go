package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "cashbook/internal/errors"
	"cashbook/internal/model"
)

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

var exportHeaders = []string{"Date", "Description", "Amount", "Currency"}

// unsafeFilename matches characters not allowed in export filenames.
var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Export is a rendered sheet ready to be downloaded.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders sheets as spreadsheets.
type ExportService interface {
	Render(sheet *model.Sheet, format string) (*Export, error)
}

type exportService struct{}

// NewExportService creates a new export service.
func NewExportService() ExportService {
	return &exportService{}
}

// Render writes the transactions followed by a total balance row. The total
// is recomputed from the transactions, not taken from the stored totals.
func (s *exportService) Render(sheet *model.Sheet, format string) (*Export, error) {
	switch strings.ToLower(format) {
	case FormatXLSX, "":
		return s.renderXLSX(sheet)
	case FormatCSV:
		return s.renderCSV(sheet)
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", apperrors.ErrValidation, format)
	}
}

func (s *exportService) renderXLSX(sheet *model.Sheet) (*Export, error) {
	f := excelize.NewFile()
	defer f.Close()

	const tab = "Cashbook"
	if err := f.SetSheetName("Sheet1", tab); err != nil {
		return nil, fmt.Errorf("name worksheet: %w", err)
	}

	if err := f.SetCellValue(tab, "A1", "Cashbook - "+sheet.Name); err != nil {
		return nil, err
	}
	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		if err := f.SetCellValue(tab, cell, h); err != nil {
			return nil, err
		}
	}

	row := 4
	for _, tx := range sheet.Transactions {
		amount, _ := tx.Amount.Round(2).Float64()
		values := []any{tx.Date, tx.Description, amount, tx.Currency}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(tab, cell, v); err != nil {
				return nil, err
			}
		}
		row++
	}

	balance, _ := model.ComputeTotals(sheet.Transactions).Balance.Round(2).Float64()
	totalLabel, _ := excelize.CoordinatesToCellName(2, row+1)
	totalCell, _ := excelize.CoordinatesToCellName(3, row+1)
	if err := f.SetCellValue(tab, totalLabel, "Total Balance"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(tab, totalCell, balance); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(tab, "A", "A", 12)
	_ = f.SetColWidth(tab, "B", "B", 30)
	_ = f.SetColWidth(tab, "C", "C", 12)
	_ = f.SetColWidth(tab, "D", "D", 10)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &Export{
		Filename:    exportFilename(sheet, FormatXLSX),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Body:        buf.Bytes(),
	}, nil
}

func (s *exportService) renderCSV(sheet *model.Sheet) (*Export, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeaders); err != nil {
		return nil, err
	}
	for _, tx := range sheet.Transactions {
		if err := w.Write([]string{tx.Date, tx.Description, tx.Amount.StringFixed(2), tx.Currency}); err != nil {
			return nil, err
		}
	}
	balance := model.ComputeTotals(sheet.Transactions).Balance
	if err := w.Write([]string{"", "Total Balance", balance.StringFixed(2), ""}); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}

	return &Export{
		Filename:    exportFilename(sheet, FormatCSV),
		ContentType: "text/csv; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}

func exportFilename(sheet *model.Sheet, ext string) string {
	name := strings.Trim(unsafeFilename.ReplaceAllString(sheet.Name, "_"), "_")
	if name == "" {
		name = sheet.ID.String()
	}
	return fmt.Sprintf("cashbook_%s.%s", name, ext)
}
