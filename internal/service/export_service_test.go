package service

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "cashbook/internal/errors"
	"cashbook/internal/model"
)

func exportFixture() *model.Sheet {
	return &model.Sheet{
		ID:   uuid.New(),
		Name: "Jan 2024 / home",
		Transactions: []model.Transaction{
			{ID: 1, Date: "2024-01-01", Description: "salary", Amount: decimal.RequireFromString("1500"), Currency: "USD"},
			{ID: 2, Date: "2024-01-03", Description: "rent", Amount: decimal.RequireFromString("-700.5"), Currency: "USD"},
		},
	}
}

func TestExportService_CSV(t *testing.T) {
	out, err := NewExportService().Render(exportFixture(), "csv")
	require.NoError(t, err)

	assert.Equal(t, "text/csv; charset=utf-8", out.ContentType)
	assert.Equal(t, "cashbook_Jan_2024_home.csv", out.Filename)

	rows, err := csv.NewReader(bytes.NewReader(out.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Date", "Description", "Amount", "Currency"}, rows[0])
	assert.Equal(t, []string{"2024-01-03", "rent", "-700.50", "USD"}, rows[2])
	assert.Equal(t, []string{"", "Total Balance", "799.50", ""}, rows[3])
}

func TestExportService_XLSX(t *testing.T) {
	out, err := NewExportService().Render(exportFixture(), "")
	require.NoError(t, err)
	assert.Equal(t, "cashbook_Jan_2024_home.xlsx", out.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(out.Body))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Cashbook"}, f.GetSheetList())

	title, err := f.GetCellValue("Cashbook", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Cashbook - Jan 2024 / home", title)

	desc, err := f.GetCellValue("Cashbook", "B5")
	require.NoError(t, err)
	assert.Equal(t, "rent", desc)

	label, err := f.GetCellValue("Cashbook", "B7")
	require.NoError(t, err)
	assert.Equal(t, "Total Balance", label)

	total, err := f.GetCellValue("Cashbook", "C7")
	require.NoError(t, err)
	assert.Equal(t, "799.5", total)
}

func TestExportService_UnsupportedFormat(t *testing.T) {
	_, err := NewExportService().Render(exportFixture(), "pdf")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestExportFilename_FallsBackToID(t *testing.T) {
	sheet := &model.Sheet{ID: uuid.New(), Name: "///"}
	assert.Equal(t, "cashbook_"+sheet.ID.String()+".csv", exportFilename(sheet, FormatCSV))
}
