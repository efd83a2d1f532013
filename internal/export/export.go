// Package export builds transaction spreadsheets and defines where exported
// files end up.
package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"finboard/internal/core"
)

// Saver persists an exported file under name and reports where it went.
type Saver interface {
	Save(ctx context.Context, name string, data []byte) (location string, err error)
}

// Workbook renders txs as a single-sheet xlsx file, one row per transaction.
func Workbook(kind core.Kind, txs []core.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := kind.Title()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	labelHeader := "Source"
	if kind == core.Expense {
		labelHeader = "Category"
	}
	header := []any{labelHeader, "Amount", "Date"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, tx := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		row := []any{tx.Label, tx.Amount, tx.Date.Format("2006-01-02")}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
