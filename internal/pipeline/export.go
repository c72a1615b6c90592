package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"reconmail/internal"
)

// ExportSheetToXLSX writes a local workbook mirroring a remote sheet,
// columns in the same union order the remote merge uses.
func ExportSheetToXLSX(rows []internal.SheetRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	header := unionColumns(nil, rows)
	for i, col := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col)
	}

	for i, row := range rows {
		r := i + 2
		for j, col := range header {
			cell, _ := excelize.CoordinatesToCellName(j+1, r)
			_ = f.SetCellValue(sheet, cell, row[col])
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
