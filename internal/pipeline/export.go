package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"nydb/internal"
	"nydb/internal/util"
)

// exportHeaders is the index column (blank header) followed by the output columns.
func exportHeaders() []string {
	return append([]string{""}, internal.OutputColumns...)
}

// ExportRowsToXLSX writes rows to the first sheet of a new workbook. An empty sheetName
// keeps the workbook default.
func ExportRowsToXLSX(rows []internal.Row, outputPath, sheetName string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheetName != "" && sheetName != sheet {
		if err := f.SetSheetName(sheet, sheetName); err != nil {
			return err
		}
		sheet = sheetName
	}

	for i, h := range exportHeaders() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.Index)
		for j, v := range row.Values() {
			if v == nil {
				continue
			}
			set(j+2, *v)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func ExportRowsToCSV(rows []internal.Row, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(exportHeaders()); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, 0, len(internal.OutputColumns)+1)
		record = append(record, strconv.Itoa(row.Index))
		for _, v := range row.Values() {
			record = append(record, util.Deref(v))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return out.Close()
}
