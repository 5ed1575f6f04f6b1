// Package report renders analysis results as spreadsheet workbooks and a
// JSON artifact.
package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	headerFillColor = "366092"
	headerFontColor = "FFFFFF"
	maxColumnWidth  = 50
	maxSheetName    = 31
)

// headerStyle builds the shared header row style: dark blue fill, bold
// white text.
func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFillColor}, Pattern: 1},
		Font: &excelize.Font{Bold: true, Color: headerFontColor},
	})
}

// writeSheet fills a sheet with a header row plus data rows, applies the
// header style, and sizes every column to its content up to the width
// cap.
func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}) error {
	widths := make([]float64, len(header))
	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
		widths[col] = float64(len(title)) + 2
	}
	for r, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
			if w := float64(len(fmt.Sprint(value))) + 2; col < len(widths) && w > widths[col] {
				widths[col] = w
			}
		}
	}
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, style); err != nil {
		return err
	}
	for col, width := range widths {
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

var sheetNameCleaner = strings.NewReplacer("[", "", "]", "", ":", "", "*", "", "?", "", "/", "_", "\\", "_")

// sheetName sanitizes a table name into a legal, unique worksheet name.
func sheetName(f *excelize.File, name string) string {
	cleaned := sheetNameCleaner.Replace(strings.TrimSpace(name))
	if cleaned == "" {
		cleaned = "Sheet"
	}
	if len(cleaned) > maxSheetName {
		cleaned = cleaned[:maxSheetName]
	}
	candidate := cleaned
	for n := 2; sheetExists(f, candidate); n++ {
		suffix := fmt.Sprintf("_%d", n)
		trimmed := cleaned
		if len(trimmed)+len(suffix) > maxSheetName {
			trimmed = trimmed[:maxSheetName-len(suffix)]
		}
		candidate = trimmed + suffix
	}
	return candidate
}

func sheetExists(f *excelize.File, name string) bool {
	for _, existing := range f.GetSheetList() {
		if strings.EqualFold(existing, name) {
			return true
		}
	}
	return false
}

// finalize drops the default sheet and writes the workbook.
func finalize(f *excelize.File, path string) error {
	if len(f.GetSheetList()) > 1 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
