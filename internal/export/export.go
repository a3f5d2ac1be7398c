// Package export writes widget label tables as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/pdf-widget-renamer/internal/layout"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const sheetName = "Labels"

// Header is the first row of every export.
var Header = []string{"file", "field_name", "tooltip", "label"}

// Row is one widget of one file.
type Row struct {
	File      string
	FieldName string
	Tooltip   string
	Label     string
}

func (r Row) values() []string {
	return []string{r.File, r.FieldName, r.Tooltip, layout.CleanLabel(r.Label)}
}

// FormatFromPath picks the format from the output file extension, defaulting
// to CSV.
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Write encodes rows in the given format.
func Write(w io.Writer, format string, rows []Row) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, rows)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteCSV writes the header and rows as CSV. Commas in labels become spaces.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.values()); err != nil {
			return fmt.Errorf("csv write: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	return nil
}

// WriteXLSX writes the header and rows to a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	write := func(row int, values []string) {
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	write(1, Header)
	for i, r := range rows {
		write(i+2, r.values())
	}

	_ = f.SetColWidth(sheetName, "A", "A", 40) // file
	_ = f.SetColWidth(sheetName, "B", "C", 28) // name, tooltip
	_ = f.SetColWidth(sheetName, "D", "D", 48) // label

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
