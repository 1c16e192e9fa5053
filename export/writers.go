package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tealeg/xlsx/v2"
)

// Formats accepted by Write.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Downloadable artifacts of a run.
const (
	ArtifactResults    = "results"
	ArtifactListings   = "listings"
	ArtifactPagination = "pagination"
)

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Write renders t in format. sheet names the XLSX worksheet.
func Write(w io.Writer, t Table, format, sheet string) error {
	switch format {
	case FormatJSON, "":
		return WriteJSON(w, t.Objects())
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t, sheet)
	default:
		return fmt.Errorf("export: unsupported format %q", format)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}

// WriteCSV writes a header row followed by one record per row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("export: write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes t as a single-sheet workbook.
func WriteXLSX(w io.Writer, t Table, sheet string) error {
	if sheet == "" {
		sheet = "Sheet1"
	}
	f := xlsx.NewFile()
	sh, err := f.AddSheet(sheet)
	if err != nil {
		return fmt.Errorf("export: add sheet: %w", err)
	}

	addRow(sh, t.Columns)
	for _, rec := range t.Records() {
		addRow(sh, rec)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write xlsx: %w", err)
	}
	return nil
}

func addRow(sh *xlsx.Sheet, cells []string) {
	row := sh.AddRow()
	for _, v := range cells {
		row.AddCell().SetString(v)
	}
}
