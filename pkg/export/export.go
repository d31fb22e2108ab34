package export

import (
	"fmt"
	"strings"
)

// Format names a supported download format.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat normalises a query value, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(FormatCSV):
		return FormatCSV, nil
	case string(FormatPDF):
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Filename builds a download name such as inscripciones-20240131.csv.
func (f Format) Filename(base, stamp string) string {
	return fmt.Sprintf("%s-%s.%s", base, stamp, f)
}

// Column is one exported field. Width is a relative weight used by the PDF layout.
type Column struct {
	Title string
	Width float64
}

// Table is the tabular content shared by every renderer.
type Table struct {
	Title   string
	Columns []Column
	Rows    [][]string
}

// Renderer turns a table into file bytes.
type Renderer interface {
	Render(Table) ([]byte, error)
}

// For returns the renderer for a format.
func For(f Format) Renderer {
	if f == FormatPDF {
		return NewPDFRenderer()
	}
	return NewCSVRenderer()
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("export requires at least one column")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(t.Columns))
		}
	}
	return nil
}
