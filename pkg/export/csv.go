package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// utf8BOM lets spreadsheet tools detect accented characters.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVRenderer writes a header row followed by one record per row.
type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

func (r *CSVRenderer) Render(t Table) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(append([]byte(nil), utf8BOM...))
	w := csv.NewWriter(buf)

	header := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col.Title
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
