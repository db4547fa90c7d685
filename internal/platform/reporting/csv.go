package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// RenderCSV writes header and rows as a CSV download named baseName.csv.
func RenderCSV(baseName string, header []string, rows [][]string) (*Rendered, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("csv row has %d fields, header has %d", len(row), len(header))
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return &Rendered{
		FileName:    baseName + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}
