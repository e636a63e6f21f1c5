package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// extractCSV serializes rows into text preserving row order. The header row
// comes through once like any other row.
func extractCSV(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // ragged rows are fine

	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("csv decode: %w", err)
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		lines = append(lines, strings.Join(row, " | "))
	}
	return strings.Join(lines, "\n"), nil
}
