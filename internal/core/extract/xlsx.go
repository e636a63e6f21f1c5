package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractXLSX serializes every sheet's cells in sheet-then-row-then-column
// order. Each sheet is announced with a header line so chunk text keeps its
// provenance.
func extractXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("xlsx decode: %w", err)
	}
	defer f.Close()

	var lines []string
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return "", fmt.Errorf("xlsx sheet %q: %w", sheetName, err)
		}
		lines = append(lines, fmt.Sprintf("--- Sheet: %s ---", sheetName))
		for _, row := range rows {
			if len(row) == 0 {
				continue
			}
			lines = append(lines, strings.Join(row, " | "))
		}
	}
	return strings.Join(lines, "\n"), nil
}
