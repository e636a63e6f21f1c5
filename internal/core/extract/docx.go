package extract

import (
	"bytes"
	"fmt"

	"code.sajari.com/docconv"
)

// extractDOCX pulls paragraph text in document order.
func extractDOCX(data []byte) (string, error) {
	body, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("docx decode: %w", err)
	}
	return body, nil
}
