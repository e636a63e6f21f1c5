package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates page text in page order. No OCR is attempted, so an
// image-only PDF yields near-empty text; that is a valid small document, not
// an error.
func extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs; surface those as a
	// decode error instead of taking down the batch.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf decode: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf decode: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdf page %d: %w", i, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
