package extract

import (
	"context"
	"fmt"

	"github.com/markagu-dev/Vectora/internal/core"
	"github.com/markagu-dev/Vectora/internal/models"
)

// Extractor decodes raw file bytes into plain text by FileKind. It is a pure
// transform: no I/O beyond the buffer it is handed, no state between calls.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract dispatches to the kind-specific decoder. The switch is exhaustive
// over models.FileKind; an unknown kind here means the API boundary let an
// unvalidated MIME type through.
func (e *Extractor) Extract(ctx context.Context, data []byte, kind models.FileKind) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch kind {
	case models.KindPDF:
		return extractPDF(data)
	case models.KindCSV:
		return extractCSV(data)
	case models.KindXLSX:
		return extractXLSX(data)
	case models.KindDOCX:
		return extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedFileType, kind)
	}
}

var _ core.TextExtractor = (*Extractor)(nil)
