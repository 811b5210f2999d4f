package pdf

import (
	"context"
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/spherical/ocr-batch/internal/domain"
)

// openDocument is the go-fitz entry point used by Inspector.
// Tests may replace it to simulate documents MuPDF rejects.
var openDocument = func(path string) (document, error) {
	return fitz.New(path)
}

type document interface {
	NumPage() int
	Close() error
}

// Inspector runs a cheap pre-flight check with MuPDF so that encrypted and
// broken documents are classified without spawning the OCR engine.
type Inspector struct {
	validator *Validator
}

// NewInspector creates a new inspector
func NewInspector() *Inspector {
	return &Inspector{validator: NewValidator()}
}

// Inspect validates the header, opens the document and counts its pages
func (i *Inspector) Inspect(ctx context.Context, path string) (*domain.DocumentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := i.validator.ValidatePDFHeader(path); err != nil {
		return nil, err
	}

	doc, err := openDocument(path)
	if err != nil {
		if errors.Is(err, fitz.ErrNeedsPassword) {
			return nil, domain.EncryptedError("document is encrypted", err)
		}
		return nil, domain.InputFileError("document cannot be opened", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages <= 0 {
		return nil, domain.InputFileError(fmt.Sprintf("document has no pages: %s", path), nil)
	}

	return &domain.DocumentInfo{Path: path, Pages: pages}, nil
}
