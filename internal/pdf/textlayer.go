package pdf

import (
	"context"
	"fmt"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/spherical/ocr-batch/internal/domain"
)

// TextProber reads the embedded text layer of an OCR output with a
// pure-Go parser, independent of the engine that wrote it.
type TextProber struct{}

// NewTextProber creates a new text layer prober
func NewTextProber() *TextProber {
	return &TextProber{}
}

// Probe counts pages and non-space characters in the document's text layer
func (p *TextProber) Probe(ctx context.Context, path string) (layer *domain.TextLayer, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			layer = nil
			err = domain.InputFileError(fmt.Sprintf("parse text layer of %s", path), fmt.Errorf("%v", r))
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, domain.InputFileError(fmt.Sprintf("open pdf %s", path), err)
	}
	defer func() { _ = f.Close() }()

	numPages := r.NumPage()
	fonts := make(map[string]*pdf.Font)
	chars := 0

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}

		text, pageErr := page.GetPlainText(fonts)
		if pageErr != nil {
			return nil, domain.InputFileError(fmt.Sprintf("read pdf page %d", i), pageErr)
		}
		for _, c := range text {
			if !unicode.IsSpace(c) {
				chars++
			}
		}
	}

	return &domain.TextLayer{Pages: numPages, Chars: chars}, nil
}
