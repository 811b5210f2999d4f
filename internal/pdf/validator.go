package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spherical/ocr-batch/internal/domain"
)

// headerWindow is how far into a file the %PDF- marker may appear.
const headerWindow = 1024

var pdfMagic = []byte("%PDF-")

// Validator provides input validation for directories and PDF files
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateDir validates that path exists and is a directory
func (v *Validator) ValidateDir(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("input path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("the provided path '%s' does not exist", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access path: %s", path), err)
	}

	if !info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("the provided path '%s' is not a valid directory", path), nil)
	}

	return nil
}

// ValidatePDFHeader checks that the file carries the %PDF- magic bytes
func (v *Validator) ValidatePDFHeader(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return domain.InputFileError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	defer file.Close()

	buf := make([]byte, headerWindow)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return domain.InputFileError(fmt.Sprintf("cannot read file: %s", path), err)
	}
	if n == 0 {
		return domain.InputFileError("file is empty", nil)
	}

	if !bytes.Contains(buf[:n], pdfMagic) {
		return domain.InputFileError("file is not a PDF (missing %PDF- header)", nil)
	}

	return nil
}
