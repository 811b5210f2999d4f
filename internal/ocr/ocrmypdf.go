// Package ocr binds the batch to an external OCR engine.
//
// The engine is the ocrmypdf command-line tool: it rasterizes, deskews,
// recognizes and re-encodes the document with an embedded text layer. This
// package only builds the command line and turns exit codes into typed
// domain errors.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spherical/ocr-batch/internal/domain"
)

// lookPath is the exec.LookPath implementation used to locate the engine.
// Tests may replace it to simulate a missing binary.
var lookPath = exec.LookPath

// stderrTail bounds how much engine stderr is kept for error messages.
const stderrTail = 2048

// ocrmypdf exit codes
const (
	exitOK                 = 0
	exitBadArgs            = 1
	exitInputFile          = 2
	exitMissingDependency  = 3
	exitInvalidOutputPDF   = 4
	exitFileAccessError    = 5
	exitAlreadyDoneOCR     = 6
	exitChildProcessError  = 7
	exitEncryptedPDF       = 8
	exitInvalidConfig      = 9
	exitPDFAConversionFail = 10
	exitOtherError         = 15
	exitCtrlC              = 130
)

// Options configures the ocrmypdf invocation
type Options struct {
	Path        string // binary name or path; defaults to "ocrmypdf"
	Deskew      bool
	JobsPerFile int
	ExtraArgs   []string
}

// OCRMyPDF implements domain.Engine by running one ocrmypdf process per call
type OCRMyPDF struct {
	opts Options
}

// NewOCRMyPDF creates an engine with the given options
func NewOCRMyPDF(opts Options) *OCRMyPDF {
	if opts.Path == "" {
		opts.Path = "ocrmypdf"
	}
	if opts.JobsPerFile < 1 {
		opts.JobsPerFile = 1
	}
	return &OCRMyPDF{opts: opts}
}

// Available reports whether the engine binary can be found
func (e *OCRMyPDF) Available() bool {
	_, err := lookPath(e.opts.Path)
	return err == nil
}

// Args builds the ocrmypdf argument list for a task
func (e *OCRMyPDF) Args(task domain.Task) []string {
	args := make([]string, 0, 10+len(e.opts.ExtraArgs))
	if task.ForceOCR {
		args = append(args, "--force-ocr")
	}
	if task.Language != "" {
		args = append(args, "--language", task.Language)
	}
	if e.opts.Deskew {
		args = append(args, "--deskew")
	}
	args = append(args, "--jobs", strconv.Itoa(e.opts.JobsPerFile))
	args = append(args, e.opts.ExtraArgs...)
	args = append(args, "--quiet", task.InputPath, task.OutputPath)
	return args
}

// Convert runs ocrmypdf for one task
func (e *OCRMyPDF) Convert(ctx context.Context, task domain.Task) error {
	bin, err := lookPath(e.opts.Path)
	if err != nil {
		return domain.EngineError(fmt.Sprintf("%s is not installed or not on PATH", e.opts.Path), err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, e.Args(task)...)
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return domain.EngineError("run ocrmypdf", err)
	}

	return classifyExit(exitErr.ExitCode(), tail(stderr.String()))
}

// Version returns the engine's self-reported version string
func (e *OCRMyPDF) Version(ctx context.Context) (string, error) {
	bin, err := lookPath(e.opts.Path)
	if err != nil {
		return "", domain.EngineError(fmt.Sprintf("%s is not installed or not on PATH", e.opts.Path), err)
	}

	out, err := exec.CommandContext(ctx, bin, "--version").Output()
	if err != nil {
		return "", domain.EngineError("query ocrmypdf version", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// classifyExit maps an ocrmypdf exit code to a domain error
func classifyExit(code int, stderr string) error {
	detail := stderr
	if detail == "" {
		detail = fmt.Sprintf("exit status %d", code)
	}
	cause := errors.New(detail)

	switch code {
	case exitOK:
		return nil
	case exitEncryptedPDF:
		return domain.EncryptedError("document is encrypted", cause)
	case exitInputFile:
		return domain.InputFileError("input file is not a valid PDF", cause)
	case exitFileAccessError:
		return domain.InputFileError("input or output file is not accessible", cause)
	case exitAlreadyDoneOCR:
		return domain.EngineError("page already has text (use --force-ocr)", cause)
	case exitMissingDependency:
		return domain.EngineError("ocrmypdf is missing a dependency", cause)
	case exitBadArgs, exitInvalidConfig:
		return domain.EngineError("ocrmypdf rejected its arguments", cause)
	case exitInvalidOutputPDF, exitPDFAConversionFail:
		return domain.EngineError("ocrmypdf produced an invalid output", cause)
	case exitChildProcessError:
		return domain.EngineError("ocrmypdf helper process failed", cause)
	case exitCtrlC:
		return domain.EngineError("ocrmypdf was interrupted", cause)
	default:
		return domain.EngineError(fmt.Sprintf("ocrmypdf failed with exit code %d", code), cause)
	}
}

// tail keeps the last stderrTail bytes of s, trimmed
func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		s = s[len(s)-stderrTail:]
	}
	return s
}
