package worker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/ocr-batch/internal/domain"
)

type engineFunc func(ctx context.Context, task domain.Task) error

func (f engineFunc) Convert(ctx context.Context, task domain.Task) error { return f(ctx, task) }

type inspectorFunc func(ctx context.Context, path string) (*domain.DocumentInfo, error)

func (f inspectorFunc) Inspect(ctx context.Context, path string) (*domain.DocumentInfo, error) {
	return f(ctx, path)
}

type proberFunc func(ctx context.Context, path string) (*domain.TextLayer, error)

func (f proberFunc) Probe(ctx context.Context, path string) (*domain.TextLayer, error) {
	return f(ctx, path)
}

var task = domain.Task{
	InputPath:  "/scans/a.pdf",
	OutputPath: "/scans/OCRed_PDFs_/[OCR] a.pdf",
	Language:   "eng",
}

func TestRun_Success(t *testing.T) {
	var got domain.Task
	r := NewRunner(engineFunc(func(_ context.Context, tk domain.Task) error {
		got = tk
		return nil
	}))

	res := r.Run(context.Background(), task)

	s, ok := res.(domain.Success)
	require.True(t, ok, "expected Success, got %T", res)
	assert.Equal(t, task.InputPath, s.InputPath)
	assert.Equal(t, task.OutputPath, s.OutputPath)
	assert.Equal(t, task, got)
	assert.Zero(t, s.Pages)
}

func TestRun_FailureMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind domain.ErrorType
		wantMsg  string
	}{
		{
			name:     "encrypted",
			err:      domain.EncryptedError("document is encrypted", errors.New("exit status 8")),
			wantKind: domain.ErrorTypeEncrypted,
			wantMsg:  "Encrypted PDF - cannot process.",
		},
		{
			name:     "input file",
			err:      domain.InputFileError("input file is not a valid PDF", errors.New("no header")),
			wantKind: domain.ErrorTypeInputFile,
			wantMsg:  "Input file error: input file is not a valid PDF: no header",
		},
		{
			name:     "engine",
			err:      domain.EngineError("page already has text (use --force-ocr)", nil),
			wantKind: domain.ErrorTypeEngine,
			wantMsg:  "Unexpected error: page already has text (use --force-ocr)",
		},
		{
			name:     "untyped",
			err:      errors.New("disk full"),
			wantKind: domain.ErrorTypeUnexpected,
			wantMsg:  "Unexpected error: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(engineFunc(func(context.Context, domain.Task) error { return tt.err }))

			res := r.Run(context.Background(), task)

			f, ok := res.(domain.Failure)
			require.True(t, ok, "expected Failure, got %T", res)
			assert.Equal(t, task.InputPath, f.InputPath)
			assert.Equal(t, tt.wantKind, f.Kind)
			assert.Equal(t, tt.wantMsg, f.Message)
		})
	}
}

func TestRun_RecoversPanic(t *testing.T) {
	r := NewRunner(engineFunc(func(context.Context, domain.Task) error { panic("nil map write") }))

	var res domain.Result
	require.NotPanics(t, func() { res = r.Run(context.Background(), task) })

	f, ok := res.(domain.Failure)
	require.True(t, ok)
	assert.Equal(t, domain.ErrorTypeUnexpected, f.Kind)
	assert.True(t, strings.HasPrefix(f.Message, "Unexpected error: panic: nil map write"))
}

func TestRun_InspectorShortCircuits(t *testing.T) {
	engineCalled := false
	r := NewRunner(
		engineFunc(func(context.Context, domain.Task) error { engineCalled = true; return nil }),
		WithInspector(inspectorFunc(func(context.Context, string) (*domain.DocumentInfo, error) {
			return nil, domain.EncryptedError("document is encrypted", nil)
		})),
	)

	res := r.Run(context.Background(), task)

	f, ok := res.(domain.Failure)
	require.True(t, ok)
	assert.Equal(t, MsgEncrypted, f.Message)
	assert.False(t, engineCalled)
}

func TestRun_ProberFillsStats(t *testing.T) {
	r := NewRunner(
		engineFunc(func(context.Context, domain.Task) error { return nil }),
		WithInspector(inspectorFunc(func(_ context.Context, path string) (*domain.DocumentInfo, error) {
			return &domain.DocumentInfo{Path: path, Pages: 2}, nil
		})),
		WithProber(proberFunc(func(_ context.Context, path string) (*domain.TextLayer, error) {
			assert.Equal(t, task.OutputPath, path)
			return &domain.TextLayer{Pages: 2, Chars: 1200}, nil
		})),
	)

	s, ok := r.Run(context.Background(), task).(domain.Success)
	require.True(t, ok)
	assert.Equal(t, 2, s.Pages)
	assert.Equal(t, 1200, s.TextChars)
}

func TestRun_ProberErrorKeepsSuccess(t *testing.T) {
	r := NewRunner(
		engineFunc(func(context.Context, domain.Task) error { return nil }),
		WithProber(proberFunc(func(context.Context, string) (*domain.TextLayer, error) {
			return nil, errors.New("unsupported xref stream")
		})),
	)

	s, ok := r.Run(context.Background(), task).(domain.Success)
	require.True(t, ok)
	assert.Zero(t, s.TextChars)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, MsgEncrypted, Message(domain.EncryptedError("x", nil)))
	assert.Equal(t, "Input file error: file is empty", Message(domain.InputFileError("file is empty", nil)))
	assert.Equal(t, "Unexpected error: boom", Message(errors.New("boom")))
}
