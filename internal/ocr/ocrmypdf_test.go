package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/ocr-batch/internal/domain"
)

// fakeEngine writes a shell script standing in for ocrmypdf and returns its path.
func fakeEngine(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine stand-ins need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ocrmypdf")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func testTask(t *testing.T) domain.Task {
	dir := t.TempDir()
	in := filepath.Join(dir, "scan.pdf")
	require.NoError(t, os.WriteFile(in, []byte("%PDF-1.4\n"), 0o600))
	return domain.Task{
		InputPath:  in,
		OutputPath: filepath.Join(dir, "[OCR] scan.pdf"),
		Language:   "eng",
	}
}

func TestArgs(t *testing.T) {
	e := NewOCRMyPDF(Options{Deskew: true, JobsPerFile: 2, ExtraArgs: []string{"--rotate-pages"}})

	args := e.Args(domain.Task{InputPath: "in.pdf", OutputPath: "out.pdf", ForceOCR: true, Language: "eng+fil"})
	assert.Equal(t, []string{
		"--force-ocr", "--language", "eng+fil", "--deskew", "--jobs", "2",
		"--rotate-pages", "--quiet", "in.pdf", "out.pdf",
	}, args)

	plain := NewOCRMyPDF(Options{}).Args(domain.Task{InputPath: "in.pdf", OutputPath: "out.pdf", Language: "eng"})
	assert.Equal(t, []string{"--language", "eng", "--jobs", "1", "--quiet", "in.pdf", "out.pdf"}, plain)
}

func TestClassifyExit(t *testing.T) {
	tests := []struct {
		code int
		want domain.ErrorType
	}{
		{exitEncryptedPDF, domain.ErrorTypeEncrypted},
		{exitInputFile, domain.ErrorTypeInputFile},
		{exitFileAccessError, domain.ErrorTypeInputFile},
		{exitAlreadyDoneOCR, domain.ErrorTypeEngine},
		{exitMissingDependency, domain.ErrorTypeEngine},
		{exitBadArgs, domain.ErrorTypeEngine},
		{exitChildProcessError, domain.ErrorTypeEngine},
		{exitOtherError, domain.ErrorTypeEngine},
		{42, domain.ErrorTypeEngine},
	}
	for _, tt := range tests {
		err := classifyExit(tt.code, "")
		require.Error(t, err, "code %d", tt.code)
		assert.Equal(t, tt.want, domain.TypeOf(err), "code %d", tt.code)
	}

	assert.NoError(t, classifyExit(exitOK, ""))
	assert.Contains(t, classifyExit(42, "").Error(), "exit status 42")
	assert.Contains(t, classifyExit(exitInputFile, "bad xref").Error(), "bad xref")
}

func TestTail(t *testing.T) {
	long := strings.Repeat("a", stderrTail) + "END"
	got := tail("  " + long + "\n")
	assert.Len(t, got, stderrTail)
	assert.True(t, strings.HasSuffix(got, "END"))
	assert.Equal(t, "short", tail(" short \n"))
}

func TestConvert_NotInstalled(t *testing.T) {
	orig := lookPath
	lookPath = func(string) (string, error) { return "", errors.New("not found") }
	defer func() { lookPath = orig }()

	e := NewOCRMyPDF(Options{})
	assert.False(t, e.Available())

	err := e.Convert(context.Background(), testTask(t))
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeEngine))
	assert.Contains(t, err.Error(), "not installed")
}

func TestConvert_Success(t *testing.T) {
	bin := fakeEngine(t, `for a; do out="$a"; done; printf '%%PDF-1.4\n' > "$out"`)
	task := testTask(t)

	e := NewOCRMyPDF(Options{Path: bin})
	assert.True(t, e.Available())
	require.NoError(t, e.Convert(context.Background(), task))

	data, err := os.ReadFile(task.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4\n", string(data))
}

func TestConvert_EncryptedExitCode(t *testing.T) {
	bin := fakeEngine(t, `echo "EncryptedPdfError: Input PDF is encrypted" >&2; exit 8`)

	err := NewOCRMyPDF(Options{Path: bin}).Convert(context.Background(), testTask(t))
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeEncrypted))
	assert.Contains(t, err.Error(), "Input PDF is encrypted")
}

func TestConvert_InputFileExitCode(t *testing.T) {
	bin := fakeEngine(t, `echo "InputFileError: not a PDF" >&2; exit 2`)

	err := NewOCRMyPDF(Options{Path: bin}).Convert(context.Background(), testTask(t))
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeInputFile))
}

func TestConvert_ReceivesArguments(t *testing.T) {
	bin := fakeEngine(t, `[ "$1" = "--force-ocr" ] || exit 1; [ "$3" = "deu" ] || exit 1; exit 0`)
	task := testTask(t)
	task.ForceOCR = true
	task.Language = "deu"

	assert.NoError(t, NewOCRMyPDF(Options{Path: bin}).Convert(context.Background(), task))
}

func TestVersion(t *testing.T) {
	bin := fakeEngine(t, `[ "$1" = "--version" ] || exit 1; echo "16.4.3"`)

	v, err := NewOCRMyPDF(Options{Path: bin}).Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "16.4.3", v)
}
