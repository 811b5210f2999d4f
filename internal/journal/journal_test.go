package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/ocr-batch/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "state", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRun(started time.Time) *domain.Run {
	return &domain.Run{
		InputDir:   "/scans",
		OutputDir:  "/scans/OCRed_PDFs_",
		Language:   "eng",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Total:      2,
		Succeeded:  1,
		Failed:     1,
	}
}

func TestRecordRun_AndListRuns(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	results := []domain.Result{
		domain.Success{InputPath: "/scans/a.pdf", OutputPath: "/scans/OCRed_PDFs_/[OCR] a.pdf"},
		domain.Failure{InputPath: "/scans/b.pdf", Kind: domain.ErrorTypeEncrypted, Message: "Encrypted PDF - cannot process."},
	}

	run := testRun(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	run.ForceOCR = true
	require.NoError(t, store.RecordRun(ctx, run, results))
	assert.NotEqual(t, uuid.Nil, run.ID)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "/scans", got.InputDir)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	assert.True(t, got.ForceOCR)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))

	entries, err := store.Results(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, StatusSuccess, entries[0].Status)
	assert.Equal(t, "/scans/OCRed_PDFs_/[OCR] a.pdf", entries[0].OutputPath)
	assert.Equal(t, StatusFailure, entries[1].Status)
	assert.Equal(t, domain.ErrorTypeEncrypted, entries[1].Kind)
	assert.Equal(t, "Encrypted PDF - cannot process.", entries[1].Message)
}

func TestListRuns_NewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		run := testRun(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, store.RecordRun(ctx, run, nil))
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)

	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestResults_UnknownRun(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Results(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordRun_DuplicateIDRollsBack(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	run := testRun(time.Now())
	require.NoError(t, store.RecordRun(ctx, run, nil))

	dup := *run
	err := store.RecordRun(ctx, &dup, []domain.Result{domain.Success{InputPath: "/scans/c.pdf"}})
	require.Error(t, err)

	entries, err := store.Results(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpen_Memory(t *testing.T) {
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
