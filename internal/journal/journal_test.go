// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "journal")
	j, err := Open(dir)
	require.NoError(t, err)
	defer j.Close()

	_, statErr := os.Stat(filepath.Join(dir, dbFile))
	assert.NoError(t, statErr)
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	runs := []Run{
		{
			ID:         "run-1",
			PDFPath:    "/scans/lecture-01.pdf",
			Title:      "Lecture 1",
			Status:     "delivered",
			Blocks:     12,
			Delivered:  12,
			PageURL:    "https://notion.so/p1",
			StartedAt:  base,
			FinishedAt: base.Add(30 * time.Second),
		},
		{
			ID:         "run-2",
			PDFPath:    "/scans/lecture-02.pdf",
			Title:      "Lecture 2",
			Status:     "partially_delivered",
			Blocks:     8,
			Delivered:  5,
			Fallbacks:  1,
			BackupPath: "/backups/Lecture_2-20260801-110000.md",
			Error:      "appending block 7: connection reset",
			StartedAt:  base.Add(time.Hour),
			FinishedAt: base.Add(time.Hour + 20*time.Second),
		},
	}
	for _, r := range runs {
		require.NoError(t, j.Record(ctx, r))
	}

	got, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "run-2", got[0].ID, "newest run comes first")
	assert.Equal(t, "run-1", got[1].ID)

	assert.Equal(t, "partially_delivered", got[0].Status)
	assert.Equal(t, 1, got[0].Fallbacks)
	assert.Equal(t, "/backups/Lecture_2-20260801-110000.md", got[0].BackupPath)
	assert.Contains(t, got[0].Error, "connection reset")
	assert.True(t, got[0].StartedAt.Equal(base.Add(time.Hour)))
}

func TestRecord_GeneratesID(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, j.Record(ctx, Run{Status: "failed", StartedAt: now, FinishedAt: now}))

	got, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
}

func TestRecent_HonorsLimit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, j.Record(ctx, Run{
			Status:     "delivered",
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := j.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestRecent_EmptyJournal(t *testing.T) {
	j := openTestJournal(t)
	got, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
