package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderFlushWritesParquet(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRecorder(dir)
	require.NoError(t, err)

	require.NoError(t, r.Record(QueryRecord{
		Question:     "Where was Napoleon born?",
		People:       "napoleon bonaparte",
		ArchiveQuery: `"Napoleon Bonaparte" AND mediatype:texts`,
		HitCount:     3,
		FinalState:   "DONE",
	}))
	require.NoError(t, r.Flush())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "queries_"))

	rows, err := parquet.ReadFile[QueryRecord](filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Where was Napoleon born?", rows[0].Question)
	assert.Equal(t, "DONE", rows[0].FinalState)
	assert.NotEmpty(t, rows[0].ID)
	assert.False(t, rows[0].Timestamp.IsZero())
}

func TestRecorderCloseRejectsFurtherRecords(t *testing.T) {
	r, err := NewRecorder(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, r.Close())
	assert.Error(t, r.Record(QueryRecord{Question: "anything"}))
}

func TestRecorderFlushEmptyIsNoop(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRecorder(dir)
	require.NoError(t, err)

	require.NoError(t, r.Flush())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJoinNames(t *testing.T) {
	assert.Equal(t, "napoleon bonaparte,winston churchill", JoinNames([]string{"napoleon bonaparte", "winston churchill"}))
	assert.Equal(t, "", JoinNames(nil))
}
