package localcorpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmentlabs/folio/pkg/types"
)

func writeBook(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestScannerFindListsSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	writeBook(t, dir, "napoleon_memoirs.txt", "He was born in Corsica.")
	writeBook(t, dir, "churchill-speeches.txt", "We shall fight on the beaches.")
	writeBook(t, dir, "cover.jpg", "not a book")

	s := NewScanner(dir, nil, nil)
	docs, err := s.Find(context.Background(), "", 0)

	require.NoError(t, err)
	require.Len(t, docs, 2)

	byID := map[string]types.Document{}
	for _, d := range docs {
		byID[d.Identifier] = d
	}
	memoirs, ok := byID["local_napoleon_memoirs"]
	require.True(t, ok)
	assert.Equal(t, "Napoleon Memoirs", memoirs.Title)
	assert.Equal(t, types.SourceLocal, memoirs.Source)
	assert.Equal(t, "Local Collection", memoirs.Creator)
}

func TestScannerFindFiltersByQuery(t *testing.T) {
	dir := t.TempDir()
	writeBook(t, dir, "napoleon_memoirs.txt", "text")
	writeBook(t, dir, "gardening_almanac.txt", "text")

	s := NewScanner(dir, nil, nil)
	docs, err := s.Find(context.Background(), "Where was Napoleon born?", 0)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "local_napoleon_memoirs", docs[0].Identifier)
}

func TestScannerFindMissingDirIsEmpty(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "nope"), nil, nil)

	docs, err := s.Find(context.Background(), "", 0)

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestScannerFetchText(t *testing.T) {
	dir := t.TempDir()
	writeBook(t, dir, "napoleon_memoirs.txt", "He was born in Corsica in 1769.")

	s := NewScanner(dir, nil, nil)
	text, err := s.FetchText(context.Background(), types.Document{Identifier: "local_napoleon_memoirs"})

	require.NoError(t, err)
	assert.Equal(t, "He was born in Corsica in 1769.", text)
}

func TestScannerFetchTextRejectsForeignIdentifier(t *testing.T) {
	s := NewScanner(t.TempDir(), nil, nil)

	_, err := s.FetchText(context.Background(), types.Document{Identifier: "memoirsofnapoleon"})
	assert.Error(t, err)
}

func TestTitleFromStem(t *testing.T) {
	assert.Equal(t, "Napoleon Memoirs Vol1", titleFromStem("napoleon_memoirs-vol1"))
	assert.Equal(t, "Plain", titleFromStem("plain"))
}
