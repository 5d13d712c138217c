package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestColorHandlerWritesAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	log := slog.New(h)

	log.Info("indexing document", "identifier", "memoirsofnapoleon", "chunks", 3)

	out := buf.String()
	assert.Contains(t, out, "indexing document")
	assert.Contains(t, out, "identifier=")
	assert.Contains(t, out, "memoirsofnapoleon")
	assert.Contains(t, out, "chunks=")
}

func TestColorHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})

	require.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	require.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestColorHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorHandler(&buf, nil)
	child := h.WithAttrs([]slog.Attr{slog.String("component", "indexer")})

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "done", 0)
	require.NoError(t, child.Handle(context.Background(), r))

	assert.Contains(t, buf.String(), "component=")
	assert.Contains(t, buf.String(), "indexer")
}
