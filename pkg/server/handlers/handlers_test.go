package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmentlabs/folio"
	"github.com/parchmentlabs/folio/pkg/server/dto"
	"github.com/parchmentlabs/folio/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeFolio is a scripted pipeline client.
type fakeFolio struct {
	answer      string
	answerErr   error
	result      *folio.RetrievalResult
	retrieveErr error
	chunks      int
	indexErr    error
	indexed     types.Document
	removed     int
	deleteErr   error
	docs        map[string]struct{}
	count       int
	countErr    error
}

func (f *fakeFolio) IndexDocument(ctx context.Context, doc types.Document) (int, error) {
	f.indexed = doc
	return f.chunks, f.indexErr
}

func (f *fakeFolio) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	return f.removed, f.deleteErr
}

func (f *fakeFolio) Search(ctx context.Context, question string) ([]types.RetrievalHit, error) {
	if f.result == nil {
		return nil, nil
	}
	return f.result.Hits, nil
}

func (f *fakeFolio) Retrieve(ctx context.Context, question string) (*folio.RetrievalResult, error) {
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	return f.result, nil
}

func (f *fakeFolio) Answer(ctx context.Context, question string) (string, error) {
	return f.answer, f.answerErr
}

func (f *fakeFolio) ExistingDocuments(ctx context.Context) (map[string]struct{}, error) {
	return f.docs, nil
}

func (f *fakeFolio) Count(ctx context.Context) (int, error) {
	return f.count, f.countErr
}

func (f *fakeFolio) Close(ctx context.Context) error { return nil }

var _ folio.Folio = (*fakeFolio)(nil)

func postJSON(t *testing.T, handler gin.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.POST(path, handler)

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAskReturnsAnswer(t *testing.T) {
	h := NewQueryHandler(&fakeFolio{answer: "He was born in Corsica."})

	w := postJSON(t, h.Ask, "/ask", dto.AskRequest{Question: "Where was Napoleon born?"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Found)
	assert.Equal(t, "He was born in Corsica.", resp.Answer)
}

func TestAskNoRelevantContextIsNotAnError(t *testing.T) {
	h := NewQueryHandler(&fakeFolio{answerErr: folio.ErrNoRelevantContext})

	w := postJSON(t, h.Ask, "/ask", dto.AskRequest{Question: "Who was Napoleon?"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Found)
	assert.Empty(t, resp.Answer)
}

func TestAskWithoutLanguageModel(t *testing.T) {
	h := NewQueryHandler(&fakeFolio{answerErr: folio.ErrNoLanguageModel})

	w := postJSON(t, h.Ask, "/ask", dto.AskRequest{Question: "Who was Napoleon?"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAskRejectsBlankQuestion(t *testing.T) {
	h := NewQueryHandler(&fakeFolio{})

	w := postJSON(t, h.Ask, "/ask", map[string]string{"question": "   "})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchReportsCascadeOutcome(t *testing.T) {
	dist := 0.12
	h := NewQueryHandler(&fakeFolio{result: &folio.RetrievalResult{
		State:        folio.StateDone,
		FallbackUsed: true,
		Hits: []types.RetrievalHit{{
			Chunk: types.Chunk{
				DocumentID: "memoirsofnapoleon",
				Title:      "Memoirs of Napoleon",
				Text:       "Napoleon Bonaparte was a French emperor.",
				SourceType: types.SourceFullText,
			},
			Distance: &dist,
		}},
	}})

	w := postJSON(t, h.Search, "/search", dto.SearchRequest{Question: "Who was Napoleon?"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "DONE", resp.State)
	assert.True(t, resp.FallbackUsed)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "memoirsofnapoleon", resp.Hits[0].DocumentID)
	require.NotNil(t, resp.Hits[0].Distance)
	assert.InDelta(t, 0.12, *resp.Hits[0].Distance, 1e-9)
}

func TestSearchInsufficientOutcome(t *testing.T) {
	h := NewQueryHandler(&fakeFolio{result: &folio.RetrievalResult{
		State:        folio.StateInsufficient,
		FallbackUsed: true,
	}})

	w := postJSON(t, h.Search, "/search", dto.SearchRequest{Question: "Who was Napoleon?"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INSUFFICIENT", resp.State)
	assert.Zero(t, resp.Total)
}

func TestIndexDocument(t *testing.T) {
	fake := &fakeFolio{chunks: 2}
	h := NewIndexHandler(fake)

	w := postJSON(t, h.IndexDocument, "/index", dto.IndexRequest{
		Identifier: "doc1",
		Title:      "Memoirs",
		Text:       "Napoleon Bonaparte was a French emperor.",
		Source:     "archive",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.IndexResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "doc1", resp.Identifier)
	assert.Equal(t, 2, resp.Chunks)
	assert.Equal(t, types.SourceArchive, fake.indexed.Source)
}

func TestIndexDocumentDefaultsToLocalSource(t *testing.T) {
	fake := &fakeFolio{chunks: 1}
	h := NewIndexHandler(fake)

	w := postJSON(t, h.IndexDocument, "/index", dto.IndexRequest{
		Identifier: "local_notes",
		Text:       "Plant the bulbs in autumn.",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.SourceLocal, fake.indexed.Source)
}

func TestIndexDocumentRequiresIdentifier(t *testing.T) {
	h := NewIndexHandler(&fakeFolio{})

	w := postJSON(t, h.IndexDocument, "/index", map[string]string{"text": "no identifier"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIndexDocumentFailure(t *testing.T) {
	h := NewIndexHandler(&fakeFolio{indexErr: folio.ErrIndexingFailed})

	w := postJSON(t, h.IndexDocument, "/index", dto.IndexRequest{Identifier: "doc1"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeleteDocument(t *testing.T) {
	h := NewIndexHandler(&fakeFolio{removed: 3})

	router := gin.New()
	router.DELETE("/documents/:id", h.DeleteDocument)
	req := httptest.NewRequest(http.MethodDelete, "/documents/doc1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.DeleteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "doc1", resp.Identifier)
	assert.Equal(t, 3, resp.Removed)
}

func TestStats(t *testing.T) {
	h := NewIndexHandler(&fakeFolio{
		docs:  map[string]struct{}{"doc1": {}, "doc2": {}},
		count: 7,
	})

	router := gin.New()
	router.GET("/stats", h.Stats)
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Documents)
	assert.Equal(t, 7, resp.Chunks)
}

func TestReadinessChecksStore(t *testing.T) {
	router := gin.New()
	router.GET("/ready", NewHealthHandler(&fakeFolio{count: 5}).ReadinessCheck)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	router = gin.New()
	router.GET("/ready", NewHealthHandler(&fakeFolio{countErr: errors.New("store down")}).ReadinessCheck)

	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
