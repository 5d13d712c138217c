package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parchmentlabs/folio"
	"github.com/parchmentlabs/folio/pkg/server/dto"
)

// IndexHandler serves the write side of the pipeline.
type IndexHandler struct {
	folio folio.Folio
}

// NewIndexHandler creates a new index handler.
func NewIndexHandler(f folio.Folio) *IndexHandler {
	return &IndexHandler{folio: f}
}

// IndexDocument handles POST /api/v1/index.
func (h *IndexHandler) IndexDocument(c *gin.Context) {
	var req dto.IndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	chunks, err := h.folio.IndexDocument(c.Request.Context(), req.Document())
	if err != nil {
		writeError(c, http.StatusUnprocessableEntity, "indexing_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.IndexResponse{
		Identifier: req.Identifier,
		Chunks:     chunks,
	})
}

// DeleteDocument handles DELETE /api/v1/documents/:id.
func (h *IndexHandler) DeleteDocument(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", "document id is required")
		return
	}

	removed, err := h.folio.DeleteDocument(c.Request.Context(), id)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "deletion_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.DeleteResponse{Identifier: id, Removed: removed})
}

// Stats handles GET /api/v1/stats.
func (h *IndexHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	docs, err := h.folio.ExistingDocuments(ctx)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "stats_failed", err.Error())
		return
	}
	chunks, err := h.folio.Count(ctx)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "stats_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.StatsResponse{Documents: len(docs), Chunks: chunks})
}
