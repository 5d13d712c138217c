package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/parchmentlabs/folio"
	"github.com/parchmentlabs/folio/pkg/server/dto"
)

// QueryHandler serves the read side of the pipeline.
type QueryHandler struct {
	folio folio.Folio
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(f folio.Folio) *QueryHandler {
	return &QueryHandler{folio: f}
}

// Ask handles POST /api/v1/ask. A cascade that ends without relevant
// context is a defined outcome, not an error: the response carries
// found=false and an empty answer.
func (h *QueryHandler) Ask(c *gin.Context) {
	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", "question cannot be empty")
		return
	}

	answer, err := h.folio.Answer(c.Request.Context(), req.Question)
	switch {
	case errors.Is(err, folio.ErrNoRelevantContext):
		c.JSON(http.StatusOK, dto.AskResponse{Question: req.Question})
		return
	case errors.Is(err, folio.ErrNoLanguageModel):
		writeError(c, http.StatusServiceUnavailable, "no_language_model", err.Error())
		return
	case err != nil:
		writeError(c, http.StatusInternalServerError, "answer_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.AskResponse{
		Question: req.Question,
		Answer:   answer,
		Found:    true,
	})
}

// Search handles POST /api/v1/search. It runs the full retrieval cascade
// and reports the final state alongside the ranked passages.
func (h *QueryHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", "question cannot be empty")
		return
	}

	result, err := h.folio.Retrieve(c.Request.Context(), req.Question)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "search_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.SearchResponse{
		Question:     req.Question,
		State:        string(result.State),
		FallbackUsed: result.FallbackUsed,
		Hits:         dto.NewHitResults(result.Hits),
		Total:        len(result.Hits),
	})
}

// writeError writes the uniform error body.
func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.ErrorResponse{Error: code, Message: message})
}
