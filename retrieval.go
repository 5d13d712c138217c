package folio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/parchmentlabs/folio/pkg/nlp"
	"github.com/parchmentlabs/folio/pkg/telemetry"
	"github.com/parchmentlabs/folio/pkg/types"
)

// Search plans the question and retrieves ranked passages from the currently
// indexed corpus. It never widens the search and never returns an error for
// retrieval-side failures; an unreachable store reads as an empty corpus.
func (c *Client) Search(ctx context.Context, question string) ([]types.RetrievalHit, error) {
	q := c.planner.Plan(ctx, question)
	return c.engine.Retrieve(ctx, q, c.config.Search.PoolSize), nil
}

// Retrieve runs the full bounded cascade for the question.
func (c *Client) Retrieve(ctx context.Context, question string) (*RetrievalResult, error) {
	started := time.Now()
	q := c.planner.Plan(ctx, question)
	result := c.runCascade(ctx, q)

	c.logger.Info("retrieval finished",
		"question", question,
		"state", string(result.State),
		"hits", len(result.Hits),
		"fallback", result.FallbackUsed,
		"elapsed", time.Since(started))

	if c.recorder != nil {
		if err := c.recorder.Record(telemetry.QueryRecord{
			Question:     question,
			People:       telemetry.JoinNames(q.People),
			Events:       telemetry.JoinNames(q.Events),
			ArchiveQuery: q.ArchiveQuery,
			HitCount:     len(result.Hits),
			FinalState:   string(result.State),
			FallbackUsed: result.FallbackUsed,
			DurationMS:   time.Since(started).Milliseconds(),
		}); err != nil {
			c.logger.Warn("query telemetry failed", "error", err)
		}
	}
	return result, nil
}

const answerSystemPrompt = `You answer questions using only the provided passages.
Quote or paraphrase the passages; if they do not contain the answer, say so.
Answer in the language of the question.`

// Answer retrieves passages and synthesizes a prose answer through the
// language model. An INSUFFICIENT cascade outcome returns
// ErrNoRelevantContext; the caller should surface that as a defined
// "no relevant context" reply, not as a failure.
func (c *Client) Answer(ctx context.Context, question string) (string, error) {
	if c.llm == nil {
		return "", ErrNoLanguageModel
	}

	result, err := c.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}
	if result.State == StateInsufficient || len(result.Hits) == 0 {
		return "", ErrNoRelevantContext
	}

	var sb strings.Builder
	for i, hit := range result.Hits {
		title := hit.Chunk.Title
		if title == "" {
			title = hit.Chunk.DocumentID
		}
		fmt.Fprintf(&sb, "Passage %d (from %q):\n%s\n\n", i+1, title, hit.Chunk.Text)
	}
	fmt.Fprintf(&sb, "Question: %s", question)

	resp, err := c.llm.Chat(ctx, []nlp.Message{
		nlp.NewSystemMessage(answerSystemPrompt),
		nlp.NewUserMessage(sb.String()),
	})
	if err != nil {
		return "", fmt.Errorf("answer synthesis: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
