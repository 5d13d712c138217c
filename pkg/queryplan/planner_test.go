package queryplan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmentlabs/folio/pkg/nlp"
)

// scriptedClient returns a canned response or error.
type scriptedClient struct {
	content string
	err     error
}

func (s *scriptedClient) Chat(ctx context.Context, messages []nlp.Message) (*nlp.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &nlp.Response{Content: s.content}, nil
}

func (s *scriptedClient) Close() error { return nil }

func TestPlanExtractsKeywordsAndEntities(t *testing.T) {
	llm := &scriptedClient{content: `["Napoleon Bonaparte", "Corsica", "biography"]`}
	p := New(llm, nil, nil)

	q := p.Plan(context.Background(), "Where was Napoleon born?")

	assert.Equal(t, "Where was Napoleon born?", q.Question)
	assert.Equal(t, []string{"napoleon bonaparte"}, q.People)
	assert.Equal(t, []string{"Napoleon Bonaparte", "Corsica", "biography"}, q.Keywords)
	assert.Contains(t, q.ArchiveQuery, "mediatype:texts")
}

func TestPlanFallsBackToQuestionOnLLMFailure(t *testing.T) {
	llm := &scriptedClient{err: errors.New("provider down")}
	p := New(llm, nil, nil)

	q := p.Plan(context.Background(), "Where was Napoleon born?")

	assert.Equal(t, []string{"Where was Napoleon born?"}, q.Keywords)
	assert.NotEmpty(t, q.ArchiveQuery)
}

func TestPlanWithoutLLMUsesVerbatimQuestion(t *testing.T) {
	p := New(nil, nil, nil)

	q := p.Plan(context.Background(), "Where was Napoleon born?")

	assert.Equal(t, []string{"Where was Napoleon born?"}, q.Keywords)
}

func TestParseTermsHandlesCodeFences(t *testing.T) {
	terms := parseTerms("```json\n[\"napoleon\", \"france\"]\n```")
	assert.Equal(t, []string{"napoleon", "france"}, terms)
}

func TestParseTermsRepairsBrokenJSON(t *testing.T) {
	terms := parseTerms(`["napoleon", "france",]`)
	assert.Equal(t, []string{"napoleon", "france"}, terms)
}

func TestParseTermsRejectsGarbage(t *testing.T) {
	assert.Empty(t, parseTerms("I could not find any search terms."))
}

func TestBuildArchiveQueryPersonGroup(t *testing.T) {
	p := New(nil, nil, nil)

	query := p.BuildArchiveQuery(
		[]string{"Napoleon Bonaparte", "biography"},
		[]string{"napoleon bonaparte"},
		nil,
	)

	require.Equal(t, `"Napoleon Bonaparte" AND mediatype:texts`, query)
}

func TestBuildArchiveQueryEventGroup(t *testing.T) {
	p := New(nil, nil, nil)

	query := p.BuildArchiveQuery(
		[]string{"French Revolution", "Battle of Waterloo"},
		nil,
		[]string{"french revolution"},
	)

	require.Equal(t, `("French Revolution" OR "Battle of Waterloo") AND mediatype:texts`, query)
}

func TestBuildArchiveQueryGenericTermsCapped(t *testing.T) {
	p := New(nil, nil, nil)

	query := p.BuildArchiveQuery(
		[]string{"ancient philosophy", "ethics", "metaphysics"},
		nil,
		nil,
	)

	require.Equal(t, `("ancient philosophy" AND ethics) AND mediatype:texts`, query)
}

func TestBuildArchiveQueryEmptyTerms(t *testing.T) {
	p := New(nil, nil, nil)

	assert.Equal(t, "mediatype:texts", p.BuildArchiveQuery(nil, nil, nil))
}

func TestBuildArchiveQueryEntityAndPersonCombined(t *testing.T) {
	p := New(nil, nil, nil)

	query := p.BuildArchiveQuery(
		[]string{"Napoleonic Wars", "Napoleon Bonaparte"},
		[]string{"napoleon bonaparte"},
		nil,
	)

	require.Equal(t, `"Napoleonic Wars" AND "Napoleon Bonaparte" AND mediatype:texts`, query)
}
