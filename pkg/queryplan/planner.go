// Package queryplan turns a natural-language question into search terms and
// a structured boolean query for the external full-text archive. Keyword
// generation goes through an LLM collaborator; every failure mode degrades
// to the verbatim question so planning never blocks retrieval.
package queryplan

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/parchmentlabs/folio/pkg/gazetteer"
	"github.com/parchmentlabs/folio/pkg/nlp"
	"github.com/parchmentlabs/folio/pkg/types"
)

const (
	// maxGenericTerms caps leftover generic terms so they cannot
	// over-constrain the archive query.
	maxGenericTerms = 2
	// maxFallbackTerms is how many raw terms the OR fallback query takes.
	maxFallbackTerms = 3
	// mediaScope pins every archive query to text material.
	mediaScope = "mediatype:texts"
)

const keywordPrompt = `Extract 3 to 6 short search terms for finding books about the question below.
Respond with a JSON array of strings and nothing else.

Question: %s`

// entityMarkers flag terms that name organizations or historical phenomena
// rather than people; these combine as OR synonyms in the archive query.
var entityMarkers = []string{
	"war", "revolution", "empire", "republic", "kingdom", "dynasty",
	"party", "treaty", "battle", "siege", "movement", "union", "state",
}

// Planner builds a Query from a question.
type Planner struct {
	llm      nlp.Client
	detector *gazetteer.Detector
	logger   *slog.Logger
}

// New creates a planner. llm may be nil; planning then uses the question
// verbatim as its only keyword.
func New(llm nlp.Client, detector *gazetteer.Detector, logger *slog.Logger) *Planner {
	if detector == nil {
		detector = gazetteer.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{llm: llm, detector: detector, logger: logger}
}

// Plan produces the full query plan: detected entities, keyword terms and
// the structured archive query string.
func (p *Planner) Plan(ctx context.Context, question string) types.Query {
	q := types.Query{
		Question: question,
		People:   p.detector.DetectPeople(question),
		Events:   p.detector.DetectEvents(question),
	}
	q.Keywords = p.keywords(ctx, question)
	q.ArchiveQuery = p.BuildArchiveQuery(q.Keywords, q.People, q.Events)
	return q
}

// keywords asks the LLM for search terms, repairing slightly malformed JSON
// output. Any failure falls back to the verbatim question.
func (p *Planner) keywords(ctx context.Context, question string) []string {
	if p.llm == nil {
		return []string{question}
	}

	resp, err := p.llm.Chat(ctx, []nlp.Message{
		nlp.NewSystemMessage("You generate library search terms."),
		nlp.NewUserMessage(strings.Replace(keywordPrompt, "%s", question, 1)),
	})
	if err != nil {
		p.logger.Debug("keyword extraction failed, using verbatim question", "error", err)
		return []string{question}
	}

	terms := parseTerms(resp.Content)
	if len(terms) == 0 {
		return []string{question}
	}
	return terms
}

// parseTerms extracts a string array from LLM output, tolerating code fences
// and mildly broken JSON.
func parseTerms(content string) []string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var terms []string
	if err := json.Unmarshal([]byte(content), &terms); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return nil
		}
		if err := json.Unmarshal([]byte(repaired), &terms); err != nil {
			return nil
		}
	}

	out := terms[:0]
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// BuildArchiveQuery groups terms into entity synonyms (OR), person names
// (AND) and capped generic leftovers, joins the groups with AND and scopes
// the whole query to text media. An empty categorization falls back to an
// OR of the first raw terms.
func (p *Planner) BuildArchiveQuery(terms, people, events []string) string {
	var entityTerms, personTerms, genericTerms []string

	// Entity check runs first: event phrases like "French Revolution" also
	// satisfy the capitalized-name heuristic of the person detector.
	for _, term := range terms {
		switch {
		case p.isEntity(term, events):
			entityTerms = append(entityTerms, term)
		case p.isPerson(term, people):
			personTerms = append(personTerms, term)
		default:
			genericTerms = append(genericTerms, term)
		}
	}

	var groups []string
	if len(entityTerms) > 0 {
		groups = append(groups, orGroup(entityTerms))
	}
	if len(personTerms) > 0 {
		groups = append(groups, andGroup(personTerms))
	}
	// Generic terms only constrain the query when nothing better exists.
	if len(groups) == 0 && len(genericTerms) > 0 {
		if len(genericTerms) > maxGenericTerms {
			genericTerms = genericTerms[:maxGenericTerms]
		}
		groups = append(groups, andGroup(genericTerms))
	}

	if len(groups) == 0 {
		if len(terms) == 0 {
			return mediaScope
		}
		if len(terms) > maxFallbackTerms {
			terms = terms[:maxFallbackTerms]
		}
		return orGroup(terms) + " AND " + mediaScope
	}

	return strings.Join(groups, " AND ") + " AND " + mediaScope
}

func (p *Planner) isPerson(term string, people []string) bool {
	lower := strings.ToLower(term)
	for _, person := range people {
		if strings.Contains(lower, person) || strings.Contains(person, lower) {
			return true
		}
	}
	return len(p.detector.DetectPeople(term)) > 0
}

func (p *Planner) isEntity(term string, events []string) bool {
	lower := strings.ToLower(term)
	for _, event := range events {
		if strings.Contains(lower, event) || strings.Contains(event, lower) {
			return true
		}
	}
	for _, marker := range entityMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return len(p.detector.DetectEvents(term)) > 0
}

// quote wraps multi-word terms for exact-phrase matching.
func quote(term string) string {
	if strings.ContainsAny(term, " \t") {
		return `"` + strings.ReplaceAll(term, `"`, "") + `"`
	}
	return term
}

func orGroup(terms []string) string {
	return group(terms, " OR ")
}

func andGroup(terms []string) string {
	return group(terms, " AND ")
}

func group(terms []string, op string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = quote(t)
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return "(" + strings.Join(quoted, op) + ")"
}
