package search

import "strings"

// ProbeSet is a configuration-driven auxiliary query group. When any trigger
// word appears in the question, every phrase is issued as an extra similarity
// query with its own smaller result cap.
type ProbeSet struct {
	Name     string   `json:"name" yaml:"name"`
	Triggers []string `json:"triggers" yaml:"triggers"`
	Phrases  []string `json:"phrases" yaml:"phrases"`
	Limit    int      `json:"limit" yaml:"limit"`
}

// Matches reports whether the question activates this probe set.
func (p ProbeSet) Matches(question string) bool {
	lower := strings.ToLower(question)
	for _, trigger := range p.Triggers {
		if strings.Contains(lower, strings.ToLower(trigger)) {
			return true
		}
	}
	return false
}

// factualTriggers mark questions that ask for precise times, dates or manner.
var factualTriggers = []string{
	"when", "what time", "what year", "what date", "how did", "how long",
	"how often", "kada", "kako", "sati",
}

// DefaultProbeSets returns the built-in probe configuration. Deployments with
// a known corpus should replace these with phrases tuned to their material.
func DefaultProbeSets() []ProbeSet {
	return []ProbeSet{
		{
			Name:     "factual_recall",
			Triggers: factualTriggers,
			Phrases:  []string{"at the time", "in the year", "on that day"},
			Limit:    5,
		},
		{
			Name:     "personal_narrative",
			Triggers: factualTriggers,
			Phrases:  []string{"I was", "I went to", "I remember"},
			Limit:    5,
		},
	}
}
