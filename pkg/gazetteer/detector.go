// Package gazetteer recognizes known people and historical events in a
// question by alias lookup against data-driven tables, with a capitalized
// name heuristic for unlisted proper names. Detection is deterministic and
// makes no network or store calls.
package gazetteer

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed gazetteer.yaml
var defaultTables []byte

// Tables is the on-disk shape of the gazetteer: canonical name to surface
// variants, plus a stoplist of capitalized phrases that are not people.
type Tables struct {
	People   map[string][]string `yaml:"people"`
	Events   map[string][]string `yaml:"events"`
	Stoplist []string            `yaml:"stoplist"`
}

// Detector matches questions against loaded gazetteer tables.
type Detector struct {
	tables   Tables
	stoplist []string
}

var namePattern = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)

// questionWords are sentence-initial words that satisfy the capitalized name
// pattern without being names ("Did Churchill...", "Was Lincoln...").
var questionWords = map[string]struct{}{
	"who": {}, "what": {}, "when": {}, "where": {}, "why": {}, "how": {},
	"did": {}, "does": {}, "was": {}, "were": {}, "is": {}, "are": {},
	"tell": {}, "has": {}, "have": {}, "can": {}, "could": {}, "would": {},
}

// Default returns a detector backed by the embedded tables.
func Default() *Detector {
	d, err := parse(defaultTables)
	if err != nil {
		// The embedded file ships with the binary; failing to parse it is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("gazetteer: embedded tables invalid: %v", err))
	}
	return d
}

// Load reads gazetteer tables from a YAML file.
func Load(path string) (*Detector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gazetteer: read %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Detector, error) {
	var tables Tables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("gazetteer: parse tables: %w", err)
	}

	stoplist := make([]string, len(tables.Stoplist))
	for i, s := range tables.Stoplist {
		stoplist[i] = strings.ToLower(s)
	}
	return &Detector{tables: tables, stoplist: stoplist}, nil
}

// DetectPeople returns canonical names of people the question mentions,
// gazetteer matches first (sorted), then heuristic capitalized-name finds.
func (d *Detector) DetectPeople(question string) []string {
	found := d.matchAliases(question, d.tables.People)

	seen := make(map[string]struct{}, len(found))
	for _, name := range found {
		seen[name] = struct{}{}
	}

	// Unlisted "First Last" names, minus the stoplist and anything the
	// gazetteer already matched under a canonical name.
	for _, candidate := range namePattern.FindAllString(question, -1) {
		lower := strings.ToLower(candidate)
		if first, _, ok := strings.Cut(lower, " "); ok {
			if _, skip := questionWords[first]; skip {
				continue
			}
		}
		if d.stopped(lower) {
			continue
		}
		if _, ok := seen[lower]; ok {
			continue
		}
		if d.aliasOfFound(lower, found) {
			continue
		}
		seen[lower] = struct{}{}
		found = append(found, lower)
	}
	return found
}

// DetectEvents returns canonical names of known events the question mentions.
func (d *Detector) DetectEvents(question string) []string {
	return d.matchAliases(question, d.tables.Events)
}

func (d *Detector) matchAliases(question string, table map[string][]string) []string {
	lower := strings.ToLower(question)

	canonical := make([]string, 0, len(table))
	for name := range table {
		canonical = append(canonical, name)
	}
	sort.Strings(canonical)

	var found []string
	for _, name := range canonical {
		for _, alias := range table[name] {
			if strings.Contains(lower, strings.ToLower(alias)) {
				found = append(found, name)
				break
			}
		}
	}
	return found
}

func (d *Detector) stopped(candidate string) bool {
	for _, s := range d.stoplist {
		if strings.Contains(candidate, s) {
			return true
		}
	}
	return false
}

// aliasOfFound reports whether the heuristic candidate is just a surface form
// of a person the gazetteer already resolved.
func (d *Detector) aliasOfFound(candidate string, found []string) bool {
	for _, name := range found {
		if strings.Contains(name, candidate) || strings.Contains(candidate, name) {
			return true
		}
		for _, alias := range d.tables.People[name] {
			if strings.Contains(candidate, strings.ToLower(alias)) {
				return true
			}
		}
	}
	return false
}
