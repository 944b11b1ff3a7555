package moderation

import (
	"strings"

	goahocorasick "github.com/anknown/ahocorasick"
)

// DefaultBlocklist is the blocklist applied when none is configured.
var DefaultBlocklist = []string{"spam", "malware", "virus", "hack", "phishing"}

// Filter classifies message content against a configured blocklist.
// Matching is case-insensitive and substring based: a term anywhere inside
// the content triggers rejection, including inside a larger word. This is
// observable API behavior and must not be tightened to word boundaries.
type Filter struct {
	matcher *goahocorasick.Machine
	terms   []string
}

// NewFilter initializes the Aho-Corasick automaton over the lowercased
// blocklist. Empty and duplicate terms are dropped.
func NewFilter(terms []string) (*Filter, error) {
	seen := make(map[string]struct{}, len(terms))
	patterns := make([][]rune, 0, len(terms))
	kept := make([]string, 0, len(terms))
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		patterns = append(patterns, []rune(t))
		kept = append(kept, t)
	}
	if len(patterns) == 0 {
		return &Filter{}, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Filter{matcher: m, terms: kept}, nil
}

// Classify returns the blocklist terms found in content, in blocklist
// order, or nil when the content is admissible. Classify is pure: it is
// deterministic and has no side effects.
func (f *Filter) Classify(content string) []string {
	if f.matcher == nil || content == "" {
		return nil
	}

	spans := f.matcher.MultiPatternSearch([]rune(strings.ToLower(content)), false)
	if len(spans) == 0 {
		return nil
	}

	found := make(map[string]struct{}, len(spans))
	for _, span := range spans {
		found[string(span.Word)] = struct{}{}
	}

	var matched []string
	for _, term := range f.terms {
		if _, ok := found[term]; ok {
			matched = append(matched, term)
		}
	}
	return matched
}
