// Package match resolves free-text transaction descriptions to budget keys.
package match

import (
	"fmt"
	"strings"
)

// MatchType defines how a pattern is compared with a description. Comparison is
// always case-insensitive.
type MatchType string

const (
	// MatchTypeContains requires the pattern to be a substring of the description
	MatchTypeContains MatchType = "contains"
	// MatchTypeExact requires the pattern to equal the entire description
	MatchTypeExact MatchType = "exact"
	// MatchTypePrefix requires the description to start with the pattern
	MatchTypePrefix MatchType = "prefix"
)

// ParseMatchType validates a match type name. An empty name means MatchTypeContains.
func ParseMatchType(name string) (MatchType, error) {
	switch MatchType(strings.ToLower(strings.TrimSpace(name))) {
	case "", MatchTypeContains:
		return MatchTypeContains, nil
	case MatchTypeExact:
		return MatchTypeExact, nil
	case MatchTypePrefix:
		return MatchTypePrefix, nil
	default:
		return "", fmt.Errorf("invalid match type %q (must be 'contains', 'exact' or 'prefix')", name)
	}
}

func (t MatchType) matches(text, pattern string) bool {
	switch t {
	case MatchTypeExact:
		return text == pattern
	case MatchTypePrefix:
		return strings.HasPrefix(text, pattern)
	default:
		return strings.Contains(text, pattern)
	}
}

// Kind is the outcome of matching a description.
type Kind int

const (
	// Unmatched means no key matched; the raw description becomes the key.
	Unmatched Kind = iota
	// Matched means a budget key matched.
	Matched
	// Ignored means an ignore pattern matched; the transaction is dropped.
	Ignored
)

func (k Kind) String() string {
	switch k {
	case Matched:
		return "matched"
	case Ignored:
		return "ignored"
	default:
		return "unmatched"
	}
}

// Result is the outcome of Matcher.Match.
type Result struct {
	Kind Kind
	// Key is the matched budget key, the case-preserved description when
	// unmatched, or the ignore pattern that fired.
	Key string
}

// Matcher checks descriptions against an ignore list and an ordered list of
// budget keys. Ignore patterns take precedence; among keys the first in list
// order wins.
type Matcher struct {
	matchType MatchType
	keys      []pattern
	ignore    []pattern
}

type pattern struct {
	raw        string
	normalized string
}

func compile(values []string, what string) ([]pattern, error) {
	patterns := make([]pattern, 0, len(values))
	for i, v := range values {
		if v == "" {
			return nil, fmt.Errorf("%s %d: pattern cannot be empty", what, i)
		}
		patterns = append(patterns, pattern{raw: v, normalized: strings.ToLower(v)})
	}
	return patterns, nil
}

// New creates a matcher. keys must be in budget catalog order.
func New(keys, ignore []string, matchType MatchType) (*Matcher, error) {
	matchType, err := ParseMatchType(string(matchType))
	if err != nil {
		return nil, err
	}

	compiledKeys, err := compile(keys, "budget key")
	if err != nil {
		return nil, err
	}
	compiledIgnore, err := compile(ignore, "ignore entry")
	if err != nil {
		return nil, err
	}

	return &Matcher{
		matchType: matchType,
		keys:      compiledKeys,
		ignore:    compiledIgnore,
	}, nil
}

// MatchType returns the comparison strategy in use.
func (m *Matcher) MatchType() MatchType { return m.matchType }

// Match resolves a description.
func (m *Matcher) Match(description string) Result {
	normalized := strings.ToLower(description)

	if p, ok := m.first(m.ignore, normalized); ok {
		return Result{Kind: Ignored, Key: p.raw}
	}
	if p, ok := m.first(m.keys, normalized); ok {
		return Result{Kind: Matched, Key: p.raw}
	}
	return Result{Kind: Unmatched, Key: description}
}

// Find returns the first budget key matching text, ignoring the ignore list.
func (m *Matcher) Find(text string) (string, bool) {
	p, ok := m.first(m.keys, strings.ToLower(text))
	if !ok {
		return "", false
	}
	return p.raw, true
}

func (m *Matcher) first(patterns []pattern, normalized string) (pattern, bool) {
	for _, p := range patterns {
		if m.matchType.matches(normalized, p.normalized) {
			return p, true
		}
	}
	return pattern{}, false
}

// Match is the one-shot form of Matcher.Match using substring containment.
func Match(description string, candidateKeys, ignoreList []string) (Result, error) {
	m, err := New(candidateKeys, ignoreList, MatchTypeContains)
	if err != nil {
		return Result{}, err
	}
	return m.Match(description), nil
}
