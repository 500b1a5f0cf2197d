package relay

import (
	"regexp"
	"strings"
)

// contextPattern gates workspace context injection.
var contextPattern = regexp.MustCompile(`(?i)notion|page|database|diet|document|workspace`)

// Classification reports whether a chat message should be enriched with
// workspace context, and which keywords triggered it.
type Classification struct {
	Relevant bool
	Terms    []string
}

// Classify matches message against the fixed keyword set. Matching is a
// case-insensitive substring test; Terms holds the distinct lower-cased
// matches in order of first appearance.
func Classify(message string) Classification {
	matches := contextPattern.FindAllString(message, -1)
	if len(matches) == 0 {
		return Classification{}
	}
	seen := make(map[string]struct{}, len(matches))
	terms := make([]string, 0, len(matches))
	for _, m := range matches {
		term := strings.ToLower(m)
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return Classification{Relevant: true, Terms: terms}
}
