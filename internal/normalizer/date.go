// Package normalizer cleans up per-source publish date strings.
package normalizer

import (
	"strings"

	"NewsHarvester/internal/domain"
)

const (
	updatedMarker = "Updated - "
	timeSuffix    = " at"
)

var rules = map[domain.DateRule]func(string) string{
	domain.DateRulePassthrough:  func(raw string) string { return raw },
	domain.DateRuleStripUpdated: stripUpdated,
}

// Normalize applies the rule to raw. Unknown rules pass through; empty input yields domain.NoDate.
func Normalize(raw string, rule domain.DateRule) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.NoDate
	}

	apply, ok := rules[rule]
	if !ok {
		return raw
	}

	if out := strings.TrimSpace(apply(raw)); out != "" {
		return out
	}
	return raw
}

// Known reports whether rule has a registered cleanup strategy.
func Known(rule domain.DateRule) bool {
	_, ok := rules[rule]
	return ok
}

func stripUpdated(raw string) string {
	if _, after, found := strings.Cut(raw, updatedMarker); found {
		raw = after
	}
	before, _, _ := strings.Cut(raw, timeSuffix)
	return before
}
