// Package text turns rendered option and widget labels into plain text so
// dependent-field rules can compare them without tripping over markup.
package text

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	plainPolicyOnce sync.Once
	plainPolicy     *bluemonday.Policy
)

// Plain strips all markup from raw, unescapes entities and collapses runs of
// whitespace. Adjacent elements are treated as separate words.
func Plain(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.ContainsAny(trimmed, "<&") {
		return strings.Join(strings.Fields(trimmed), " ")
	}
	spaced := strings.ReplaceAll(trimmed, "<", " <")
	cleaned := html.UnescapeString(policy().Sanitize(spaced))
	return strings.Join(strings.Fields(cleaned), " ")
}

// Contains reports whether the plain text of haystack contains the plain text
// of needle. An empty needle never matches.
func Contains(haystack, needle string) bool {
	n := Plain(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Plain(haystack), n)
}

// Join renders labels as one plain-text string separated by single spaces.
func Join(labels []string) string {
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		if plain := Plain(label); plain != "" {
			parts = append(parts, plain)
		}
	}
	return strings.Join(parts, " ")
}

func policy() *bluemonday.Policy {
	plainPolicyOnce.Do(func() {
		plainPolicy = bluemonday.StrictPolicy()
	})
	return plainPolicy
}
