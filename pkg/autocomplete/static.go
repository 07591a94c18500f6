package autocomplete

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/goliatone/go-formsync/pkg/model"
	"github.com/goliatone/go-formsync/pkg/text"
)

// StaticSource filters a fixed option list using widget data:
//   - keys ending in ListSuffix hold JSON lists of values to leave out;
//   - any other non-empty key keeps only options whose Attrs entry for that
//     key matches (options without the attr are kept); a JSON list value
//     matches any of its entries;
//   - the term matches labels or values case-insensitively.
type StaticSource struct {
	options []model.Option
}

// NewStaticSource copies options into a new source.
func NewStaticSource(options []model.Option) *StaticSource {
	return &StaticSource{options: append([]model.Option(nil), options...)}
}

// Options implements Source.
func (s *StaticSource) Options(ctx context.Context, q Query) ([]model.Option, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}

	excluded := make(map[string]struct{})
	facets := make(map[string][]string)
	for key, value := range q.Data {
		if strings.HasSuffix(key, ListSuffix) {
			for _, v := range q.Data.List(key) {
				excluded[v] = struct{}{}
			}
			continue
		}
		if value != "" {
			facets[key] = facetValues(value)
		}
	}

	term := strings.ToLower(strings.TrimSpace(q.Term))
	var out []model.Option
	for _, opt := range s.options {
		if _, skip := excluded[opt.Value]; skip {
			continue
		}
		if !matchesFacets(opt, facets) {
			continue
		}
		if term != "" && !matchesTerm(opt, term) {
			continue
		}
		out = append(out, opt)
	}
	return out, nil
}

func matchesFacets(opt model.Option, facets map[string][]string) bool {
	for key, want := range facets {
		got, ok := opt.Attrs[key]
		if ok && !slices.Contains(want, got) {
			return false
		}
	}
	return true
}

// facetValues decodes a multiple-value master's JSON list, falling back to
// the raw value.
func facetValues(value string) []string {
	if strings.HasPrefix(value, "[") {
		var list []string
		if err := json.Unmarshal([]byte(value), &list); err == nil {
			return list
		}
	}
	return []string{value}
}

func matchesTerm(opt model.Option, term string) bool {
	if strings.Contains(strings.ToLower(text.Plain(opt.Label)), term) {
		return true
	}
	return strings.Contains(strings.ToLower(opt.Value), term)
}
