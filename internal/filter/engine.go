// Package filter decides which fetched items get delivered: keyword rules
// per feed and novelty against previously delivered state.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"newsrelay/internal/htmltext"
	"newsrelay/internal/model"
)

// Match checks whether an entry passes the given set of keyword rules.
// If no rules are provided, the entry always passes.
// Include rules use OR logic (at least one must match).
// Exclude rules use AND logic (none must match).
// Content rules see the summary as it will be displayed, without markup.
func Match(entry model.FeedEntry, rules []model.Filter) bool {
	if len(rules) == 0 {
		return true
	}

	doc := newDocument(entry)
	hasIncludes := false
	anyIncludeMatched := false

	for _, r := range rules {
		switch r.Kind {
		case model.FilterInclude, model.FilterIncludeRe:
			hasIncludes = true
			if !anyIncludeMatched && doc.matches(r) {
				anyIncludeMatched = true
			}
		case model.FilterExclude, model.FilterExcludeRe:
			if doc.matches(r) {
				return false
			}
		}
	}

	return !hasIncludes || anyIncludeMatched
}

// document holds the lower-cased searchable text of one entry.
type document struct {
	title   string
	content string
}

func newDocument(entry model.FeedEntry) document {
	content, _ := htmltext.Extract(entry.SummaryHTML)
	return document{
		title:   strings.ToLower(strings.TrimSpace(entry.Title)),
		content: strings.ToLower(content),
	}
}

func (d document) text(scope model.FilterScope) string {
	switch scope {
	case model.ScopeTitle:
		return d.title
	case model.ScopeContent:
		return d.content
	default:
		return d.title + " " + d.content
	}
}

func (d document) matches(r model.Filter) bool {
	text := d.text(r.Scope)
	switch r.Kind {
	case model.FilterInclude, model.FilterExclude:
		return strings.Contains(text, strings.ToLower(r.Value))
	case model.FilterIncludeRe, model.FilterExcludeRe:
		re := r.Pattern
		if re == nil {
			var err error
			if re, err = CompilePattern(r.Value); err != nil {
				return false
			}
		}
		return re.MatchString(text)
	}
	return false
}

// CompilePattern compiles a case-insensitive keyword regex.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex: %w", err)
	}
	return re, nil
}
