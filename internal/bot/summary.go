package bot

import (
	"strings"
	"unicode/utf8"

	"newsrelay/internal/htmltext"
)

// SummaryBudget is the maximum number of characters kept from a feed
// entry summary, not counting the ellipsis.
const SummaryBudget = 300

// Ellipsis marks a truncated summary.
const Ellipsis = "..."

// CleanSummary turns an entry's HTML summary into plain text cut to
// SummaryBudget characters. The src of the first absolute http(s) image
// is returned so it can be attached to the message.
func CleanSummary(raw string) (text, imageURL string) {
	text, imageURL = htmltext.Extract(raw)
	return truncate(text, SummaryBudget), imageURL
}

// truncate cuts s to at most limit runes and appends Ellipsis when
// anything was cut.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:limit]), " ") + Ellipsis
}
