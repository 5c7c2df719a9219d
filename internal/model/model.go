// Package model defines the domain types used across the application.
package model

import (
	"regexp"
	"time"
)

// MediaKind is the type of media attached to a timeline post.
type MediaKind string

// Supported media kinds.
const (
	MediaPhoto       MediaKind = "photo"
	MediaVideo       MediaKind = "video"
	MediaAnimatedGIF MediaKind = "animated_gif"
)

// MediaRef is a single media attachment of a timeline post.
type MediaRef struct {
	Kind       MediaKind
	URL        string
	PreviewURL string
}

// TimelineItem is one post from the monitored social account.
type TimelineItem struct {
	ID        string
	Text      string
	CreatedAt time.Time
	IsReply   bool
	Media     []MediaRef
}

// Cursor is the id of the last delivered timeline post.
// The zero value means nothing has been delivered yet.
type Cursor string

// IsNone reports whether no post has been delivered yet.
func (c Cursor) IsNone() bool {
	return c == ""
}

// FeedEntry is one item of an RSS or Atom feed.
// Key is the deduplication key: the link, or a fallback when the feed
// omits it.
type FeedEntry struct {
	Key         string
	Link        string
	Title       string
	Published   string
	SummaryHTML string
	ImageURL    string
}

// Feed is a configured news feed source.
type Feed struct {
	Name    string
	URL     string
	Limit   int
	Filters []Filter
}

// FilterKind defines the type of filter rule.
type FilterKind string

// Supported filter kinds.
const (
	FilterInclude   FilterKind = "include"
	FilterExclude   FilterKind = "exclude"
	FilterIncludeRe FilterKind = "include_re"
	FilterExcludeRe FilterKind = "exclude_re"
)

// FilterScope defines which part of the feed entry a filter matches against.
type FilterScope string

// Supported filter scopes.
const (
	ScopeTitle   FilterScope = "title"
	ScopeContent FilterScope = "content"
	ScopeAll     FilterScope = "all"
)

// Filter represents a single keyword rule attached to a feed.
// Pattern holds Value compiled once at load for the regex kinds.
type Filter struct {
	Kind    FilterKind
	Scope   FilterScope
	Value   string
	Pattern *regexp.Regexp
}

// Message is a composed chat message ready for delivery.
type Message struct {
	Text     string
	ImageURL string
	// Markup marks Text as Telegram HTML.
	Markup bool
}
