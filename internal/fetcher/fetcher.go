// Package fetcher downloads and parses news feeds.
package fetcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"newsrelay/internal/filter"
	"newsrelay/internal/model"
)

// DefaultLimit is the number of entries taken from a feed with no limit set.
const DefaultLimit = 3

const maxBodySize = 5 * 1024 * 1024

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and parses RSS and Atom feeds.
type Fetcher struct {
	client HTTPClient
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch downloads and parses a feed from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsRelay/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// Entries fetches a configured feed and returns its first Limit items,
// newest first as the feed lists them, minus those rejected by the
// feed's keyword rules.
func (f *Fetcher) Entries(ctx context.Context, src model.Feed) ([]model.FeedEntry, error) {
	feed, err := f.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	limit := src.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	items := feed.Items
	if len(items) > limit {
		items = items[:limit]
	}

	entries := make([]model.FeedEntry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		e := ToEntry(item)
		if !filter.Match(e, src.Filters) {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ToEntry converts a parsed feed item into a FeedEntry.
func ToEntry(item *gofeed.Item) model.FeedEntry {
	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}
	return model.FeedEntry{
		Key:         EntryKey(item),
		Link:        strings.TrimSpace(item.Link),
		Title:       strings.TrimSpace(item.Title),
		Published:   strings.TrimSpace(item.Published),
		SummaryHTML: summary,
		ImageURL:    itemImage(item),
	}
}

// EntryKey returns the deduplication key for a feed item: its link, else
// its GUID, else a SHA-256 hash of the title.
func EntryKey(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	if item.GUID != "" {
		return item.GUID
	}
	if item.Title == "" {
		return ""
	}
	h := sha256.Sum256([]byte(item.Title))
	return fmt.Sprintf("sha256:%x", h[:16])
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}
