package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"newsrelay/internal/fetcher"
	"newsrelay/internal/filter"
	"newsrelay/internal/model"
)

// MaxFeedLimit caps how many entries a single feed may contribute per cycle.
const MaxFeedLimit = 20

type feedsFile struct {
	Feeds []feedDef `yaml:"feeds"`
}

type feedDef struct {
	Name    string       `yaml:"name"`
	URL     string       `yaml:"url"`
	Limit   int          `yaml:"limit"`
	Filters []filterSpec `yaml:"filters"`
}

type filterSpec struct {
	Kind  string `yaml:"kind"`
	Scope string `yaml:"scope"`
	Value string `yaml:"value"`
}

// DefaultFeeds returns the feeds watched when no FEEDS_FILE is given.
func DefaultFeeds() []model.Feed {
	return []model.Feed{
		{Name: "CoinDesk", URL: "https://www.coindesk.com/arc/outboundfeeds/rss/", Limit: fetcher.DefaultLimit},
		{Name: "Cointelegraph", URL: "https://cointelegraph.com/rss", Limit: fetcher.DefaultLimit},
	}
}

// LoadFeeds reads the feed list from a YAML file.
func LoadFeeds(path string) ([]model.Feed, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("open feeds file: %w", err)
	}
	defer func() { _ = f.Close() }()

	feeds, err := ParseFeeds(f)
	if err != nil {
		return nil, fmt.Errorf("feeds file %s: %w", path, err)
	}
	return feeds, nil
}

// ParseFeeds decodes and validates a YAML feed list.
func ParseFeeds(r io.Reader) ([]model.Feed, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var file feedsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(file.Feeds) == 0 {
		return nil, errors.New("no feeds defined")
	}

	seen := make(map[string]bool, len(file.Feeds))
	feeds := make([]model.Feed, 0, len(file.Feeds))
	for i, raw := range file.Feeds {
		feed, err := raw.toFeed()
		if err != nil {
			return nil, fmt.Errorf("feed #%d: %w", i+1, err)
		}
		if seen[feed.URL] {
			return nil, fmt.Errorf("feed #%d: duplicate url %s", i+1, feed.URL)
		}
		seen[feed.URL] = true
		feeds = append(feeds, feed)
	}
	return feeds, nil
}

func (s feedDef) toFeed() (model.Feed, error) {
	url := strings.TrimSpace(s.URL)
	if url == "" {
		return model.Feed{}, errors.New("url is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return model.Feed{}, fmt.Errorf("url %q must be http or https", url)
	}

	limit := s.Limit
	if limit == 0 {
		limit = fetcher.DefaultLimit
	}
	if limit < 1 || limit > MaxFeedLimit {
		return model.Feed{}, fmt.Errorf("limit must be between 1 and %d, got %d", MaxFeedLimit, limit)
	}

	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = url
	}

	feed := model.Feed{Name: name, URL: url, Limit: limit}
	for j, fs := range s.Filters {
		rule, err := fs.toFilter()
		if err != nil {
			return model.Feed{}, fmt.Errorf("filter #%d: %w", j+1, err)
		}
		feed.Filters = append(feed.Filters, rule)
	}
	return feed, nil
}

func (s filterSpec) toFilter() (model.Filter, error) {
	kind := model.FilterKind(strings.ToLower(strings.TrimSpace(s.Kind)))
	switch kind {
	case model.FilterInclude, model.FilterExclude, model.FilterIncludeRe, model.FilterExcludeRe:
	default:
		return model.Filter{}, fmt.Errorf("unknown kind %q", s.Kind)
	}

	scope := model.FilterScope(strings.ToLower(strings.TrimSpace(s.Scope)))
	switch scope {
	case "":
		scope = model.ScopeAll
	case model.ScopeTitle, model.ScopeContent, model.ScopeAll:
	default:
		return model.Filter{}, fmt.Errorf("unknown scope %q, use: title, content, all", s.Scope)
	}

	if strings.TrimSpace(s.Value) == "" {
		return model.Filter{}, errors.New("value is required")
	}
	rule := model.Filter{Kind: kind, Scope: scope, Value: s.Value}
	if kind == model.FilterIncludeRe || kind == model.FilterExcludeRe {
		re, err := filter.CompilePattern(s.Value)
		if err != nil {
			return model.Filter{}, err
		}
		rule.Pattern = re
	}
	return rule, nil
}
