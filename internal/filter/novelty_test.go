package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"newsrelay/internal/model"
)

type mapSeen struct {
	keys    map[string]bool
	failOn  string
	markErr error
}

func newMapSeen(keys ...string) *mapSeen {
	m := &mapSeen{keys: make(map[string]bool)}
	for _, k := range keys {
		m.keys[k] = true
	}
	return m
}

func (m *mapSeen) IsSeen(_ context.Context, key string) (bool, error) {
	if key == m.failOn {
		return false, errors.New("store unavailable")
	}
	return m.keys[key], nil
}

func (m *mapSeen) MarkSeen(_ context.Context, key string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.keys[key] = true
	return nil
}

func ids(items []model.TimelineItem) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func keys(entries []model.FeedEntry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Key)
	}
	return out
}

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1", "2", -1},
		{"10", "9", 1},
		{"1879000000000000001", "1879000000000000001", 0},
		{"99999999999999999999999", "100000000000000000000000", -1},
		{"007", "7", 0},
		{"abc", "abd", -1},
		{"9", "abc", -1},
	}
	for _, tt := range tests {
		got := CompareIDs(tt.a, tt.b)
		if got != tt.want {
			t.Errorf("CompareIDs(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFreshTimeline(t *testing.T) {
	tests := []struct {
		name       string
		items      []model.TimelineItem
		cursor     model.Cursor
		wantIDs    []string
		wantCursor model.Cursor
	}{
		{
			name:       "empty page keeps cursor",
			cursor:     "100",
			wantCursor: "100",
		},
		{
			name:       "no cursor takes everything oldest first",
			items:      []model.TimelineItem{{ID: "300"}, {ID: "200"}, {ID: "100"}},
			wantIDs:    []string{"100", "200", "300"},
			wantCursor: "300",
		},
		{
			name:       "only ids above cursor",
			items:      []model.TimelineItem{{ID: "300"}, {ID: "200"}, {ID: "100"}},
			cursor:     "200",
			wantIDs:    []string{"300"},
			wantCursor: "300",
		},
		{
			name:       "id equal to cursor is not new",
			items:      []model.TimelineItem{{ID: "200"}},
			cursor:     "200",
			wantCursor: "200",
		},
		{
			name:       "replies are skipped and never become the cursor",
			items:      []model.TimelineItem{{ID: "500", IsReply: true}, {ID: "300"}},
			cursor:     "200",
			wantIDs:    []string{"300"},
			wantCursor: "300",
		},
		{
			name:       "page of only replies leaves cursor unchanged",
			items:      []model.TimelineItem{{ID: "500", IsReply: true}, {ID: "400", IsReply: true}},
			cursor:     "200",
			wantCursor: "200",
		},
		{
			name:       "numeric order across digit counts",
			items:      []model.TimelineItem{{ID: "1000"}, {ID: "999"}},
			cursor:     "998",
			wantIDs:    []string{"999", "1000"},
			wantCursor: "1000",
		},
		{
			name:       "duplicate ids collapse",
			items:      []model.TimelineItem{{ID: "5"}, {ID: "5"}},
			wantIDs:    []string{"5"},
			wantCursor: "5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cursor := FreshTimeline(tt.items, tt.cursor)
			if diff := cmp.Diff(tt.wantIDs, ids(got)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantCursor, cursor); diff != "" {
				t.Errorf("cursor mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFreshTimelineAcrossCycles(t *testing.T) {
	pages := [][]model.TimelineItem{
		{{ID: "12"}, {ID: "11", IsReply: true}, {ID: "10"}},
		{{ID: "14"}, {ID: "13"}, {ID: "12"}},
		{{ID: "15", IsReply: true}, {ID: "14"}, {ID: "13"}},
		{{ID: "16"}, {ID: "15", IsReply: true}, {ID: "14"}},
	}

	var cursor model.Cursor
	delivered := map[string]int{}
	var order []string
	for _, page := range pages {
		prev := cursor
		var fresh []model.TimelineItem
		fresh, cursor = FreshTimeline(page, cursor)
		for _, it := range fresh {
			if !prev.IsNone() && CompareIDs(it.ID, string(prev)) <= 0 {
				t.Errorf("delivered %s at or below previous cursor %s", it.ID, prev)
			}
			delivered[it.ID]++
			order = append(order, it.ID)
		}
	}

	if diff := cmp.Diff([]string{"10", "12", "13", "14", "16"}, order); diff != "" {
		t.Errorf("delivery order mismatch (-want +got):\n%s", diff)
	}
	for id, n := range delivered {
		if n != 1 {
			t.Errorf("post %s delivered %d times", id, n)
		}
	}
	if diff := cmp.Diff(model.Cursor("16"), cursor); diff != "" {
		t.Errorf("final cursor mismatch (-want +got):\n%s", diff)
	}
}

func TestFreshEntries(t *testing.T) {
	ctx := context.Background()
	page := []model.FeedEntry{
		{Key: "https://news.example.com/c"},
		{Key: "https://news.example.com/b"},
		{Key: "https://news.example.com/a"},
	}

	tests := []struct {
		name     string
		seen     *mapSeen
		entries  []model.FeedEntry
		wantKeys []string
	}{
		{
			name:     "nothing seen returns oldest first",
			seen:     newMapSeen(),
			entries:  page,
			wantKeys: []string{"https://news.example.com/a", "https://news.example.com/b", "https://news.example.com/c"},
		},
		{
			name:     "seen links skipped",
			seen:     newMapSeen("https://news.example.com/a", "https://news.example.com/c"),
			entries:  page,
			wantKeys: []string{"https://news.example.com/b"},
		},
		{
			name:    "everything seen",
			seen:    newMapSeen("https://news.example.com/a", "https://news.example.com/b", "https://news.example.com/c"),
			entries: page,
		},
		{
			name:     "same link twice in one page delivered once",
			seen:     newMapSeen(),
			entries:  []model.FeedEntry{{Key: "x"}, {Key: "x"}},
			wantKeys: []string{"x"},
		},
		{
			name:    "entries without key ignored",
			seen:    newMapSeen(),
			entries: []model.FeedEntry{{Title: "no key"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FreshEntries(ctx, tt.entries, tt.seen)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.wantKeys, keys(got)); diff != "" {
				t.Errorf("keys mismatch (-want +got):\n%s", diff)
			}
			for _, k := range tt.wantKeys {
				if !tt.seen.keys[k] {
					t.Errorf("%s returned but not marked seen", k)
				}
			}
		})
	}
}

func TestFreshEntriesRepeatedPage(t *testing.T) {
	ctx := context.Background()
	seen := newMapSeen()
	page := []model.FeedEntry{{Key: "b"}, {Key: "a"}}

	first, err := FreshEntries(ctx, page, seen)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := FreshEntries(ctx, page, seen)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, keys(first)); diff != "" {
		t.Errorf("first pass mismatch (-want +got):\n%s", diff)
	}
	if len(second) != 0 {
		t.Errorf("second pass returned %v, want none", keys(second))
	}
}

func TestFreshEntriesStoreError(t *testing.T) {
	ctx := context.Background()
	seen := newMapSeen()
	seen.failOn = "b"
	page := []model.FeedEntry{{Key: "c"}, {Key: "b"}, {Key: "a"}}

	got, err := FreshEntries(ctx, page, seen)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if diff := cmp.Diff([]string{"a"}, keys(got)); diff != "" {
		t.Errorf("partial result mismatch (-want +got):\n%s", diff)
	}
}

func TestFreshEntriesMarkError(t *testing.T) {
	seen := newMapSeen()
	seen.markErr = errors.New("disk full")

	got, err := FreshEntries(context.Background(), []model.FeedEntry{{Key: "a"}}, seen)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(got) != 0 {
		t.Errorf("unmarked entry returned: %v", keys(got))
	}
}
