package filter

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"newsrelay/internal/model"
)

// SeenSet records feed entry keys that were already queued for delivery.
type SeenSet interface {
	IsSeen(ctx context.Context, key string) (bool, error)
	MarkSeen(ctx context.Context, key string) error
}

// CompareIDs orders two timeline post ids. Numeric ids are compared by
// value without parsing, so ids wider than int64 still order correctly;
// anything else falls back to plain string order.
func CompareIDs(a, b string) int {
	if isDigits(a) && isDigits(b) {
		a = strings.TrimLeft(a, "0")
		b = strings.TrimLeft(b, "0")
		if len(a) != len(b) {
			if len(a) < len(b) {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FreshTimeline returns the posts newer than cursor, oldest first, and the
// cursor to store once they have been handed to delivery.
//
// Replies are dropped without touching the cursor, so a page made only of
// replies is re-read and skipped again on the next cycle.
func FreshTimeline(items []model.TimelineItem, cursor model.Cursor) ([]model.TimelineItem, model.Cursor) {
	fresh := make([]model.TimelineItem, 0, len(items))
	for _, it := range items {
		if it.IsReply || it.ID == "" {
			continue
		}
		if !cursor.IsNone() && CompareIDs(it.ID, string(cursor)) <= 0 {
			continue
		}
		fresh = append(fresh, it)
	}

	slices.SortStableFunc(fresh, func(a, b model.TimelineItem) int {
		return CompareIDs(a.ID, b.ID)
	})
	fresh = slices.CompactFunc(fresh, func(a, b model.TimelineItem) bool {
		return a.ID == b.ID
	})

	if len(fresh) == 0 {
		return nil, cursor
	}
	return fresh, model.Cursor(fresh[len(fresh)-1].ID)
}

// FreshEntries returns the entries whose key is not in seen, oldest first.
// Feeds list newest first, so the input order is reversed.
//
// Each returned entry is marked seen before FreshEntries returns, which
// makes feed delivery at-most-once: a failed send is not retried on the
// next cycle. On a store error the entries collected so far are returned
// together with the error.
func FreshEntries(ctx context.Context, entries []model.FeedEntry, seen SeenSet) ([]model.FeedEntry, error) {
	var fresh []model.FeedEntry
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Key == "" {
			continue
		}
		ok, err := seen.IsSeen(ctx, e.Key)
		if err != nil {
			return fresh, fmt.Errorf("check seen %q: %w", e.Key, err)
		}
		if ok {
			continue
		}
		if err := seen.MarkSeen(ctx, e.Key); err != nil {
			return fresh, fmt.Errorf("mark seen %q: %w", e.Key, err)
		}
		fresh = append(fresh, e)
	}
	return fresh, nil
}
