// Package storage keeps the relay's delivery state: the timeline cursor
// per account and the set of feed entry keys already queued for delivery.
package storage

import (
	"context"

	"newsrelay/internal/model"
)

// Storage is the interface for all state operations.
// The seen set is global: a key seen on one feed is skipped on every feed.
type Storage interface {
	Cursor(ctx context.Context, account string) (model.Cursor, error)
	SetCursor(ctx context.Context, account string, cursor model.Cursor) error

	MarkSeen(ctx context.Context, key string) error
	IsSeen(ctx context.Context, key string) (bool, error)

	Close() error
}
