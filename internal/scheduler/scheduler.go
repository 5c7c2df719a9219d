// Package scheduler runs the poll loop: fetch every source, keep only
// what is new, compose and deliver it, then wait for the next cycle.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"newsrelay/internal/bot"
	"newsrelay/internal/filter"
	"newsrelay/internal/model"
	"newsrelay/internal/storage"
)

// DefaultInterval is the wait between the end of one cycle and the start
// of the next.
const DefaultInterval = 60 * time.Second

// maxConcurrentFetches limits parallel source fetches within a cycle.
const maxConcurrentFetches = 4

// Social reads the monitored account's timeline.
type Social interface {
	LookupUserID(ctx context.Context, username string) (string, error)
	Timeline(ctx context.Context, userID string) ([]model.TimelineItem, error)
}

// FeedReader fetches the current entries of a news feed.
type FeedReader interface {
	Entries(ctx context.Context, feed model.Feed) ([]model.FeedEntry, error)
}

// Sender delivers composed messages to the chat.
type Sender interface {
	Send(ctx context.Context, msg model.Message) error
}

// Deps wires a Scheduler.
type Deps struct {
	Social   Social
	Feeds    FeedReader
	Sender   Sender
	Store    storage.Storage
	Log      *slog.Logger
	Username string
	Sources  []model.Feed
	Interval time.Duration
	// StartupNotice is sent once after the account resolves. Empty disables it.
	StartupNotice string
}

// Scheduler owns the delivery state and runs poll cycles one at a time.
type Scheduler struct {
	social   Social
	feeds    FeedReader
	sender   Sender
	store    storage.Storage
	log      *slog.Logger
	username string
	sources  []model.Feed
	tick     time.Duration
	notice   string

	userID string
}

// New creates a Scheduler. Init must succeed before Run.
func New(d Deps) *Scheduler {
	tick := d.Interval
	if tick <= 0 {
		tick = DefaultInterval
	}
	sources := make([]model.Feed, len(d.Sources))
	copy(sources, d.Sources)

	return &Scheduler{
		social:   d.Social,
		feeds:    d.Feeds,
		sender:   d.Sender,
		store:    d.Store,
		log:      d.Log,
		username: d.Username,
		sources:  sources,
		tick:     tick,
		notice:   d.StartupNotice,
	}
}

// Init resolves the monitored account to its user id and sends the
// startup notice. An error here is fatal: the loop must not start.
func (s *Scheduler) Init(ctx context.Context) error {
	id, err := s.social.LookupUserID(ctx, s.username)
	if err != nil {
		return fmt.Errorf("resolve account @%s: %w", s.username, err)
	}
	s.userID = id
	s.log.Info("resolved account", "username", s.username, "id", id)

	if s.notice != "" {
		if err := s.sender.Send(ctx, model.Message{Text: s.notice}); err != nil {
			s.log.Error("send startup notice", "error", err)
		}
	}
	return nil
}

// Run executes a cycle immediately, then again each interval after the
// previous cycle finished, until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if s.userID == "" {
		s.log.Error("scheduler run before init")
		return
	}

	s.cycle(ctx)

	timer := time.NewTimer(s.tick)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.cycle(ctx)
			timer.Reset(s.tick)
		}
	}
}

type timelineResult struct {
	items []model.TimelineItem
	err   error
}

type feedResult struct {
	entries []model.FeedEntry
	err     error
}

// cycle fetches all sources concurrently, then filters and delivers
// sequentially so state is only touched from this goroutine.
func (s *Scheduler) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	var timeline timelineResult
	results := make([]feedResult, len(s.sources))

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	g.Go(func() error {
		timeline.items, timeline.err = s.social.Timeline(ctx, s.userID)
		return nil
	})
	for i, src := range s.sources {
		g.Go(func() error {
			results[i].entries, results[i].err = s.feeds.Entries(ctx, src)
			return nil
		})
	}
	_ = g.Wait() // errors are kept per source

	s.deliverTimeline(ctx, timeline)
	for i, src := range s.sources {
		if ctx.Err() != nil {
			return
		}
		s.deliverFeed(ctx, src, results[i])
	}
}

func (s *Scheduler) deliverTimeline(ctx context.Context, res timelineResult) {
	if res.err != nil {
		s.logFetchError("timeline", "@"+s.username, res.err)
		return
	}

	cursor, err := s.store.Cursor(ctx, s.userID)
	if err != nil {
		s.log.Error("load cursor", "source", "timeline", "error", err)
		return
	}

	fresh, _ := filter.FreshTimeline(res.items, cursor)
	if skipped := countReplies(res.items); skipped > 0 {
		s.log.Debug("skipped replies", "source", "timeline", "count", skipped)
	}

	processed := cursor
	sent := 0
	for _, item := range fresh {
		if ctx.Err() != nil {
			break
		}
		msg := bot.ComposeTweet(s.username, item)
		if err := s.sender.Send(ctx, msg); err != nil {
			s.log.Error("deliver post", "id", item.ID, "error", err)
		} else {
			sent++
		}
		processed = model.Cursor(item.ID)
	}

	if processed != cursor {
		// Persist even when ctx is done so delivered posts are not repeated.
		if err := s.store.SetCursor(context.WithoutCancel(ctx), s.userID, processed); err != nil {
			s.log.Error("store cursor", "id", processed, "error", err)
		}
	}
	if sent > 0 {
		s.log.Info("sent notifications", "source", "timeline", "count", sent)
	}
}

func (s *Scheduler) deliverFeed(ctx context.Context, src model.Feed, res feedResult) {
	if res.err != nil {
		s.logFetchError("feed", src.Name, res.err)
		return
	}

	fresh, err := filter.FreshEntries(ctx, res.entries, s.store)
	if err != nil {
		s.log.Error("check seen", "feed", src.Name, "error", err)
	}

	sent := 0
	for _, entry := range fresh {
		if ctx.Err() != nil {
			return
		}
		if err := s.sender.Send(ctx, bot.ComposeEntry(entry)); err != nil {
			s.log.Error("deliver entry", "feed", src.Name, "link", entry.Link, "error", err)
			continue
		}
		sent++
	}

	if sent > 0 {
		s.log.Info("sent notifications", "source", "feed", "feed", src.Name, "count", sent)
	}
}

func (s *Scheduler) logFetchError(kind, name string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	s.log.Error("fetch "+kind, "source", name, "error", err)
}

func countReplies(items []model.TimelineItem) int {
	n := 0
	for _, it := range items {
		if it.IsReply {
			n++
		}
	}
	return n
}
