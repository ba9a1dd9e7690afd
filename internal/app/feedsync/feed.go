// Package feedsync keeps live, ordered views of the board in sync with the
// store. A synchronizer subscribes to the change-signal bus and, on every
// event, re-queries the full ordered result set from MongoDB — a total
// re-read on each update, never a delta. That trades CPU for simplicity and
// is fine at board sizes of tens to low hundreds of posts; the store's sort
// stays the single source of ordering truth.
//
// Redundant events produce redundant, identical snapshots; consumers must
// tolerate that. If the bus subscription dies, the synchronizer emits one
// final snapshot marked stale and closes the stream — it never freezes
// silently, and it never resubscribes on its own (the caller decides).
package feedsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/clubboard/clubboard/internal/app/directory"
	"github.com/clubboard/clubboard/internal/app/signal"
	poststore "github.com/clubboard/clubboard/internal/app/store/posts"
	"github.com/clubboard/clubboard/internal/app/system/timeouts"
	"github.com/clubboard/clubboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrStaleSubscription marks a feed whose upstream push channel errored.
// The final snapshot carries it so callers can render a retry affordance.
var ErrStaleSubscription = errors.New("stale subscription")

// FeedSnapshot is one full re-render of the board feed: every post, already
// in feed order. Stale is set on the terminal snapshot after a bus failure.
type FeedSnapshot struct {
	Posts []models.Post
	Stale bool
	Err   error
}

// FeedSynchronizer maintains a live ordered view of all posts.
type FeedSynchronizer struct {
	posts *poststore.Store
	bus   *signal.Bus
	dir   *directory.Cache
	log   *zap.Logger
}

// NewFeedSynchronizer wires a synchronizer to its store, bus and directory
// cache. The cache is injected, not global; the synchronizer warms it with
// authors it has not seen before.
func NewFeedSynchronizer(posts *poststore.Store, bus *signal.Bus, dir *directory.Cache, logger *zap.Logger) *FeedSynchronizer {
	return &FeedSynchronizer{posts: posts, bus: bus, dir: dir, log: logger}
}

// Subscribe starts a live feed. The returned channel delivers an initial
// snapshot, then one snapshot per upstream change, and closes when ctx is
// canceled or the bus subscription fails (after a final stale snapshot).
// Canceling ctx releases every resource on all exit paths.
func (s *FeedSynchronizer) Subscribe(ctx context.Context) (<-chan FeedSnapshot, error) {
	sub, err := s.bus.Subscribe(ctx, signal.ChannelPosts)
	if err != nil {
		return nil, fmt.Errorf("subscribe feed: %w", err)
	}

	out := make(chan FeedSnapshot, 1)

	go func() {
		defer close(out)
		defer sub.Close()

		seen := make(map[primitive.ObjectID]bool)

		if !s.deliver(ctx, out, seen) {
			return
		}

		for range sub.C {
			if !s.deliver(ctx, out, seen) {
				return
			}
		}

		// Bus stream ended. Deliberate teardown just closes; a transport
		// failure surfaces a distinguishable stale state first.
		if busErr := sub.Err(); busErr != nil {
			stale := FeedSnapshot{Stale: true, Err: fmt.Errorf("%w: %v", ErrStaleSubscription, busErr)}
			select {
			case out <- stale:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

// deliver re-queries the full feed and pushes one snapshot. Returns false
// when the subscription should end.
func (s *FeedSynchronizer) deliver(ctx context.Context, out chan<- FeedSnapshot, seen map[primitive.ObjectID]bool) bool {
	qctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	posts, err := s.posts.List(qctx)
	cancel()

	snap := FeedSnapshot{Posts: posts}
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.log.Warn("feed re-query failed", zap.Error(err))
		snap = FeedSnapshot{Stale: true, Err: fmt.Errorf("%w: %v", ErrStaleSubscription, err)}
	} else {
		s.warmAuthors(ctx, posts, seen)
	}

	select {
	case out <- snap:
		return err == nil
	case <-ctx.Done():
		return false
	}
}

// warmAuthors kicks off identity resolution for authors this subscription
// has not seen yet, so rows usually render with names already cached.
func (s *FeedSynchronizer) warmAuthors(ctx context.Context, posts []models.Post, seen map[primitive.ObjectID]bool) {
	var fresh []primitive.ObjectID
	for _, p := range posts {
		if !seen[p.CreatedBy] {
			seen[p.CreatedBy] = true
			fresh = append(fresh, p.CreatedBy)
		}
	}
	if len(fresh) > 0 {
		s.dir.Warm(ctx, fresh)
	}
}
