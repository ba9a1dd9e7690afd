package feedsync

import (
	"context"
	"fmt"

	"github.com/clubboard/clubboard/internal/app/directory"
	"github.com/clubboard/clubboard/internal/app/signal"
	commentstore "github.com/clubboard/clubboard/internal/app/store/comments"
	"github.com/clubboard/clubboard/internal/app/system/timeouts"
	"github.com/clubboard/clubboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ThreadSnapshot is one full re-render of a single post's comment thread,
// oldest first.
type ThreadSnapshot struct {
	Comments []models.Comment
	Stale    bool
	Err      error
}

// ThreadSynchronizer maintains a live comment thread for one post. Each
// instance is scoped to a post id; subscribing to a second post means a
// second synchronizer.
type ThreadSynchronizer struct {
	comments *commentstore.Store
	bus      *signal.Bus
	dir      *directory.Cache
	log      *zap.Logger
	postID   primitive.ObjectID
}

func NewThreadSynchronizer(comments *commentstore.Store, bus *signal.Bus, dir *directory.Cache, postID primitive.ObjectID, logger *zap.Logger) *ThreadSynchronizer {
	return &ThreadSynchronizer{comments: comments, bus: bus, dir: dir, log: logger, postID: postID}
}

// Subscribe starts a live thread using the same lifecycle as the feed:
// initial snapshot, one snapshot per change event on this post's channel,
// a final stale snapshot if the bus dies, channel close on teardown.
func (s *ThreadSynchronizer) Subscribe(ctx context.Context) (<-chan ThreadSnapshot, error) {
	sub, err := s.bus.Subscribe(ctx, signal.CommentsChannel(s.postID.Hex()))
	if err != nil {
		return nil, fmt.Errorf("subscribe thread: %w", err)
	}

	out := make(chan ThreadSnapshot, 1)

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

		if busErr := sub.Err(); busErr != nil {
			stale := ThreadSnapshot{Stale: true, Err: fmt.Errorf("%w: %v", ErrStaleSubscription, busErr)}
			select {
			case out <- stale:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

func (s *ThreadSynchronizer) deliver(ctx context.Context, out chan<- ThreadSnapshot, seen map[primitive.ObjectID]bool) bool {
	qctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	comments, err := s.comments.ListByPost(qctx, s.postID)
	cancel()

	snap := ThreadSnapshot{Comments: comments}
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.log.Warn("thread re-query failed", zap.String("post_id", s.postID.Hex()), zap.Error(err))
		snap = ThreadSnapshot{Stale: true, Err: fmt.Errorf("%w: %v", ErrStaleSubscription, err)}
	} else {
		var fresh []primitive.ObjectID
		for _, c := range comments {
			if !seen[c.CreatedBy] {
				seen[c.CreatedBy] = true
				fresh = append(fresh, c.CreatedBy)
			}
		}
		if len(fresh) > 0 {
			s.dir.Warm(ctx, fresh)
		}
	}

	select {
	case out <- snap:
		return err == nil
	case <-ctx.Done():
		return false
	}
}
