// Package signal is the change-notification bus between the mutation
// gateway and the feed synchronizers.
//
// Every successful write publishes a small event on a Redis pub/sub
// channel. Subscribers never receive data through the bus; an event only
// tells them that their scope changed, and they re-query the store for a
// full ordered snapshot. Redis therefore carries ticks, Mongo carries
// truth.
package signal

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChannelPosts carries events for the board feed scope.
const ChannelPosts = "board.posts"

// CommentsChannel returns the channel for one post's comment thread scope.
func CommentsChannel(postID string) string {
	return "board.comments." + postID
}

// Event kinds.
const (
	KindPostCreated    = "post_created"
	KindPostDeleted    = "post_deleted"
	KindPostPinned     = "post_pinned"
	KindCommentCreated = "comment_created"
	KindCommentDeleted = "comment_deleted"
)

// Event marks that something in a scope changed. PostID is set for
// post-scoped events so comment subscribers can route.
type Event struct {
	Kind   string `json:"kind"`
	PostID string `json:"post_id,omitempty"`
}

// Bus publishes and subscribes to change events over Redis pub/sub.
type Bus struct {
	rdb *redis.Client
	log *zap.Logger
}

// NewBus creates a Bus on the given Redis client.
func NewBus(rdb *redis.Client, logger *zap.Logger) *Bus {
	return &Bus{rdb: rdb, log: logger}
}

// Publish sends an event on a channel. Publish failures are returned so the
// gateway can log them, but a missed tick only delays subscribers until the
// next event; the write itself has already happened.
func (b *Bus) Publish(ctx context.Context, channel string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channel, payload).Err()
}

// Subscription is a live event stream for one channel. C closes when the
// subscription ends; Err reports whether it ended because the transport
// failed rather than because the caller walked away.
type Subscription struct {
	C <-chan Event

	ps *redis.PubSub

	mu  sync.Mutex
	err error
}

// Err returns the terminal error, or nil if the subscription was closed
// deliberately (ctx cancel or Close).
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() error {
	return s.ps.Close()
}

// Subscribe opens a subscription on a channel. The stream ends when ctx is
// canceled, Close is called, or the Redis connection fails; in the failure
// case Err() reports the cause so the caller can surface a stale state.
func (b *Bus) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	ps := b.rdb.Subscribe(ctx, channel)

	// Confirm the subscription before handing it out, so a dead Redis is an
	// immediate error instead of a silently empty stream.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan Event)
	sub := &Subscription{C: out, ps: ps}

	go func() {
		defer close(out)
		for {
			msg, err := ps.ReceiveMessage(ctx)
			if err != nil {
				if ctx.Err() == nil && !isClosed(err) {
					sub.mu.Lock()
					sub.err = err
					sub.mu.Unlock()
					b.log.Warn("signal subscription failed",
						zap.String("channel", channel), zap.Error(err))
				}
				return
			}

			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("dropping malformed signal event",
					zap.String("channel", channel), zap.Error(err))
				continue
			}

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub, nil
}

func isClosed(err error) bool {
	return err == redis.ErrClosed
}
