// Package gateway validates and executes every board mutation, enforcing
// role policy before anything reaches the store. The view layer may hide
// controls from members, but hiding is not a security boundary; this
// package is.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/clubboard/clubboard/internal/app/signal"
	commentstore "github.com/clubboard/clubboard/internal/app/store/comments"
	poststore "github.com/clubboard/clubboard/internal/app/store/posts"
	"github.com/clubboard/clubboard/internal/app/system/htmlsanitize"
	"github.com/clubboard/clubboard/internal/app/system/timeouts"
	"github.com/clubboard/clubboard/internal/app/system/txn"
	"github.com/clubboard/clubboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Principal is the acting identity for a mutation: who, and with what role.
// The role was fixed at sign-in and is re-checked here on every call.
type Principal struct {
	ID   primitive.ObjectID
	Role string
}

// ConfirmFunc is the caller-supplied human-in-the-loop confirmation for
// destructive operations. The gateway awaits it before dispatching; a false
// result aborts without touching the store.
type ConfirmFunc func(ctx context.Context) bool

// Gateway executes create/delete/pin-toggle operations against the store.
type Gateway struct {
	client   *mongo.Client
	posts    *poststore.Store
	comments *commentstore.Store
	bus      *signal.Bus
	log      *zap.Logger
	guard    *Inflight
}

// New constructs a Gateway.
func New(client *mongo.Client, posts *poststore.Store, comments *commentstore.Store, bus *signal.Bus, logger *zap.Logger) *Gateway {
	return &Gateway{
		client:   client,
		posts:    posts,
		comments: comments,
		bus:      bus,
		log:      logger,
		guard:    NewInflight(),
	}
}

// CreatePost publishes a new announcement. Admin only; a title that is
// empty after trimming is rejected before the store is touched.
func (g *Gateway) CreatePost(ctx context.Context, actor Principal, title, content string) (models.Post, error) {
	if actor.Role != models.RoleAdmin {
		return models.Post{}, fmt.Errorf("create post: %w", ErrUnauthorized)
	}

	title = htmlsanitize.Plain(title)
	content = htmlsanitize.Plain(content)
	if title == "" {
		return models.Post{}, fmt.Errorf("create post: title is required: %w", ErrInvalidInput)
	}

	key := "create_post:" + actor.ID.Hex()
	if !g.guard.TryAcquire(key) {
		return models.Post{}, fmt.Errorf("create post: %w", ErrInFlight)
	}
	defer g.guard.Release(key)

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	post, err := g.posts.Create(ctx, poststore.CreateInput{
		Title:     title,
		Content:   content,
		CreatedBy: actor.ID,
	})
	if err != nil {
		return models.Post{}, storeErr("create post", err)
	}

	g.publish(ctx, signal.ChannelPosts, signal.Event{
		Kind:   signal.KindPostCreated,
		PostID: post.ID.Hex(),
	})

	g.log.Info("post created",
		zap.String("post_id", post.ID.Hex()),
		zap.String("created_by", actor.ID.Hex()))
	return post, nil
}

// DeletePost removes an announcement and its comment thread. Admin only,
// and the confirmation callback must approve before anything is dispatched.
// The post and its comments go in one transaction so no orphaned comments
// are left behind.
func (g *Gateway) DeletePost(ctx context.Context, actor Principal, postID primitive.ObjectID, confirm ConfirmFunc) error {
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("delete post: %w", ErrUnauthorized)
	}
	if confirm == nil || !confirm(ctx) {
		return fmt.Errorf("delete post: %w", ErrNotConfirmed)
	}

	key := "delete_post:" + postID.Hex()
	if !g.guard.TryAcquire(key) {
		return fmt.Errorf("delete post: %w", ErrInFlight)
	}
	defer g.guard.Release(key)

	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	err := txn.WithTransaction(ctx, g.client, g.log, func(ctx context.Context) error {
		if _, err := g.comments.DeleteByPost(ctx, postID); err != nil {
			return err
		}
		return g.posts.Delete(ctx, postID)
	})
	if err != nil {
		return storeErr("delete post", err)
	}

	g.publish(ctx, signal.ChannelPosts, signal.Event{
		Kind:   signal.KindPostDeleted,
		PostID: postID.Hex(),
	})
	g.publish(ctx, signal.CommentsChannel(postID.Hex()), signal.Event{
		Kind:   signal.KindPostDeleted,
		PostID: postID.Hex(),
	})

	g.log.Info("post deleted",
		zap.String("post_id", postID.Hex()),
		zap.String("deleted_by", actor.ID.Hex()))
	return nil
}

// TogglePin flips a post's pinned flag. Admin only: the control is never
// reachable by a member in correct UI state, but the gateway re-checks
// regardless, and a member invocation leaves the store untouched.
func (g *Gateway) TogglePin(ctx context.Context, actor Principal, postID primitive.ObjectID, currentPinned bool) error {
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("toggle pin: %w", ErrUnauthorized)
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	if err := g.posts.SetPinned(ctx, postID, !currentPinned); err != nil {
		return storeErr("toggle pin", err)
	}

	g.publish(ctx, signal.ChannelPosts, signal.Event{
		Kind:   signal.KindPostPinned,
		PostID: postID.Hex(),
	})

	g.log.Info("pin toggled",
		zap.String("post_id", postID.Hex()),
		zap.Bool("pinned", !currentPinned))
	return nil
}

// CreateComment appends a comment to a post's thread. Any authenticated
// viewer may comment; empty text after trimming is rejected before the
// store is touched.
func (g *Gateway) CreateComment(ctx context.Context, actor Principal, postID primitive.ObjectID, text string) (models.Comment, error) {
	if actor.ID.IsZero() {
		return models.Comment{}, fmt.Errorf("create comment: %w", ErrUnauthorized)
	}

	text = htmlsanitize.Plain(text)
	if text == "" {
		return models.Comment{}, fmt.Errorf("create comment: text is required: %w", ErrInvalidInput)
	}

	key := "create_comment:" + actor.ID.Hex() + ":" + postID.Hex()
	if !g.guard.TryAcquire(key) {
		return models.Comment{}, fmt.Errorf("create comment: %w", ErrInFlight)
	}
	defer g.guard.Release(key)

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	// The post must still exist; commenting on a vanished post is NotFound,
	// not a silent orphan write.
	if _, err := g.posts.GetByID(ctx, postID); err != nil {
		return models.Comment{}, storeErr("create comment", err)
	}

	cm, err := g.comments.Create(ctx, commentstore.CreateInput{
		PostID:    postID,
		Text:      text,
		CreatedBy: actor.ID,
	})
	if err != nil {
		return models.Comment{}, storeErr("create comment", err)
	}

	g.publish(ctx, signal.CommentsChannel(postID.Hex()), signal.Event{
		Kind:   signal.KindCommentCreated,
		PostID: postID.Hex(),
	})

	return cm, nil
}

// DeleteComment removes one comment. Admin only, confirmation required.
func (g *Gateway) DeleteComment(ctx context.Context, actor Principal, postID, commentID primitive.ObjectID, confirm ConfirmFunc) error {
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("delete comment: %w", ErrUnauthorized)
	}
	if confirm == nil || !confirm(ctx) {
		return fmt.Errorf("delete comment: %w", ErrNotConfirmed)
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	if err := g.comments.Delete(ctx, commentID); err != nil {
		return storeErr("delete comment", err)
	}

	g.publish(ctx, signal.CommentsChannel(postID.Hex()), signal.Event{
		Kind:   signal.KindCommentDeleted,
		PostID: postID.Hex(),
	})

	g.log.Info("comment deleted",
		zap.String("post_id", postID.Hex()),
		zap.String("comment_id", commentID.Hex()),
		zap.String("deleted_by", actor.ID.Hex()))
	return nil
}

// publish sends the change signal for a completed write. A publish failure
// only delays live feeds until the next event, so it is logged, not
// returned.
func (g *Gateway) publish(ctx context.Context, channel string, ev signal.Event) {
	if g.bus == nil {
		return
	}
	if err := g.bus.Publish(ctx, channel, ev); err != nil {
		g.log.Warn("failed to publish change signal",
			zap.String("channel", channel),
			zap.String("kind", ev.Kind),
			zap.Error(err))
	}
}

// storeErr maps store failures onto the rejection taxonomy, keeping the
// cause wrapped for logs.
func storeErr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %v: %w", op, err, ErrStoreUnavailable)
}
