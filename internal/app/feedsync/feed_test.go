package feedsync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/clubboard/clubboard/internal/app/directory"
	"github.com/clubboard/clubboard/internal/app/feedsync"
	"github.com/clubboard/clubboard/internal/app/signal"
	poststore "github.com/clubboard/clubboard/internal/app/store/posts"
	userstore "github.com/clubboard/clubboard/internal/app/store/users"
	"github.com/clubboard/clubboard/internal/testutil"
)

const snapshotWait = 5 * time.Second

func nextFeedSnapshot(t *testing.T, ch <-chan feedsync.FeedSnapshot) (feedsync.FeedSnapshot, bool) {
	t.Helper()
	select {
	case snap, open := <-ch:
		return snap, open
	case <-time.After(snapshotWait):
		t.Fatal("timed out waiting for feed snapshot")
		return feedsync.FeedSnapshot{}, false
	}
}

func TestFeedInitialSnapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	bus, _ := testutil.SetupTestBus(t)
	fx := testutil.NewFixtures(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	author := primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)
	older := fx.CreatePost(ctx, "older", author, base, false)
	pinned := fx.CreatePost(ctx, "pinned", author, base.Add(-time.Hour), true)

	dir := directory.NewCache(userstore.New(db), zap.NewNop())
	sync := feedsync.NewFeedSynchronizer(poststore.New(db), bus, dir, zap.NewNop())

	ch, err := sync.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	snap, open := nextFeedSnapshot(t, ch)
	if !open {
		t.Fatal("stream closed before initial snapshot")
	}
	if snap.Stale {
		t.Fatalf("initial snapshot stale: %v", snap.Err)
	}
	if len(snap.Posts) != 2 {
		t.Fatalf("initial snapshot has %d posts, want 2", len(snap.Posts))
	}
	if snap.Posts[0].ID != pinned.ID || snap.Posts[1].ID != older.ID {
		t.Errorf("snapshot order = [%s, %s], want pinned first", snap.Posts[0].Title, snap.Posts[1].Title)
	}
}

func TestFeedResnapshotsOnSignal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	bus, _ := testutil.SetupTestBus(t)
	fx := testutil.NewFixtures(t, db)
	posts := poststore.New(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := directory.NewCache(userstore.New(db), zap.NewNop())
	sync := feedsync.NewFeedSynchronizer(posts, bus, dir, zap.NewNop())

	ch, err := sync.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if snap, _ := nextFeedSnapshot(t, ch); len(snap.Posts) != 0 {
		t.Fatalf("expected empty initial snapshot, got %d posts", len(snap.Posts))
	}

	post := fx.CreatePost(ctx, "fresh", primitive.NewObjectID(), time.Now(), false)
	if err := bus.Publish(ctx, signal.ChannelPosts, signal.Event{
		Kind: signal.KindPostCreated, PostID: post.ID.Hex(),
	}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	snap, open := nextFeedSnapshot(t, ch)
	if !open {
		t.Fatal("stream closed instead of delivering a snapshot")
	}
	if len(snap.Posts) != 1 || snap.Posts[0].ID != post.ID {
		t.Errorf("snapshot after signal = %d posts, want the new post", len(snap.Posts))
	}
}

func TestFeedStaleOnBusFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	bus, mr := testutil.SetupTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := directory.NewCache(userstore.New(db), zap.NewNop())
	sync := feedsync.NewFeedSynchronizer(poststore.New(db), bus, dir, zap.NewNop())

	ch, err := sync.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	nextFeedSnapshot(t, ch) // initial

	mr.Close()

	snap, open := nextFeedSnapshot(t, ch)
	if !open {
		t.Fatal("stream closed without a stale snapshot")
	}
	if !snap.Stale {
		t.Fatalf("snapshot after bus failure = %+v, want Stale", snap)
	}
	if !errors.Is(snap.Err, feedsync.ErrStaleSubscription) {
		t.Errorf("stale snapshot error = %v, want ErrStaleSubscription", snap.Err)
	}

	if _, open := nextFeedSnapshot(t, ch); open {
		t.Error("stream must close after the stale snapshot")
	}
}

func TestFeedTeardownOnCancel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	bus, _ := testutil.SetupTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())

	dir := directory.NewCache(userstore.New(db), zap.NewNop())
	sync := feedsync.NewFeedSynchronizer(poststore.New(db), bus, dir, zap.NewNop())

	ch, err := sync.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	nextFeedSnapshot(t, ch) // initial

	cancel()

	deadline := time.After(snapshotWait)
	for {
		select {
		case snap, open := <-ch:
			if !open {
				return
			}
			if snap.Stale {
				t.Error("cancel is a deliberate teardown, not a stale state")
			}
		case <-deadline:
			t.Fatal("stream did not close after cancel")
		}
	}
}
