package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/clubboard/clubboard/internal/app/signal"
	commentstore "github.com/clubboard/clubboard/internal/app/store/comments"
	poststore "github.com/clubboard/clubboard/internal/app/store/posts"
	"github.com/clubboard/clubboard/internal/domain/models"
	"github.com/clubboard/clubboard/internal/testutil"
)

type gatewayEnv struct {
	gw       *Gateway
	bus      *signal.Bus
	posts    *poststore.Store
	comments *commentstore.Store
	fx       *testutil.Fixtures
}

func setupGateway(t *testing.T) gatewayEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	bus, _ := testutil.SetupTestBus(t)

	posts := poststore.New(db)
	comments := commentstore.New(db)

	return gatewayEnv{
		gw:       New(db.Client(), posts, comments, bus, zap.NewNop()),
		bus:      bus,
		posts:    posts,
		comments: comments,
		fx:       testutil.NewFixtures(t, db),
	}
}

func admin() Principal {
	return Principal{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
}

func member() Principal {
	return Principal{ID: primitive.NewObjectID(), Role: models.RoleMember}
}

func confirmYes(context.Context) bool { return true }

func confirmNo(context.Context) bool { return false }

func TestCreatePostMemberRejected(t *testing.T) {
	env := setupGateway(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := env.gw.CreatePost(ctx, member(), "Practice time", "moved to 7pm")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("CreatePost as member = %v, want ErrUnauthorized", err)
	}

	n, err := env.posts.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("post count after rejected create = %d, want 0", n)
	}
}

func TestCreatePostWhitespaceTitleRejected(t *testing.T) {
	env := setupGateway(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := env.gw.CreatePost(ctx, admin(), "   \t ", "some content")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("CreatePost with whitespace title = %v, want ErrInvalidInput", err)
	}

	n, err := env.posts.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("post count after rejected create = %d, want 0", n)
	}
}

func TestCreatePostTrimsAndPublishes(t *testing.T) {
	env := setupGateway(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sub, err := env.bus.Subscribe(ctx, signal.ChannelPosts)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	post, err := env.gw.CreatePost(ctx, admin(), "  Practice moved  ", "<b>Friday</b> 7pm")
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	if post.Title != "Practice moved" {
		t.Errorf("title = %q, want trimmed %q", post.Title, "Practice moved")
	}
	if post.Content != "Friday 7pm" {
		t.Errorf("content = %q, want sanitized %q", post.Content, "Friday 7pm")
	}
	if post.IsPinned {
		t.Error("new post must start unpinned")
	}
	if post.CreatedAt.IsZero() {
		t.Error("CreatedAt must be server-assigned")
	}

	select {
	case ev := <-sub.C:
		if ev.Kind != signal.KindPostCreated {
			t.Errorf("event kind = %q, want %q", ev.Kind, signal.KindPostCreated)
		}
		if ev.PostID != post.ID.Hex() {
			t.Errorf("event post id = %q, want %q", ev.PostID, post.ID.Hex())
		}
	case <-time.After(2 * time.Second):
		t.Error("no change signal published for the new post")
	}
}

func TestDeletePostRequiresConfirmation(t *testing.T) {
	env := setupGateway(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := primitive.NewObjectID()
	post := env.fx.CreatePost(ctx, "Keep me", author, time.Now(), false)

	err := env.gw.DeletePost(ctx, admin(), post.ID, nil)
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("DeletePost without confirm = %v, want ErrNotConfirmed", err)
	}

	err = env.gw.DeletePost(ctx, admin(), post.ID, confirmNo)
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("DeletePost with declined confirm = %v, want ErrNotConfirmed", err)
	}

	if _, err := env.posts.GetByID(ctx, post.ID); err != nil {
		t.Errorf("post should survive an unconfirmed delete: %v", err)
	}
}

func TestDeletePostCascadesComments(t *testing.T) {
	env := setupGateway(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := primitive.NewObjectID()
	post := env.fx.CreatePost(ctx, "Doomed", author, time.Now(), false)
	env.fx.CreateComment(ctx, post.ID, author, "first", time.Now())
	env.fx.CreateComment(ctx, post.ID, author, "second", time.Now())

	if err := env.gw.DeletePost(ctx, admin(), post.ID, confirmYes); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}

	if _, err := env.posts.GetByID(ctx, post.ID); err == nil {
		t.Error("post still present after confirmed delete")
	}

	n, err := env.comments.CountByPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("CountByPost: %v", err)
	}
	if n != 0 {
		t.Errorf("comments after cascade delete = %d, want 0", n)
	}
}

func TestTogglePinMemberLeavesStoreUntouched(t *testing.T) {
	env := setupGateway(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	post := env.fx.CreatePost(ctx, "Pinned?", primitive.NewObjectID(), time.Now(), false)

	err := env.gw.TogglePin(ctx, member(), post.ID, post.IsPinned)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("TogglePin as member = %v, want ErrUnauthorized", err)
	}

	got, err := env.posts.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.IsPinned {
		t.Error("member toggle must not change pin state")
	}
}

func TestTogglePinRoundTrip(t *testing.T) {
	env := setupGateway(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	post := env.fx.CreatePost(ctx, "Important", primitive.NewObjectID(), time.Now(), false)
	actor := admin()

	if err := env.gw.TogglePin(ctx, actor, post.ID, false); err != nil {
		t.Fatalf("TogglePin up: %v", err)
	}
	got, _ := env.posts.GetByID(ctx, post.ID)
	if !got.IsPinned {
		t.Fatal("post should be pinned after first toggle")
	}

	if err := env.gw.TogglePin(ctx, actor, post.ID, true); err != nil {
		t.Fatalf("TogglePin down: %v", err)
	}
	got, _ = env.posts.GetByID(ctx, post.ID)
	if got.IsPinned {
		t.Error("post should be unpinned after second toggle")
	}
}

func TestTogglePinMissingPost(t *testing.T) {
	env := setupGateway(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := env.gw.TogglePin(ctx, admin(), primitive.NewObjectID(), false)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("TogglePin on missing post = %v, want ErrNotFound", err)
	}
}

func TestCreateCommentOnMissingPost(t *testing.T) {
	env := setupGateway(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := env.gw.CreateComment(ctx, member(), primitive.NewObjectID(), "hello")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("CreateComment on missing post = %v, want ErrNotFound", err)
	}
}

func TestCreateCommentEmptyText(t *testing.T) {
	env := setupGateway(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	post := env.fx.CreatePost(ctx, "Open thread", primitive.NewObjectID(), time.Now(), false)

	_, err := env.gw.CreateComment(ctx, member(), post.ID, "   ")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("CreateComment with blank text = %v, want ErrInvalidInput", err)
	}

	n, _ := env.comments.CountByPost(ctx, post.ID)
	if n != 0 {
		t.Errorf("comment count after rejected create = %d, want 0", n)
	}
}

func TestCreateCommentMemberAllowed(t *testing.T) {
	env := setupGateway(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	post := env.fx.CreatePost(ctx, "Open thread", primitive.NewObjectID(), time.Now(), false)
	actor := member()

	cm, err := env.gw.CreateComment(ctx, actor, post.ID, "  see you there  ")
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if cm.Text != "see you there" {
		t.Errorf("comment text = %q, want trimmed", cm.Text)
	}
	if cm.CreatedBy != actor.ID {
		t.Errorf("comment author = %s, want %s", cm.CreatedBy.Hex(), actor.ID.Hex())
	}
}

func TestDeleteCommentMemberRejected(t *testing.T) {
	env := setupGateway(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	post := env.fx.CreatePost(ctx, "Thread", primitive.NewObjectID(), time.Now(), false)
	cm := env.fx.CreateComment(ctx, post.ID, primitive.NewObjectID(), "mine", time.Now())

	err := env.gw.DeleteComment(ctx, member(), post.ID, cm.ID, confirmYes)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("DeleteComment as member = %v, want ErrUnauthorized", err)
	}

	n, _ := env.comments.CountByPost(ctx, post.ID)
	if n != 1 {
		t.Errorf("comment count = %d, want 1", n)
	}
}
