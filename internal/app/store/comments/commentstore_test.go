package comments_test

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	commentstore "github.com/clubboard/clubboard/internal/app/store/comments"
	"github.com/clubboard/clubboard/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := commentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	postID := primitive.NewObjectID()
	author := primitive.NewObjectID()

	cm, err := store.Create(ctx, commentstore.CreateInput{
		PostID:    postID,
		Text:      "we will be there",
		CreatedBy: author,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if cm.ID.IsZero() {
		t.Error("expected generated ID")
	}
	if cm.CreatedAt.IsZero() {
		t.Error("CreatedAt must be server-assigned")
	}
	if cm.PostID != postID {
		t.Errorf("PostID = %s, want %s", cm.PostID.Hex(), postID.Hex())
	}
}

func TestStore_ListByPost_AscendingAndScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := commentstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	postA := primitive.NewObjectID()
	postB := primitive.NewObjectID()
	author := primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)

	second := fx.CreateComment(ctx, postA, author, "second", base.Add(10*time.Minute))
	first := fx.CreateComment(ctx, postA, author, "first", base)
	fx.CreateComment(ctx, postB, author, "other thread", base.Add(5*time.Minute))

	comments, err := store.ListByPost(ctx, postA)
	if err != nil {
		t.Fatalf("ListByPost failed: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("ListByPost returned %d comments, want 2", len(comments))
	}
	if comments[0].ID != first.ID || comments[1].ID != second.ID {
		t.Errorf("thread not in ascending creation order: [%s, %s]", comments[0].Text, comments[1].Text)
	}
}

func TestStore_ListByPost_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := commentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	comments, err := store.ListByPost(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("ListByPost failed: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("ListByPost on empty thread returned %d comments", len(comments))
	}
}

func TestStore_Delete_Missing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := commentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Delete(ctx, primitive.NewObjectID())
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("Delete on missing comment = %v, want ErrNoDocuments", err)
	}
}

func TestStore_DeleteByPost(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := commentstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	postA := primitive.NewObjectID()
	postB := primitive.NewObjectID()
	author := primitive.NewObjectID()
	now := time.Now()

	fx.CreateComment(ctx, postA, author, "a1", now)
	fx.CreateComment(ctx, postA, author, "a2", now)
	fx.CreateComment(ctx, postB, author, "b1", now)

	removed, err := store.DeleteByPost(ctx, postA)
	if err != nil {
		t.Fatalf("DeleteByPost failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("DeleteByPost removed %d, want 2", removed)
	}

	nA, _ := store.CountByPost(ctx, postA)
	nB, _ := store.CountByPost(ctx, postB)
	if nA != 0 {
		t.Errorf("post A comments = %d, want 0", nA)
	}
	if nB != 1 {
		t.Errorf("post B comments = %d, want 1 (must be untouched)", nB)
	}
}
