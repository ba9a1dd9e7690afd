// internal/app/store/posts/poststore.go
package posts

import (
	"context"
	"time"

	"github.com/clubboard/clubboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeedSort is the board ordering: pinned posts first, then newest first,
// with the document id as a deterministic tie-break. The store is the sole
// source of ordering truth; callers never re-sort.
var FeedSort = bson.D{
	{Key: "is_pinned", Value: -1},
	{Key: "created_at", Value: -1},
	{Key: "_id", Value: -1},
}

// CreateInput holds the caller-supplied fields for a new post. CreatedAt
// and IsPinned are assigned by the store.
type CreateInput struct {
	Title     string
	Content   string
	CreatedBy primitive.ObjectID
}

// Store manages the posts collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new post Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("posts")}
}

// Collection exposes the underlying collection for transactional callers.
func (s *Store) Collection() *mongo.Collection {
	return s.c
}

// EnsureIndexes creates the index backing the feed ordering.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_pinned", Value: -1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_posts_feed"),
		},
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}},
			Options: options.Index().SetName("idx_posts_author"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new post. CreatedAt is assigned here, at write time, so
// feed ordering never depends on the caller's clock. New posts are always
// unpinned.
func (s *Store) Create(ctx context.Context, in CreateInput) (models.Post, error) {
	p := models.Post{
		ID:        primitive.NewObjectID(),
		Title:     in.Title,
		Content:   in.Content,
		CreatedBy: in.CreatedBy,
		CreatedAt: time.Now().UTC(),
		IsPinned:  false,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

// List returns every post in feed order.
func (s *Store) List(ctx context.Context) ([]models.Post, error) {
	opts := options.Find().SetSort(FeedSort)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	posts := []models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetByID fetches a single post. Returns mongo.ErrNoDocuments when the post
// has vanished between view and mutation.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Post, error) {
	var p models.Post
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	return p, err
}

// SetPinned updates only the is_pinned flag. Title, content, author and
// timestamp are immutable and never part of the update document.
func (s *Store) SetPinned(ctx context.Context, id primitive.ObjectID, pinned bool) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_pinned": pinned}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a post document. Comment cleanup is the gateway's job.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Count returns the number of posts on the board.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
