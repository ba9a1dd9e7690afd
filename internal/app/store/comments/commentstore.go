// internal/app/store/comments/commentstore.go
package comments

import (
	"context"
	"time"

	"github.com/clubboard/clubboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ThreadSort orders a post's comments oldest first, with the document id as
// a deterministic tie-break.
var ThreadSort = bson.D{
	{Key: "created_at", Value: 1},
	{Key: "_id", Value: 1},
}

// CreateInput holds the caller-supplied fields for a new comment.
type CreateInput struct {
	PostID    primitive.ObjectID
	Text      string
	CreatedBy primitive.ObjectID
}

// Store manages the comments collection. Comments live in their own
// collection keyed by post_id rather than embedded in the post document,
// so a busy thread never grows the post itself.
type Store struct {
	c *mongo.Collection
}

// New creates a new comment Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("comments")}
}

// Collection exposes the underlying collection for transactional callers.
func (s *Store) Collection() *mongo.Collection {
	return s.c
}

// EnsureIndexes creates the index backing thread listing.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_comments_thread"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new comment with a server-assigned timestamp.
func (s *Store) Create(ctx context.Context, in CreateInput) (models.Comment, error) {
	cm := models.Comment{
		ID:        primitive.NewObjectID(),
		PostID:    in.PostID,
		Text:      in.Text,
		CreatedBy: in.CreatedBy,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, cm); err != nil {
		return models.Comment{}, err
	}
	return cm, nil
}

// ListByPost returns a post's comments oldest first.
func (s *Store) ListByPost(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error) {
	opts := options.Find().SetSort(ThreadSort)
	cur, err := s.c.Find(ctx, bson.M{"post_id": postID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	comments := []models.Comment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// GetByID fetches a single comment.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Comment, error) {
	var cm models.Comment
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&cm)
	return cm, err
}

// Delete removes one comment.
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

// DeleteByPost removes every comment under a post. Used by the cascade
// delete inside the gateway's transaction.
func (s *Store) DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"post_id": postID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByPost returns the number of comments under a post.
func (s *Store) CountByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"post_id": postID})
}
