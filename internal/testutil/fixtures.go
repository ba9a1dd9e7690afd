package testutil

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clubboard/clubboard/internal/domain/models"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with the given name, email and role.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   name,
		Email:      email,
		Role:       role,
		AuthMethod: models.AuthMethodPassword,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin inserts an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleAdmin)
}

// CreatePost inserts a post with the given creation time. Tests use
// explicit times to pin down ordering.
func (f *Fixtures) CreatePost(ctx context.Context, title string, author primitive.ObjectID, createdAt time.Time, pinned bool) models.Post {
	f.t.Helper()

	p := models.Post{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Content:   "content of " + title,
		CreatedBy: author,
		CreatedAt: createdAt.UTC(),
		IsPinned:  pinned,
	}
	if _, err := f.db.Collection("posts").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test post: %v", err)
	}
	return p
}

// CreateComment inserts a comment on a post.
func (f *Fixtures) CreateComment(ctx context.Context, postID, author primitive.ObjectID, text string, createdAt time.Time) models.Comment {
	f.t.Helper()

	c := models.Comment{
		ID:        primitive.NewObjectID(),
		PostID:    postID,
		Text:      text,
		CreatedBy: author,
		CreatedAt: createdAt.UTC(),
	}
	if _, err := f.db.Collection("comments").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test comment: %v", err)
	}
	return c
}
