// internal/app/store/users/userstore.go
package users

import (
	"context"
	"strings"
	"time"

	"github.com/clubboard/clubboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages the users collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new user Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the unique email index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_users_email"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new user. Missing roles default to member, matching the
// session-role fallback when a profile has no role stored.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Role == "" {
		u.Role = models.RoleMember
	}
	u.Email = normalizeEmail(u.Email)
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByID fetches a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&u)
	return u, err
}

// UpsertGoogleUser finds or creates the account for a Google sign-in.
// First-time sign-ins are created as members; existing accounts keep their
// stored role and get their display name refreshed.
func (s *Store) UpsertGoogleUser(ctx context.Context, email, fullName string) (models.User, error) {
	email = normalizeEmail(email)
	now := time.Now().UTC()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	update := bson.M{
		"$set": bson.M{
			"full_name":   fullName,
			"auth_method": models.AuthMethodGoogle,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"email":      email,
			"role":       models.RoleMember,
			"created_at": now,
		},
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&u)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
