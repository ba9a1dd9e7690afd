// internal/domain/models/post.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a single announcement on the board.
//
// CreatedBy and CreatedAt are immutable once the document is inserted;
// IsPinned is the only field an update may touch. The store assigns
// CreatedAt at write time so ordering never depends on client clocks.
type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	IsPinned  bool               `bson:"is_pinned" json:"is_pinned"`
}
