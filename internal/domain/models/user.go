// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold. A user's role is read once at sign-in and is
// fixed for the lifetime of the session; changing it requires a re-login.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}

// How an account authenticates.
const (
	AuthMethodPassword = "password"
	AuthMethodGoogle   = "google"
)

// User represents admins and members.
//
// PasswordHash is empty for accounts that only sign in through Google
// OAuth. Email is the login identifier and is unique.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	Email        string             `bson:"email" json:"email"`
	Role         string             `bson:"role" json:"role"` // admin | member
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	AuthMethod   string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // password | google

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
