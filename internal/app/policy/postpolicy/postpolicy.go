// Package postpolicy derives which board actions a viewer can take, purely
// from the viewer's role and the entity in hand. No store or network access;
// handlers compose these into view models instead of re-deriving rules.
//
// Pin visibility and pin enablement are deliberately different things: a
// pinned post shows its pin state to every role so state stays legible, but
// only an admin can click it. Hiding a control is UX polish, never the
// security boundary — the gateway re-checks every mutation regardless of
// what the view exposed.
package postpolicy

import "github.com/clubboard/clubboard/internal/domain/models"

// Actions is the action set for one post as seen by one viewer.
type Actions struct {
	CanPin       bool `json:"can_pin"`
	CanDelete    bool `json:"can_delete"`
	ShowPinState bool `json:"show_pin_state"`
}

// CommentActions is the action set for one comment as seen by one viewer.
type CommentActions struct {
	CanDelete bool `json:"can_delete"`
}

// Compose returns the actions a viewer with the given role has on a post.
func Compose(role string, post models.Post) Actions {
	admin := role == models.RoleAdmin
	return Actions{
		CanPin:    admin,
		CanDelete: admin,
		// Pin state is visible to everyone, but only meaningful to show
		// when the post is pinned or the viewer could change it.
		ShowPinState: post.IsPinned || admin,
	}
}

// ComposeComment returns the actions a viewer has on a comment.
func ComposeComment(role string) CommentActions {
	return CommentActions{CanDelete: role == models.RoleAdmin}
}

// CanCompose reports whether a viewer may create posts at all. Members
// never see a compose form, and the gateway enforces the same rule.
func CanCompose(role string) bool {
	return role == models.RoleAdmin
}
