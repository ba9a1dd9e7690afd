package board

import (
	"context"
	"time"

	"github.com/clubboard/clubboard/internal/app/directory"
	"github.com/clubboard/clubboard/internal/app/policy/postpolicy"
	"github.com/clubboard/clubboard/internal/domain/models"
)

// memberAlias is what non-admin viewers see in place of a comment author's
// real name. Admins see the real identity for moderation.
const memberAlias = "Member"

// PostView is one post as rendered for a specific viewer. IsPinned is only
// emitted when the policy says the pin state is worth showing.
type PostView struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Content   string             `json:"content"`
	CreatedAt time.Time          `json:"created_at"`
	IsPinned  bool               `json:"is_pinned,omitempty"`
	Author    directory.Identity `json:"author"`
	Actions   postpolicy.Actions `json:"actions"`
}

// CommentView is one comment as rendered for a specific viewer.
type CommentView struct {
	ID        string                    `json:"id"`
	Text      string                    `json:"text"`
	CreatedAt time.Time                 `json:"created_at"`
	Author    directory.Identity        `json:"author"`
	Actions   postpolicy.CommentActions `json:"actions"`
}

// FeedView is the payload for the feed endpoint and each live feed frame.
type FeedView struct {
	Posts      []PostView `json:"posts"`
	CanCompose bool       `json:"can_compose"`
	Stale      bool       `json:"stale,omitempty"`
}

// ThreadView is the payload for the comments endpoint and each live thread
// frame.
type ThreadView struct {
	Comments []CommentView `json:"comments"`
	Stale    bool          `json:"stale,omitempty"`
}

// composePostView renders one post for a viewer role. Post authors are
// always shown by name: announcements are official, not anonymous.
func (h *Handler) composePostView(ctx context.Context, role string, p models.Post) PostView {
	actions := postpolicy.Compose(role, p)
	v := PostView{
		ID:        p.ID.Hex(),
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		Author:    h.Dir.Resolve(ctx, p.CreatedBy),
		Actions:   actions,
	}
	if actions.ShowPinState {
		v.IsPinned = p.IsPinned
	}
	return v
}

// composeCommentView renders one comment for a viewer role. Members see
// other commenters anonymized; admins see real identities.
func (h *Handler) composeCommentView(ctx context.Context, role string, c models.Comment) CommentView {
	author := h.Dir.Resolve(ctx, c.CreatedBy)
	if role != models.RoleAdmin {
		author = directory.Identity{
			Name:    memberAlias,
			Initial: "M",
			Color:   directory.AvatarColor("M"),
		}
	}
	return CommentView{
		ID:        c.ID.Hex(),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		Author:    author,
		Actions:   postpolicy.ComposeComment(role),
	}
}

// composeFeedView renders an ordered post list for a viewer. The slice is
// never nil so the JSON is always an array.
func (h *Handler) composeFeedView(ctx context.Context, role string, posts []models.Post) FeedView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, h.composePostView(ctx, role, p))
	}
	return FeedView{Posts: views, CanCompose: postpolicy.CanCompose(role)}
}

// composeThreadView renders an ordered comment list for a viewer.
func (h *Handler) composeThreadView(ctx context.Context, role string, comments []models.Comment) ThreadView {
	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, h.composeCommentView(ctx, role, c))
	}
	return ThreadView{Comments: views}
}
