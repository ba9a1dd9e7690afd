package board

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/clubboard/clubboard/internal/app/gateway"
	"github.com/clubboard/clubboard/internal/app/system/authz"
	"github.com/clubboard/clubboard/internal/app/system/search"
)

// principal extracts the acting identity from the request session. Routes
// are mounted behind RequireSignedIn, so a missing user here is a wiring
// bug, not a user error.
func (h *Handler) principal(r *http.Request) (gateway.Principal, string, bool) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		return gateway.Principal{}, "", false
	}
	return gateway.Principal{ID: userID, Role: role}, role, true
}

func (h *Handler) postID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// confirmParam turns the ?confirm=true query flag into the gateway's
// confirmation hook. Absent or false means the destructive call aborts
// before touching the store.
func confirmParam(r *http.Request) gateway.ConfirmFunc {
	if r.URL.Query().Get("confirm") != "true" {
		return nil
	}
	return func(context.Context) bool { return true }
}

// ListPosts handles GET /api/board/posts. The optional q parameter filters
// by case-insensitive substring over title and content; filtering never
// reorders, it only hides rows.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	_, role, ok := h.principal(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "unauthenticated", Message: "Sign in required."})
		return
	}

	posts, err := h.Posts.List(r.Context())
	if err != nil {
		h.Log.Error("list posts failed", zap.Error(err))
		h.writeGatewayError(w, r, gateway.ErrStoreUnavailable)
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		filtered := posts[:0]
		for _, p := range posts {
			if search.MatchPost(q, p.Title, p.Content) {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}

	h.writeJSON(w, http.StatusOK, h.composeFeedView(r.Context(), role, posts))
}

// GetPost handles GET /api/board/posts/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	_, role, ok := h.principal(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "unauthenticated", Message: "Sign in required."})
		return
	}

	id, ok := h.postID(r)
	if !ok {
		h.writeGatewayError(w, r, gateway.ErrNotFound)
		return
	}

	post, err := h.Posts.GetByID(r.Context(), id)
	if err != nil {
		h.writeGatewayError(w, r, readErr(err))
		return
	}

	h.writeJSON(w, http.StatusOK, h.composePostView(r.Context(), role, post))
}

type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreatePost handles POST /api/board/posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	actor, role, ok := h.principal(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "unauthenticated", Message: "Sign in required."})
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeGatewayError(w, r, gateway.ErrInvalidInput)
		return
	}

	post, err := h.Gateway.CreatePost(r.Context(), actor, req.Title, req.Content)
	if err != nil {
		h.writeGatewayError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, h.composePostView(r.Context(), role, post))
}

// TogglePin handles POST /api/board/posts/{id}/pin. The new state is the
// inverse of the stored state at call time, not of whatever the client last
// rendered.
func (h *Handler) TogglePin(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := h.principal(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "unauthenticated", Message: "Sign in required."})
		return
	}

	id, ok := h.postID(r)
	if !ok {
		h.writeGatewayError(w, r, gateway.ErrNotFound)
		return
	}

	post, err := h.Posts.GetByID(r.Context(), id)
	if err != nil {
		h.writeGatewayError(w, r, readErr(err))
		return
	}

	if err := h.Gateway.TogglePin(r.Context(), actor, id, post.IsPinned); err != nil {
		h.writeGatewayError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"is_pinned": !post.IsPinned})
}

// DeletePost handles DELETE /api/board/posts/{id}?confirm=true.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := h.principal(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "unauthenticated", Message: "Sign in required."})
		return
	}

	id, ok := h.postID(r)
	if !ok {
		h.writeGatewayError(w, r, gateway.ErrNotFound)
		return
	}

	if err := h.Gateway.DeletePost(r.Context(), actor, id, confirmParam(r)); err != nil {
		h.writeGatewayError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
