package board

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/clubboard/clubboard/internal/app/gateway"
)

// ListComments handles GET /api/board/posts/{id}/comments, oldest first.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.Posts.GetByID(r.Context(), id); err != nil {
		h.writeGatewayError(w, r, readErr(err))
		return
	}

	comments, err := h.Comments.ListByPost(r.Context(), id)
	if err != nil {
		h.Log.Error("list comments failed", zap.String("post_id", id.Hex()), zap.Error(err))
		h.writeGatewayError(w, r, gateway.ErrStoreUnavailable)
		return
	}

	h.writeJSON(w, http.StatusOK, h.composeThreadView(r.Context(), role, comments))
}

type createCommentRequest struct {
	Text string `json:"text"`
}

// CreateComment handles POST /api/board/posts/{id}/comments. Any signed-in
// role may comment.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	actor, role, ok := h.principal(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "unauthenticated", Message: "Sign in required."})
		return
	}

	id, ok := h.postID(r)
	if !ok {
		h.writeGatewayError(w, r, gateway.ErrNotFound)
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeGatewayError(w, r, gateway.ErrInvalidInput)
		return
	}

	comment, err := h.Gateway.CreateComment(r.Context(), actor, id, req.Text)
	if err != nil {
		h.writeGatewayError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, h.composeCommentView(r.Context(), role, comment))
}

// DeleteComment handles DELETE /api/board/posts/{id}/comments/{commentID}?confirm=true.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
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

	commentID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "commentID"))
	if err != nil {
		h.writeGatewayError(w, r, gateway.ErrNotFound)
		return
	}

	if err := h.Gateway.DeleteComment(r.Context(), actor, id, commentID, confirmParam(r)); err != nil {
		h.writeGatewayError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
