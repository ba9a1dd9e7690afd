package board

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/clubboard/clubboard/internal/app/feedsync"
	"github.com/clubboard/clubboard/internal/app/gateway"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Session cookie auth already ran; same-origin policy is enforced
		// by the session, not the Origin header.
		return true
	},
}

// LiveFeed handles GET /api/board/live. Each frame is a complete FeedView
// for this viewer; the client replaces its whole list on every frame.
func (h *Handler) LiveFeed(w http.ResponseWriter, r *http.Request) {
	_, role, ok := h.principal(r)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "unauthenticated", Message: "Sign in required."})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snapshots, err := h.Feed.Subscribe(ctx)
	if err != nil {
		h.Log.Warn("live feed subscribe failed", zap.Error(err))
		h.writeGatewayError(w, r, gateway.ErrStoreUnavailable)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	connID := uuid.NewString()
	h.Log.Info("live feed opened", zap.String("conn_id", connID), zap.String("role", role))
	defer h.Log.Info("live feed closed", zap.String("conn_id", connID))

	go h.readUntilClosed(ws, cancel)

	for snap := range snapshots {
		view := h.composeFeedView(ctx, role, snap.Posts)
		view.Stale = snap.Stale
		if err := ws.WriteJSON(view); err != nil {
			return
		}
		if snap.Stale {
			// Terminal frame; the stream closes right after it and the
			// client is expected to reconnect.
			h.Log.Warn("live feed went stale", zap.String("conn_id", connID), zap.Error(snap.Err))
		}
	}
}

// LiveThread handles GET /api/board/posts/{id}/comments/live, the
// per-post counterpart of LiveFeed.
func (h *Handler) LiveThread(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	thread := feedsync.NewThreadSynchronizer(h.Comments, h.Bus, h.Dir, id, h.Log)
	snapshots, err := thread.Subscribe(ctx)
	if err != nil {
		h.Log.Warn("live thread subscribe failed", zap.String("post_id", id.Hex()), zap.Error(err))
		h.writeGatewayError(w, r, gateway.ErrStoreUnavailable)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	connID := uuid.NewString()
	h.Log.Info("live thread opened", zap.String("conn_id", connID), zap.String("post_id", id.Hex()))
	defer h.Log.Info("live thread closed", zap.String("conn_id", connID))

	go h.readUntilClosed(ws, cancel)

	for snap := range snapshots {
		view := h.composeThreadView(ctx, role, snap.Comments)
		view.Stale = snap.Stale
		if err := ws.WriteJSON(view); err != nil {
			return
		}
		if snap.Stale {
			h.Log.Warn("live thread went stale", zap.String("conn_id", connID), zap.Error(snap.Err))
		}
	}
}

// readUntilClosed drains client frames so we notice the peer going away.
// The streams are one-way; anything the client sends is discarded.
func (h *Handler) readUntilClosed(ws *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
