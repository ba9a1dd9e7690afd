package logout

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/clubboard/clubboard/internal/app/system/auth"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, SessionMgr: sessionMgr}
}

// ServeLogout handles POST /auth/logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		// The deletion cookie was still written; nothing actionable left.
		h.Log.Warn("logout: sign out", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
