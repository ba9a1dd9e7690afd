package board

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/clubboard/clubboard/internal/app/gateway"
)

// errorResponse is the JSON error envelope. Code is a stable machine token;
// Message is for humans and may change.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error("write response failed", zap.Error(err))
	}
}

// readErr maps a pre-read failure onto the taxonomy the same way the
// gateway does: only a missing document is NotFound, everything else is the
// store being unavailable.
func readErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return gateway.ErrNotFound
	}
	return gateway.ErrStoreUnavailable
}

// writeGatewayError maps gateway outcomes onto HTTP. Every mutation failure
// funnels through here so the taxonomy stays consistent across endpoints.
func (h *Handler) writeGatewayError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var code, msg string

	switch {
	case errors.Is(err, gateway.ErrUnauthorized):
		status, code, msg = http.StatusForbidden, "unauthorized", "You do not have permission to do that."
	case errors.Is(err, gateway.ErrInvalidInput):
		status, code, msg = http.StatusBadRequest, "invalid_input", "A required field is empty or invalid."
	case errors.Is(err, gateway.ErrNotFound):
		status, code, msg = http.StatusNotFound, "not_found", "That item no longer exists."
	case errors.Is(err, gateway.ErrNotConfirmed):
		status, code, msg = http.StatusBadRequest, "not_confirmed", "This action must be confirmed."
	case errors.Is(err, gateway.ErrInFlight):
		status, code, msg = http.StatusConflict, "in_flight", "That action is already in progress."
	case errors.Is(err, gateway.ErrStoreUnavailable):
		status, code, msg = http.StatusServiceUnavailable, "store_unavailable", "The board is temporarily unavailable. Try again."
	default:
		h.Log.Error("unmapped gateway error", zap.Error(err), zap.String("path", r.URL.Path))
		status, code, msg = http.StatusInternalServerError, "internal", "Internal Server Error"
	}

	h.writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
