// Package login is password sign-in for accounts created with a local
// password. Google-backed accounts sign in through the authgoogle feature.
package login

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	userstore "github.com/clubboard/clubboard/internal/app/store/users"
	"github.com/clubboard/clubboard/internal/app/system/auth"
	"github.com/clubboard/clubboard/internal/app/system/timeouts"
	"github.com/clubboard/clubboard/internal/domain/models"
)

// dummyHash is compared against when the email has no account, so a lookup
// miss costs the same as a wrong password and timing does not reveal which
// emails exist.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(users *userstore.Store, sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Users: users, SessionMgr: sessionMgr, Log: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// ServeLogin handles POST /auth/login. All failures return the same 401
// body; the reason is only logged.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		h.fail(w, "empty credentials")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login lookup")
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		// Burn the same work on a miss as on a hit.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.fail(w, "unknown email")
		} else {
			h.Log.Error("login lookup failed", zap.Error(err))
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		}
		return
	}

	if user.AuthMethod != models.AuthMethodPassword || user.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		h.fail(w, "account has no password", zap.String("email", email))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.fail(w, "wrong password", zap.String("email", email))
		return
	}

	su := &auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
		Role:  user.Role,
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("login: sign in failed", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.Log.Info("user signed in", zap.String("user_id", su.ID), zap.String("role", su.Role))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{Name: su.Name, Role: su.Role})
}

func (h *Handler) fail(w http.ResponseWriter, reason string, fields ...zap.Field) {
	h.Log.Info("login rejected", append([]zap.Field{zap.String("reason", reason)}, fields...)...)
	http.Error(w, "Invalid email or password", http.StatusUnauthorized)
}
