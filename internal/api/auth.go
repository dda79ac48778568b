package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/stockroom/internal/auth"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Gate         *auth.Gate
	Revocations  auth.Revocations
	JWTSecret    string
	DefaultActor string
}

type loginRequest struct {
	Password string `json:"password"`
	Actor    string `json:"actor"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Actor string `json:"actor"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		actor = h.DefaultActor
	}

	session := auth.NewSession(h.Gate)
	if err := session.Unlock(req.Password, actor); err != nil {
		slog.Warn("login failed", "actor", actor, "remote", r.RemoteAddr)
		writeError(w, r, err)
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, session.Actor(), session.Role())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("session unlocked", "actor", session.Actor(), "role", session.Role())
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, Role: session.Role(), Actor: session.Actor()})
}

// Logout handles POST /api/auth/logout. The token stays revoked until it
// would have expired.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.Revocations.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		slog.Error("failed to revoke token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	slog.Info("session locked", "actor", claims.Actor)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
