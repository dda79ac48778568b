package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/stockroom/internal/auth"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := s.page(r, "Log in")
	data.User = nil
	s.Templates.Render(w, http.StatusOK, "login.html", &data)
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	password := r.FormValue("password")
	actor := strings.TrimSpace(r.FormValue("actor"))
	if actor == "" {
		actor = s.DefaultActor
	}

	session := auth.NewSession(s.Gate)
	if err := session.Unlock(password, actor); err != nil {
		slog.Warn("login failed", "actor", actor, "remote", r.RemoteAddr)
		data := s.page(r, "Log in")
		data.User = nil
		data.Error = "Incorrect password."
		s.Templates.Render(w, http.StatusUnauthorized, "login.html", &data)
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, session.Actor(), session.Role())
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		data := s.page(r, "Log in")
		data.User = nil
		data.Error = "Login failed."
		s.Templates.Render(w, http.StatusInternalServerError, "login.html", &data)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(auth.TokenExpiry.Seconds()),
	})

	slog.Info("session unlocked", "actor", session.Actor(), "role", session.Role())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout. The cookie's token is revoked so a copy of
// it cannot be reused.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil {
			if err := s.Revocations.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
				slog.Error("failed to revoke token", "error", err)
			} else {
				slog.Info("session locked", "actor", claims.Actor)
			}
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
