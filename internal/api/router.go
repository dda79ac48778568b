package api

import (
	"net/http"

	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/tracker"
)

// Config holds the dependencies of the API router.
type Config struct {
	Tracker      *tracker.Service
	Gate         *auth.Gate
	Revocations  auth.Revocations
	JWTSecret    string
	DefaultActor string
	LoginRate    string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(cfg Config) (http.Handler, error) {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{
		Gate:         cfg.Gate,
		Revocations:  cfg.Revocations,
		JWTSecret:    cfg.JWTSecret,
		DefaultActor: cfg.DefaultActor,
	}
	itemsHandler := &ItemsHandler{Tracker: cfg.Tracker}
	reportsHandler := &ReportsHandler{Tracker: cfg.Tracker}

	loginLimit, err := RateLimit(cfg.LoginRate)
	if err != nil {
		return nil, err
	}
	authMW := AuthMiddleware(cfg.JWTSecret, cfg.Revocations)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.Handle("POST /api/auth/login", loginLimit(http.HandlerFunc(authHandler.Login)))

	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Items: read (all roles), write (manager+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireManager(http.HandlerFunc(itemsHandler.Upsert))))
	mux.Handle("GET /api/items/{name}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PATCH /api/items/{name}", authMW(requireManager(http.HandlerFunc(itemsHandler.Patch))))
	mux.Handle("DELETE /api/items/{name}", authMW(requireManager(http.HandlerFunc(itemsHandler.Delete))))

	// Reports (all roles).
	mux.Handle("GET /api/low-stock", authMW(http.HandlerFunc(reportsHandler.LowStock)))
	mux.Handle("GET /api/summary", authMW(http.HandlerFunc(reportsHandler.Summary)))
	mux.Handle("GET /api/restock-log", authMW(http.HandlerFunc(reportsHandler.RestockLog)))
	mux.Handle("GET /api/export.csv", authMW(http.HandlerFunc(reportsHandler.Export)))
	mux.Handle("GET /api/alert", authMW(http.HandlerFunc(reportsHandler.Alert)))

	return mux, nil
}
