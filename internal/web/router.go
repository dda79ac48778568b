package web

import (
	"net/http"

	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/imaging"
	"github.com/erazemk/stockroom/internal/tracker"
	webembed "github.com/erazemk/stockroom/web"
)

// Config holds the dependencies of the page router.
type Config struct {
	Tracker      *tracker.Service
	Gate         *auth.Gate
	Revocations  auth.Revocations
	JWTSecret    string
	DefaultActor string
	ShopName     string
	Logo         *imaging.Logo

	// LoginLimit wraps the login form handler. Nil means no limit.
	LoginLimit func(http.Handler) http.Handler
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(cfg Config) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Tracker:      cfg.Tracker,
		Gate:         cfg.Gate,
		Revocations:  cfg.Revocations,
		Templates:    templates,
		JWTSecret:    cfg.JWTSecret,
		DefaultActor: cfg.DefaultActor,
		ShopName:     cfg.ShopName,
		Logo:         cfg.Logo,
	}

	loginLimit := cfg.LoginLimit
	if loginLimit == nil {
		loginLimit = func(h http.Handler) http.Handler { return h }
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(cfg.JWTSecret, cfg.Revocations)

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	mux.HandleFunc("GET /logo", s.LogoGet)

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.Handle("POST /login", loginLimit(http.HandlerFunc(s.LoginSubmit)))
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", cookieAuth(http.HandlerFunc(s.Dashboard)))
	mux.Handle("POST /items", cookieAuth(http.HandlerFunc(s.ItemUpsertSubmit)))
	mux.Handle("GET /item", cookieAuth(http.HandlerFunc(s.ItemPage)))
	mux.Handle("POST /item", cookieAuth(http.HandlerFunc(s.ItemUpdateSubmit)))
	mux.Handle("POST /item/delete", cookieAuth(http.HandlerFunc(s.ItemDeleteSubmit)))
	mux.Handle("GET /log", cookieAuth(http.HandlerFunc(s.RestockLogPage)))
	mux.Handle("GET /export.csv", cookieAuth(http.HandlerFunc(s.ExportDownload)))

	return mux, nil
}
