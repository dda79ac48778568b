package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/imaging"
	"github.com/erazemk/stockroom/internal/inventory"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/report"
	"github.com/erazemk/stockroom/internal/tracker"
	webembed "github.com/erazemk/stockroom/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrator"
			case model.RoleManager:
				return "Manager"
			case model.RoleUser:
				return "Viewer"
			default:
				return role
			}
		},
		"level": func(r model.Record) string {
			return inventory.LevelOf(r).String()
		},
		"value": inventory.Value,
		"money": report.Money,
		"price": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"stamp": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(model.TimeLayout)
		},
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"dashboard.html",
		"item.html",
		"restock_log.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data and status code.
func (ts *Templates) Render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title    string
	ShopName string
	HasLogo  bool
	User     *auth.Claims
	Schema   model.Schema
	Error    string
	Success  string
}

// Server holds all dependencies for page handlers.
type Server struct {
	Tracker      *tracker.Service
	Gate         *auth.Gate
	Revocations  auth.Revocations
	Templates    *Templates
	JWTSecret    string
	DefaultActor string
	ShopName     string
	Logo         *imaging.Logo
}

func (s *Server) page(r *http.Request, title string) PageData {
	return PageData{
		Title:    title,
		ShopName: s.ShopName,
		HasLogo:  s.Logo != nil,
		User:     GetWebClaims(r.Context()),
		Schema:   s.Tracker.Schema(),
		Success:  r.URL.Query().Get("msg"),
	}
}
