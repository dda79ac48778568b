package web

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/erazemk/stockroom/internal/inventory"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/report"
)

// recentLogEntries is how many restock log entries the dashboard shows.
const recentLogEntries = 10

type dashboardData struct {
	PageData
	Query      string
	Category   string
	Categories []string
	Items      model.Table
	Report     inventory.Report
	AlertLink  string
	RecentLog  []model.RestockEntry
	Form       itemForm
}

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, http.StatusOK, itemForm{}, "")
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, status int, form itemForm, formErr string) {
	data := dashboardData{
		PageData: s.page(r, "Inventory"),
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
		Form:     form,
	}
	data.Error = formErr

	table, err := s.Tracker.Table(r.Context())
	if err != nil {
		slog.Error("failed to load inventory for dashboard", "error", err)
		data.Error = "Could not load the inventory. Try again later."
		s.Templates.Render(w, http.StatusBadGateway, "dashboard.html", &data)
		return
	}

	data.Items = inventory.Filter(table, data.Query, data.Category)
	data.Categories = inventory.Categories(table)
	data.Report = inventory.Analyze(table)
	if msg := report.AlertMessage(data.Report.LowStock); msg != "" {
		data.AlertLink = report.WhatsAppLink(msg)
	}

	log, err := s.Tracker.RestockLog(r.Context())
	if err != nil {
		slog.Error("failed to load restock log for dashboard", "error", err)
	}
	data.RecentLog = recentFirst(log, recentLogEntries)

	s.Templates.Render(w, status, "dashboard.html", &data)
}

// RestockLogPage handles GET /log.
func (s *Server) RestockLogPage(w http.ResponseWriter, r *http.Request) {
	data := struct {
		PageData
		Entries []model.RestockEntry
	}{PageData: s.page(r, "Restock log")}

	log, err := s.Tracker.RestockLog(r.Context())
	if err != nil {
		slog.Error("failed to load restock log", "error", err)
		data.Error = "Could not load the restock log."
		s.Templates.Render(w, http.StatusBadGateway, "restock_log.html", &data)
		return
	}
	data.Entries = recentFirst(log, len(log))
	s.Templates.Render(w, http.StatusOK, "restock_log.html", &data)
}

// ExportDownload handles GET /export.csv?scope=all|low.
func (s *Server) ExportDownload(w http.ResponseWriter, r *http.Request) {
	table, err := s.Tracker.Table(r.Context())
	if err != nil {
		slog.Error("failed to load inventory for export", "error", err)
		http.Error(w, "could not load inventory", http.StatusBadGateway)
		return
	}

	scope := r.URL.Query().Get("scope")
	if scope != report.ScopeLow {
		scope = report.ScopeAll
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+report.FileName(scope)+"\"")
	if err := report.Export(w, table, s.Tracker.Schema(), scope); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}

// LogoGet handles GET /logo.
func (s *Server) LogoGet(w http.ResponseWriter, r *http.Request) {
	if s.Logo == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", s.Logo.MIME)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeContent(w, r, "logo", s.Logo.ModTime, bytes.NewReader(s.Logo.Data))
}

// recentFirst returns up to n entries, newest first.
func recentFirst(log []model.RestockEntry, n int) []model.RestockEntry {
	n = min(n, len(log))
	out := make([]model.RestockEntry, 0, n)
	for i := len(log) - 1; i >= len(log)-n; i-- {
		out = append(out, log[i])
	}
	return out
}

func redirectWithMessage(w http.ResponseWriter, r *http.Request, target, msg string) {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	http.Redirect(w, r, target+sep+"msg="+url.QueryEscape(msg), http.StatusSeeOther)
}
