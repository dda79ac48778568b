package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockroom/internal/inventory"
	"github.com/erazemk/stockroom/internal/report"
	"github.com/erazemk/stockroom/internal/tracker"
)

// ReportsHandler serves read-only views derived from the whole table.
type ReportsHandler struct {
	Tracker *tracker.Service
}

type summaryResponse struct {
	TotalItems         int             `json:"total_items"`
	TotalValue         decimal.Decimal `json:"total_value"`
	LowStockCount      int             `json:"low_stock_count"`
	NearThresholdCount int             `json:"near_threshold_count"`
	Categories         []string        `json:"categories"`
}

type alertResponse struct {
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}

// LowStock handles GET /api/low-stock.
func (h *ReportsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Tracker.Report(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, rep.LowStock)
}

// Summary handles GET /api/summary.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	table, err := h.Tracker.Table(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	rep := inventory.Analyze(table)
	cats := inventory.Categories(table)
	if cats == nil {
		cats = []string{}
	}
	jsonResponse(w, http.StatusOK, summaryResponse{
		TotalItems:         rep.TotalItems,
		TotalValue:         rep.TotalValue,
		LowStockCount:      len(rep.LowStock),
		NearThresholdCount: len(rep.NearThreshold),
		Categories:         cats,
	})
}

// RestockLog handles GET /api/restock-log.
func (h *ReportsHandler) RestockLog(w http.ResponseWriter, r *http.Request) {
	log, err := h.Tracker.RestockLog(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, log)
}

// Export handles GET /api/export.csv?scope=all|low.
func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	table, err := h.Tracker.Table(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	scope := r.URL.Query().Get("scope")
	var buf bytes.Buffer
	if err := report.Export(&buf, table, h.Tracker.Schema(), scope); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(scope)))
	w.Write(buf.Bytes())
}

// Alert handles GET /api/alert.
func (h *ReportsHandler) Alert(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Tracker.Report(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := report.AlertMessage(rep.LowStock)
	resp := alertResponse{Message: msg}
	if msg != "" {
		resp.Link = report.WhatsAppLink(msg)
	}
	jsonResponse(w, http.StatusOK, resp)
}
