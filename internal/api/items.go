package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockroom/internal/inventory"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/tracker"
)

// ItemsHandler handles inventory record endpoints.
type ItemsHandler struct {
	Tracker *tracker.Service
}

type upsertRequest struct {
	Category     string          `json:"category"`
	Item         string          `json:"item"`
	Quantity     int             `json:"quantity"`
	ReorderLevel int             `json:"reorder_level"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Supplier     string          `json:"supplier"`
}

type patchRequest struct {
	Quantity     *int             `json:"quantity"`
	ReorderLevel *int             `json:"reorder_level"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	Supplier     *string          `json:"supplier"`
}

type upsertResponse struct {
	Outcome string       `json:"outcome"`
	Item    model.Record `json:"item"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.Tracker.List(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Upsert handles POST /api/items. A new item answers 201, an existing one 200.
func (h *ItemsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	candidate := model.Record{
		Category:     req.Category,
		Item:         req.Item,
		Quantity:     req.Quantity,
		ReorderLevel: req.ReorderLevel,
		UnitPrice:    req.UnitPrice,
		Supplier:     req.Supplier,
	}

	table, outcome, err := h.Tracker.Upsert(r.Context(), candidate, actorOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	saved, _ := inventory.Find(table, req.Item)
	status := http.StatusOK
	if outcome == inventory.Inserted {
		status = http.StatusCreated
	}
	jsonResponse(w, status, upsertResponse{Outcome: outcome.String(), Item: saved})
}

// Get handles GET /api/items/{name}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Tracker.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, rec)
}

// Patch handles PATCH /api/items/{name}.
func (h *ItemsHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := inventory.Patch{
		Quantity:     req.Quantity,
		ReorderLevel: req.ReorderLevel,
		UnitPrice:    req.UnitPrice,
		Supplier:     req.Supplier,
	}
	rec, err := h.Tracker.SetFields(r.Context(), r.PathValue("name"), p, actorOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, rec)
}

// Delete handles DELETE /api/items/{name}. Deleting an unknown item is not
// an error.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Tracker.Delete(r.Context(), r.PathValue("name"), actorOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"removed": removed})
}

func actorOf(r *http.Request) string {
	if claims := GetClaims(r.Context()); claims != nil {
		return claims.Actor
	}
	return ""
}
