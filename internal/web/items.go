package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockroom/internal/inventory"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/store"
	"github.com/erazemk/stockroom/internal/tracker"
)

// itemForm keeps the submitted values so a rejected form can be shown again.
type itemForm struct {
	Category     string
	Item         string
	Quantity     string
	ReorderLevel string
	UnitPrice    string
	Supplier     string
}

func readItemForm(r *http.Request) itemForm {
	return itemForm{
		Category:     strings.TrimSpace(r.FormValue("category")),
		Item:         strings.TrimSpace(r.FormValue("item")),
		Quantity:     strings.TrimSpace(r.FormValue("quantity")),
		ReorderLevel: strings.TrimSpace(r.FormValue("reorder_level")),
		UnitPrice:    strings.TrimSpace(r.FormValue("unit_price")),
		Supplier:     strings.TrimSpace(r.FormValue("supplier")),
	}
}

func (f itemForm) record() (model.Record, error) {
	qty, err := parseCount("quantity", f.Quantity)
	if err != nil {
		return model.Record{}, err
	}
	reorder, err := parseCount("reorder_level", f.ReorderLevel)
	if err != nil {
		return model.Record{}, err
	}
	price, err := parsePrice(f.UnitPrice)
	if err != nil {
		return model.Record{}, err
	}
	return model.Record{
		Category:     f.Category,
		Item:         f.Item,
		Quantity:     qty,
		ReorderLevel: reorder,
		UnitPrice:    price,
		Supplier:     f.Supplier,
	}, nil
}

func parseCount(field, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &inventory.ValidationError{Field: field, Message: "must be a whole number"}
	}
	return n, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimPrefix(s, "£")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &inventory.ValidationError{Field: "unit_price", Message: "must be a number"}
	}
	return d, nil
}

func canWrite(r *http.Request) bool {
	claims := GetWebClaims(r.Context())
	return claims != nil && model.RoleAtLeast(claims.Role, model.RoleManager)
}

// ItemUpsertSubmit handles POST /items. It adds a new item or overwrites
// the item with the same name.
func (s *Server) ItemUpsertSubmit(w http.ResponseWriter, r *http.Request) {
	if !canWrite(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	claims := GetWebClaims(r.Context())

	form := readItemForm(r)
	candidate, err := form.record()
	if err == nil {
		_, _, err = s.Tracker.Upsert(r.Context(), candidate, claims.Actor)
	}
	if err != nil {
		status, msg := formError(err)
		slog.Warn("item not saved", "actor", claims.Actor, "item", form.Item, "error", err)
		s.renderDashboard(w, r, status, form, msg)
		return
	}

	redirectWithMessage(w, r, "/", fmt.Sprintf("Saved %s.", candidate.Item))
}

type itemPageData struct {
	PageData
	Item model.Record
}

// ItemPage handles GET /item?name=. It shows one item with its edit and
// delete forms.
func (s *Server) ItemPage(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	rec, err := s.Tracker.Get(r.Context(), name)
	if err != nil {
		var nf *inventory.NotFoundError
		if errors.As(err, &nf) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to get item", "error", err)
		http.Error(w, "could not load inventory", http.StatusBadGateway)
		return
	}

	data := itemPageData{PageData: s.page(r, rec.Item), Item: rec}
	s.Templates.Render(w, http.StatusOK, "item.html", &data)
}

// ItemUpdateSubmit handles POST /item. Only the edit form's fields change.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	if !canWrite(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	claims := GetWebClaims(r.Context())
	name := r.FormValue("name")

	p, err := readPatch(r)
	if err == nil {
		_, err = s.Tracker.SetFields(r.Context(), name, p, claims.Actor)
	}
	if err != nil {
		status, msg := formError(err)
		if status == http.StatusNotFound {
			http.Error(w, msg, status)
			return
		}
		rec, getErr := s.Tracker.Get(r.Context(), name)
		if getErr != nil {
			http.Error(w, msg, status)
			return
		}
		data := itemPageData{PageData: s.page(r, rec.Item), Item: rec}
		data.Error = msg
		s.Templates.Render(w, status, "item.html", &data)
		return
	}

	redirectWithMessage(w, r, itemURL(name), fmt.Sprintf("Updated %s.", name))
}

func readPatch(r *http.Request) (inventory.Patch, error) {
	var p inventory.Patch
	if v, ok := formValue(r, "quantity"); ok && v != "" {
		n, err := parseCount("quantity", v)
		if err != nil {
			return p, err
		}
		p.Quantity = &n
	}
	if v, ok := formValue(r, "reorder_level"); ok && v != "" {
		n, err := parseCount("reorder_level", v)
		if err != nil {
			return p, err
		}
		p.ReorderLevel = &n
	}
	if v, ok := formValue(r, "unit_price"); ok && v != "" {
		d, err := parsePrice(v)
		if err != nil {
			return p, err
		}
		p.UnitPrice = &d
	}
	if v, ok := formValue(r, "supplier"); ok {
		p.Supplier = &v
	}
	return p, nil
}

// formValue reports whether the field was submitted at all.
func formValue(r *http.Request, key string) (string, bool) {
	if err := r.ParseForm(); err != nil {
		return "", false
	}
	vs, ok := r.PostForm[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return strings.TrimSpace(vs[0]), true
}

// ItemDeleteSubmit handles POST /item/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	if !canWrite(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	claims := GetWebClaims(r.Context())
	name := r.FormValue("name")

	removed, err := s.Tracker.Delete(r.Context(), name, claims.Actor)
	if err != nil {
		slog.Error("failed to delete item", "item", name, "error", err)
		status, msg := formError(err)
		http.Error(w, msg, status)
		return
	}

	msg := fmt.Sprintf("Deleted item: %s.", name)
	if removed == 0 {
		msg = fmt.Sprintf("%s was already gone.", name)
	}
	redirectWithMessage(w, r, "/", msg)
}

// formError maps a tracker error to a status and a message for the page.
func formError(err error) (int, string) {
	var verr *inventory.ValidationError
	var nf *inventory.NotFoundError
	var lerr *tracker.LogError
	var serr *store.StoreError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.As(err, &nf):
		return http.StatusNotFound, nf.Error()
	case errors.As(err, &lerr):
		return http.StatusInternalServerError, "The change was saved, but the restock log could not be written: " + lerr.Err.Error()
	case errors.As(err, &serr):
		if serr.Remote {
			return http.StatusBadGateway, "The change was not saved: " + serr.Error()
		}
		return http.StatusInternalServerError, "The change was not saved: " + serr.Error()
	default:
		return http.StatusInternalServerError, "The change was not saved. Try again later."
	}
}

// itemURL links to the page of one item.
func itemURL(name string) string {
	return "/item?" + url.Values{"name": {name}}.Encode()
}
