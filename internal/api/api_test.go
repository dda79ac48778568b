package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/inventory"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/store"
	"github.com/erazemk/stockroom/internal/tracker"
)

const testJWTSecret = "test-secret"

func newTestRouter(t *testing.T, loginRate string) http.Handler {
	t.Helper()
	dir := t.TempDir()
	schema := model.FullSchema()
	st := store.NewCSVFile(filepath.Join(dir, "inventory.csv"), filepath.Join(dir, "restock_log.csv"), schema)

	gate, err := auth.NewGate(auth.GateConfig{
		Password:        "password",
		ManagerPassword: "manager",
		ViewerPassword:  "viewer",
		RoleGating:      true,
	})
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}

	router, err := NewRouter(Config{
		Tracker:      tracker.New(st, schema),
		Gate:         gate,
		Revocations:  auth.NewMemoryRevocations(),
		JWTSecret:    testJWTSecret,
		DefaultActor: "Admin",
		LoginRate:    loginRate,
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router
}

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	server := httptest.NewServer(newTestRouter(t, "100-M"))
	t.Cleanup(server.Close)
	return server, login(t, server, "password", "Ana")
}

func login(t *testing.T, server *httptest.Server, password, actor string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"password": password, "actor": actor})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp loginResponse
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return loginResp.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader io.Reader = http.NoBody
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func do(t *testing.T, method, url, token string, body any, wantStatus int, out any) {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", method, url, wantStatus, resp.StatusCode, data)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"password": "wrong"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginDefaultActor(t *testing.T) {
	server, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var lr loginResponse
	json.NewDecoder(resp.Body).Decode(&lr)
	if lr.Actor != "Admin" || lr.Role != model.RoleAdmin {
		t.Errorf("expected Admin/admin, got %s/%s", lr.Actor, lr.Role)
	}
}

func TestItemsAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	candidate := map[string]any{
		"category":      "Beverages",
		"item":          "Coffee Beans",
		"quantity":      5,
		"reorder_level": 10,
		"unit_price":    "12.50",
		"supplier":      "Roastery",
	}

	var created upsertResponse
	do(t, "POST", server.URL+"/api/items", token, candidate, http.StatusCreated, &created)
	if created.Outcome != "inserted" || created.Item.Item != "Coffee Beans" {
		t.Errorf("unexpected create response %+v", created)
	}

	candidate["item"] = "  coffee beans "
	candidate["quantity"] = 30
	var updated upsertResponse
	do(t, "POST", server.URL+"/api/items", token, candidate, http.StatusOK, &updated)
	if updated.Outcome != "updated" || updated.Item.Item != "Coffee Beans" || updated.Item.Quantity != 30 {
		t.Errorf("unexpected update response %+v", updated)
	}

	var items []model.Record
	do(t, "GET", server.URL+"/api/items?q=coffee", token, nil, http.StatusOK, &items)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	var rec model.Record
	do(t, "PATCH", server.URL+"/api/items/COFFEE%20BEANS", token, map[string]any{"quantity": 2}, http.StatusOK, &rec)
	if rec.Quantity != 2 || rec.ReorderLevel != 10 {
		t.Errorf("unexpected patched record %+v", rec)
	}

	do(t, "GET", server.URL+"/api/items/Coffee%20Beans", token, nil, http.StatusOK, &rec)
	if rec.Supplier != "Roastery" {
		t.Errorf("unexpected record %+v", rec)
	}

	var log []model.RestockEntry
	do(t, "GET", server.URL+"/api/restock-log", token, nil, http.StatusOK, &log)
	if len(log) != 3 || log[2].Quantity != 2 || log[2].User != "Ana" {
		t.Errorf("unexpected restock log %+v", log)
	}

	var removed map[string]int
	do(t, "DELETE", server.URL+"/api/items/coffee%20beans", token, nil, http.StatusOK, &removed)
	if removed["removed"] != 1 {
		t.Errorf("expected 1 removed, got %v", removed)
	}
	do(t, "DELETE", server.URL+"/api/items/coffee%20beans", token, nil, http.StatusOK, &removed)
	if removed["removed"] != 0 {
		t.Errorf("expected no-op delete, got %v", removed)
	}

	do(t, "GET", server.URL+"/api/items/Coffee%20Beans", token, nil, http.StatusNotFound, nil)
}

func TestItemsValidation(t *testing.T) {
	server, token := setupTestServer(t)

	do(t, "POST", server.URL+"/api/items", token, map[string]any{"item": "   ", "quantity": 1}, http.StatusBadRequest, nil)
	do(t, "POST", server.URL+"/api/items", token, map[string]any{"item": "Milk", "quantity": -1}, http.StatusBadRequest, nil)
	do(t, "PATCH", server.URL+"/api/items/Ghost", token, map[string]any{"quantity": 1}, http.StatusNotFound, nil)

	var items []model.Record
	do(t, "GET", server.URL+"/api/items", token, nil, http.StatusOK, &items)
	if len(items) != 0 {
		t.Errorf("expected nothing written, got %d items", len(items))
	}
}

func TestReports(t *testing.T) {
	server, token := setupTestServer(t)

	do(t, "POST", server.URL+"/api/items", token, map[string]any{"category": "Beverages", "item": "Tea", "quantity": 1, "reorder_level": 3, "unit_price": 2}, http.StatusCreated, nil)
	do(t, "POST", server.URL+"/api/items", token, map[string]any{"category": "Dairy", "item": "Milk", "quantity": 20, "reorder_level": 3, "unit_price": "1.50"}, http.StatusCreated, nil)

	var low []model.Record
	do(t, "GET", server.URL+"/api/low-stock", token, nil, http.StatusOK, &low)
	if len(low) != 1 || low[0].Item != "Tea" {
		t.Errorf("unexpected low stock %+v", low)
	}

	var sum summaryResponse
	do(t, "GET", server.URL+"/api/summary", token, nil, http.StatusOK, &sum)
	if sum.TotalItems != 2 || !sum.TotalValue.Equal(decimal.NewFromInt(32)) || sum.LowStockCount != 1 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if len(sum.Categories) != 2 {
		t.Errorf("expected 2 categories, got %v", sum.Categories)
	}

	var alert alertResponse
	do(t, "GET", server.URL+"/api/alert", token, nil, http.StatusOK, &alert)
	if alert.Message != "Low Stock Alert\nTea - Qty: 1 (Reorder at 3)" {
		t.Errorf("unexpected alert %q", alert.Message)
	}
	if !strings.HasPrefix(alert.Link, "https://wa.me/?text=") {
		t.Errorf("unexpected link %q", alert.Link)
	}

	req, _ := authRequest("GET", server.URL+"/api/export.csv?scope=low", token, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.Header.Get("Content-Type") != "text/csv; charset=utf-8" {
		t.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if want := "Category,Item,Quantity,Reorder_Level,Supplier\nBeverages,Tea,1,3,\n"; string(data) != want {
		t.Errorf("unexpected export %q", data)
	}

	do(t, "GET", server.URL+"/api/export.csv?scope=weekly", token, nil, http.StatusBadRequest, nil)
}

func TestUnauthenticatedAccess(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "100-M"))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/api/items")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	server, _ := setupTestServer(t)
	viewerToken := login(t, server, "viewer", "Bob")
	managerToken := login(t, server, "manager", "Cid")

	// Viewers can read but not write.
	do(t, "GET", server.URL+"/api/items", viewerToken, nil, http.StatusOK, nil)
	do(t, "POST", server.URL+"/api/items", viewerToken, map[string]any{"item": "Tea", "quantity": 1}, http.StatusForbidden, nil)
	do(t, "DELETE", server.URL+"/api/items/Tea", viewerToken, nil, http.StatusForbidden, nil)

	do(t, "POST", server.URL+"/api/items", managerToken, map[string]any{"item": "Tea", "quantity": 1}, http.StatusCreated, nil)

	// A token signed with another secret is rejected.
	forged, _ := auth.GenerateToken("other-secret", "Eve", model.RoleAdmin)
	do(t, "GET", server.URL+"/api/items", forged, nil, http.StatusUnauthorized, nil)
}

func TestLogoutRevokesToken(t *testing.T) {
	server, token := setupTestServer(t)

	do(t, "POST", server.URL+"/api/auth/logout", token, nil, http.StatusOK, nil)
	do(t, "GET", server.URL+"/api/items", token, nil, http.StatusUnauthorized, nil)
}

func TestLoginRateLimit(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, "2-M"))
	t.Cleanup(server.Close)

	body, _ := json.Marshal(map[string]string{"password": "wrong"})
	var last int
	for range 3 {
		resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		last = resp.StatusCode
		resp.Body.Close()
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429 after limit, got %d", last)
	}
}

func TestNewRouterBadRate(t *testing.T) {
	_, err := NewRouter(Config{LoginRate: "often"})
	if err == nil {
		t.Error("expected error for malformed rate")
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&inventory.ValidationError{Field: "item", Message: "name is required"}, http.StatusBadRequest},
		{&inventory.NotFoundError{Item: "Tea"}, http.StatusNotFound},
		{&auth.AuthError{Reason: "incorrect password"}, http.StatusUnauthorized},
		{&store.StoreError{Op: "save inventory", Err: errors.New("disk full")}, http.StatusInternalServerError},
		{&store.StoreError{Op: "load inventory", Err: errors.New("503"), Remote: true}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		got, _ := ErrorStatus(tt.err)
		if got != tt.want {
			t.Errorf("ErrorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestErrorStatusMessages(t *testing.T) {
	cause := &store.StoreError{Op: "save restock log", Err: errors.New("disk full")}

	_, msg := ErrorStatus(fmt.Errorf("saving inventory: %w", &store.StoreError{Op: "save inventory", Err: errors.New("read-only file system")}))
	if !strings.Contains(msg, "read-only file system") || strings.Contains(msg, "inventory saved") {
		t.Errorf("unexpected message for a failed save: %q", msg)
	}

	status, msg := ErrorStatus(&tracker.LogError{Item: "Tea", Err: cause})
	if status != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", status)
	}
	if !strings.Contains(msg, "inventory saved, restock log not written") || !strings.Contains(msg, "disk full") {
		t.Errorf("unexpected message for a failed log write: %q", msg)
	}
}

func TestLoggingMiddlewareSetsRequestID(t *testing.T) {
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("expected 418, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("expected request ID to be kept, got %q", rec.Header().Get("X-Request-ID"))
	}
}
