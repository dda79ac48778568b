package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/erazemk/stockroom/internal/model"
)

// Worksheet names used by the sheet backend.
const (
	InventorySheet = "Inventory"
	RestockSheet   = "Restock_Log"
)

// Sheet talks to a remote spreadsheet-style row API:
//
//	GET {base}/sheets/{name}/rows  -> {"rows": [{"Item": "...", ...}, ...]}
//	PUT {base}/sheets/{name}/rows  <- {"columns": [...], "rows": [...]}
//
// A 404 on GET means the worksheet does not exist yet.
type Sheet struct {
	baseURL string
	token   string
	schema  model.Schema
	client  *http.Client
}

// NewSheet returns a store for the API at baseURL, authenticating with a
// bearer service token when token is non-empty.
func NewSheet(baseURL, token string, schema model.Schema) *Sheet {
	return &Sheet{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		schema:  schema,
		client:  &http.Client{},
	}
}

type sheetPayload struct {
	Columns []string            `json:"columns,omitempty"`
	Rows    []map[string]string `json:"rows"`
}

// Load fetches the inventory worksheet.
func (s *Sheet) Load(ctx context.Context) (model.Table, error) {
	rows, err := s.get(ctx, InventorySheet)
	if err != nil {
		return nil, remoteErr("load inventory", err)
	}

	table := model.Table{}
	for i, row := range rows {
		r, err := decodeRecord(mapCell(row))
		if err != nil {
			return nil, remoteErr("load inventory", fmt.Errorf("row %d: %w", i+1, err))
		}
		if r.Item == "" {
			continue
		}
		table = append(table, s.schema.Apply(r))
	}
	return table, nil
}

// Save replaces the inventory worksheet.
func (s *Sheet) Save(ctx context.Context, t model.Table) error {
	cols := s.schema.Columns()
	rows := make([]map[string]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, zipRow(cols, encodeRecord(r, cols)))
	}
	return remoteErr("save inventory", s.put(ctx, InventorySheet, cols, rows))
}

// LoadLog fetches the restock worksheet.
func (s *Sheet) LoadLog(ctx context.Context) ([]model.RestockEntry, error) {
	rows, err := s.get(ctx, RestockSheet)
	if err != nil {
		return nil, remoteErr("load restock log", err)
	}

	var log []model.RestockEntry
	for i, row := range rows {
		e, err := decodeEntry(mapCell(row))
		if err != nil {
			return nil, remoteErr("load restock log", fmt.Errorf("row %d: %w", i+1, err))
		}
		log = append(log, e)
	}
	return log, nil
}

// SaveLog replaces the restock worksheet.
func (s *Sheet) SaveLog(ctx context.Context, log []model.RestockEntry) error {
	rows := make([]map[string]string, 0, len(log))
	for _, e := range log {
		rows = append(rows, zipRow(model.RestockColumns, encodeEntry(e)))
	}
	return remoteErr("save restock log", s.put(ctx, RestockSheet, model.RestockColumns, rows))
}

// Close releases idle connections.
func (s *Sheet) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Sheet) rowsURL(sheet string) string {
	return s.baseURL + "/sheets/" + url.PathEscape(sheet) + "/rows"
}

func (s *Sheet) get(ctx context.Context, sheet string) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.rowsURL(sheet), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", sheet, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", sheet, err)
	}

	var payload struct {
		Rows []map[string]any `json:"rows"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding %s: %w", sheet, err)
	}
	return payload.Rows, nil
}

func (s *Sheet) put(ctx context.Context, sheet string, cols []string, rows []map[string]string) error {
	body, err := json.Marshal(sheetPayload{Columns: cols, Rows: rows})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", sheet, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.rowsURL(sheet), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("replacing %s: %w", sheet, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("replacing %s: %w", sheet, err)
	}
	return nil
}

func (s *Sheet) authorize(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
}

func mapCell(row map[string]any) func(string) string {
	return func(col string) string {
		v, ok := row[col]
		if !ok || v == nil {
			return ""
		}
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
}

func zipRow(cols, values []string) map[string]string {
	row := make(map[string]string, len(cols))
	for i, c := range cols {
		row[c] = values[i]
	}
	return row
}
