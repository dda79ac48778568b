package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erazemk/stockroom/internal/model"
)

func newTestCSV(t *testing.T, schema model.Schema) (*CSVFile, string) {
	t.Helper()
	dir := t.TempDir()
	return NewCSVFile(filepath.Join(dir, "inventory.csv"), filepath.Join(dir, "restock_log.csv"), schema), dir
}

func TestCSVRoundTrip(t *testing.T) {
	s, _ := newTestCSV(t, model.FullSchema())
	testStoreRoundTrip(t, s)
}

func TestCSVLoadCreatesFileWithHeader(t *testing.T) {
	s, dir := newTestCSV(t, model.FullSchema())

	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "inventory.csv"))
	if err != nil {
		t.Fatalf("expected inventory file created: %v", err)
	}
	want := "Category,Item,Quantity,Reorder_Level,Unit_Price,Supplier,Last_Updated\n"
	if string(data) != want {
		t.Errorf("expected header %q, got %q", want, string(data))
	}
}

func TestCSVLoadEmptyFile(t *testing.T) {
	s, dir := newTestCSV(t, model.FullSchema())
	if err := os.WriteFile(filepath.Join(dir, "inventory.csv"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(table) != 0 {
		t.Errorf("expected empty table, got %v", table)
	}
}

func TestCSVLoadToleratesSpreadsheetExports(t *testing.T) {
	s, dir := newTestCSV(t, model.FullSchema())
	content := "\ufeffItem,Quantity,Reorder_Level,Category,Notes\n" +
		"Coffee Beans,5.0,10,Beverage,ignored\n" +
		",,,,\n" +
		"Milk,12,4,Dairy,\n"
	if err := os.WriteFile(filepath.Join(dir, "inventory.csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(table), table)
	}
	if table[0].Item != "Coffee Beans" || table[0].Quantity != 5 || table[0].Category != "Beverage" {
		t.Errorf("unexpected first record %+v", table[0])
	}
	if !table[0].UnitPrice.IsZero() {
		t.Errorf("expected missing price to load as zero, got %s", table[0].UnitPrice)
	}
}

func TestCSVLoadRejectsBadQuantity(t *testing.T) {
	s, dir := newTestCSV(t, model.FullSchema())
	content := "Item,Quantity,Reorder_Level\nMilk,lots,4\n"
	if err := os.WriteFile(filepath.Join(dir, "inventory.csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load(context.Background())
	var serr *StoreError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if !strings.Contains(err.Error(), "row 2") {
		t.Errorf("expected row number in error, got %q", err)
	}
}

func TestCSVLoadRejectsNegativeQuantity(t *testing.T) {
	s, dir := newTestCSV(t, model.FullSchema())
	content := "Category,Item,Quantity,Reorder_Level\nFood,Bread,-3,1\n"
	if err := os.WriteFile(filepath.Join(dir, "inventory.csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load(context.Background())
	var serr *StoreError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if !strings.Contains(err.Error(), "negative") {
		t.Errorf("expected negative quantity error, got %q", err)
	}
}

func TestCSVLoadSkipsRowsWithoutItem(t *testing.T) {
	s, dir := newTestCSV(t, model.FullSchema())
	content := "Category,Item,Quantity,Reorder_Level\nBeverage,,5,1\nFood,Bread,3,1\n"
	if err := os.WriteFile(filepath.Join(dir, "inventory.csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(table) != 1 || table[0].Item != "Bread" {
		t.Fatalf("expected only Bread, got %+v", table)
	}
}

func TestParsePriceRejectsNegative(t *testing.T) {
	if _, err := parsePrice("-1.50"); err == nil {
		t.Error("expected error for negative price")
	}
	d, err := parsePrice("£2.50")
	if err != nil || d.String() != "2.5" {
		t.Errorf("parsePrice(£2.50) = %s, %v", d, err)
	}
}

func TestCSVLoadRequiresItemColumn(t *testing.T) {
	s, dir := newTestCSV(t, model.FullSchema())
	if err := os.WriteFile(filepath.Join(dir, "inventory.csv"), []byte("Name,Quantity\nMilk,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Load(context.Background()); err == nil {
		t.Error("expected error for header without Item column")
	}
}

func TestCSVSaveUsesSchemaColumns(t *testing.T) {
	s, dir := newTestCSV(t, model.Schema{})

	if err := s.Save(context.Background(), sampleTable()[:1]); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "inventory.csv"))
	want := "Item,Quantity,Reorder_Level,Last_Updated\nCoffee Beans,5,10,2025-03-14 09:26\n"
	if string(data) != want {
		t.Errorf("unexpected file content:\n%s\nwant:\n%s", data, want)
	}
}

func TestCSVSaveFailsOnUnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewCSVFile(filepath.Join(blocker, "inventory.csv"), filepath.Join(dir, "log.csv"), model.FullSchema())
	err := s.Save(context.Background(), sampleTable())

	var serr *StoreError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if serr.Op != "save inventory" {
		t.Errorf("unexpected op %q", serr.Op)
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{" 7 ", 7, false},
		{"5.0", 5, false},
		{"5.5", 0, true},
		{"abc", 0, true},
		{"-3", 0, true},
		{"-3.0", 0, true},
		{"1e300", 0, true},
	}

	for _, tt := range tests {
		got, err := parseCount(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseCount(%q) = %d, %v; want %d, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
