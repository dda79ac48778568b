package model

import (
	"slices"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleManager, true},
		{RoleAdmin, RoleUser, true},
		{RoleManager, RoleAdmin, false},
		{RoleManager, RoleManager, true},
		{RoleManager, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleManager, false},
		{RoleUser, RoleUser, true},
		// Unknown roles fail-closed.
		{"unknown", RoleUser, false},
		{RoleAdmin, "unknown", false},
		{"", "", false},
		{"", RoleUser, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

func TestSchemaColumns(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		want   []string
	}{
		{"full", FullSchema(), []string{"Category", "Item", "Quantity", "Reorder_Level", "Unit_Price", "Supplier", "Last_Updated"}},
		{"minimal", Schema{}, []string{"Item", "Quantity", "Reorder_Level", "Last_Updated"}},
		{"category only", Schema{TrackCategory: true}, []string{"Category", "Item", "Quantity", "Reorder_Level", "Last_Updated"}},
	}

	for _, tt := range tests {
		if got := tt.schema.Columns(); !slices.Equal(got, tt.want) {
			t.Errorf("%s: Columns() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSchemaApplyClearsUntrackedFields(t *testing.T) {
	r := Record{Category: "Beverage", Item: "Tea", UnitPrice: decimal.NewFromInt(3), Supplier: "Acme"}

	got := Schema{}.Apply(r)
	if got.Category != "" || got.Supplier != "" || !got.UnitPrice.IsZero() {
		t.Errorf("expected untracked fields cleared, got %+v", got)
	}

	kept := FullSchema().Apply(r)
	if kept.Category != "Beverage" || kept.Supplier != "Acme" || !kept.UnitPrice.Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected tracked fields kept, got %+v", kept)
	}
}

func TestTableCloneIsIndependent(t *testing.T) {
	orig := Table{{Item: "A", Quantity: 1}}
	c := orig.Clone()
	c[0].Quantity = 9

	if orig[0].Quantity != 1 {
		t.Errorf("clone shares storage with original")
	}
	if Table(nil).Clone() == nil {
		t.Errorf("expected non-nil clone of nil table")
	}
}
