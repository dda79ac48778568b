package model

import "github.com/shopspring/decimal"

// Inventory table columns, in canonical order.
const (
	ColCategory     = "Category"
	ColItem         = "Item"
	ColQuantity     = "Quantity"
	ColReorderLevel = "Reorder_Level"
	ColUnitPrice    = "Unit_Price"
	ColSupplier     = "Supplier"
	ColLastUpdated  = "Last_Updated"

	// ColTotalValue is a derived column available to exports only.
	ColTotalValue = "Total_Value"
)

// Schema selects which optional fields a shop tracks.
type Schema struct {
	TrackCategory   bool
	TrackPrice      bool
	TrackSupplier   bool
	RequireCategory bool
	RoleGating      bool
}

// FullSchema tracks every optional field.
func FullSchema() Schema {
	return Schema{TrackCategory: true, TrackPrice: true, TrackSupplier: true}
}

// Columns returns the persisted header for the schema.
func (s Schema) Columns() []string {
	cols := make([]string, 0, 7)
	if s.TrackCategory {
		cols = append(cols, ColCategory)
	}
	cols = append(cols, ColItem, ColQuantity, ColReorderLevel)
	if s.TrackPrice {
		cols = append(cols, ColUnitPrice)
	}
	if s.TrackSupplier {
		cols = append(cols, ColSupplier)
	}
	return append(cols, ColLastUpdated)
}

// LowStockColumns is the header used for low-stock reports.
func (s Schema) LowStockColumns() []string {
	cols := make([]string, 0, 5)
	if s.TrackCategory {
		cols = append(cols, ColCategory)
	}
	cols = append(cols, ColItem, ColQuantity, ColReorderLevel)
	if s.TrackSupplier {
		cols = append(cols, ColSupplier)
	}
	return cols
}

// Apply clears the fields of r that the schema does not track.
func (s Schema) Apply(r Record) Record {
	if !s.TrackCategory {
		r.Category = ""
	}
	if !s.TrackPrice {
		r.UnitPrice = decimal.Zero
	}
	if !s.TrackSupplier {
		r.Supplier = ""
	}
	return r
}
