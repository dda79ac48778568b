package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout is the minute-precision layout used for Last_Updated and
// restock log timestamps.
const TimeLayout = "2006-01-02 15:04"

// Record is a single inventory line, keyed by its item name.
type Record struct {
	Category     string          `json:"category,omitempty"`
	Item         string          `json:"item"`
	Quantity     int             `json:"quantity"`
	ReorderLevel int             `json:"reorder_level"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Supplier     string          `json:"supplier,omitempty"`
	LastUpdated  time.Time       `json:"last_updated"`
}

// Table is the full inventory in display order.
type Table []Record

// Clone returns a copy of the table that shares no backing array with t.
func (t Table) Clone() Table {
	if t == nil {
		return Table{}
	}
	out := make(Table, len(t))
	copy(out, t)
	return out
}

// Items returns the item names in table order.
func (t Table) Items() []string {
	names := make([]string, 0, len(t))
	for _, r := range t {
		names = append(names, r.Item)
	}
	return names
}
