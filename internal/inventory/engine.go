// Package inventory holds the record reconciliation rules: the upsert keyed
// on item name, selection-based edits, low-stock analysis and the restock log.
//
// Every function takes the table as an argument and returns a new one. The
// caller's table is never modified, and nothing here touches storage.
package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockroom/internal/model"
)

// Outcome tells whether Upsert added a record or changed an existing one.
type Outcome int

const (
	Inserted Outcome = iota + 1
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

// Patch lists the fields SetFields may change. Nil fields are left alone.
type Patch struct {
	Quantity     *int
	ReorderLevel *int
	UnitPrice    *decimal.Decimal
	Supplier     *string
}

// SameItem reports whether two item names refer to the same item.
// Names compare case-insensitively with surrounding whitespace ignored.
func SameItem(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Index returns the position of the first record matching name, or -1.
func Index(t model.Table, name string) int {
	for i, r := range t {
		if SameItem(r.Item, name) {
			return i
		}
	}
	return -1
}

// Find returns the first record matching name.
func Find(t model.Table, name string) (model.Record, bool) {
	i := Index(t, name)
	if i < 0 {
		return model.Record{}, false
	}
	return t[i], true
}

// Validate checks a candidate record before it enters the table.
func Validate(c model.Record) error {
	if strings.TrimSpace(c.Item) == "" {
		return &ValidationError{Field: "item", Message: "name is required"}
	}
	if c.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	if c.ReorderLevel < 0 {
		return &ValidationError{Field: "reorder_level", Message: "must not be negative"}
	}
	if c.UnitPrice.IsNegative() {
		return &ValidationError{Field: "unit_price", Message: "must not be negative"}
	}
	return nil
}

// Upsert inserts the candidate or overwrites the record with the same item
// name. An update keeps the record's position and its stored spelling of
// the name. LastUpdated is set to now, truncated to the minute.
func Upsert(t model.Table, c model.Record, now time.Time) (model.Table, Outcome, error) {
	if err := Validate(c); err != nil {
		return nil, 0, err
	}

	c.Item = strings.TrimSpace(c.Item)
	c.LastUpdated = stamp(now)
	out := t.Clone()

	if i := Index(out, c.Item); i >= 0 {
		existing := &out[i]
		existing.Category = c.Category
		existing.Quantity = c.Quantity
		existing.ReorderLevel = c.ReorderLevel
		existing.UnitPrice = c.UnitPrice
		existing.Supplier = c.Supplier
		existing.LastUpdated = c.LastUpdated
		return out, Updated, nil
	}

	return append(out, c), Inserted, nil
}

// Delete removes every record matching name. Deleting an unknown item is
// not an error; removed is then zero and the returned table equals t.
func Delete(t model.Table, name string) (model.Table, int) {
	out := make(model.Table, 0, len(t))
	for _, r := range t {
		if SameItem(r.Item, name) {
			continue
		}
		out = append(out, r)
	}
	return out, len(t) - len(out)
}

// SetFields applies the non-nil fields of p to the record matching name.
func SetFields(t model.Table, name string, p Patch, now time.Time) (model.Table, error) {
	i := Index(t, name)
	if i < 0 {
		return nil, &NotFoundError{Item: name}
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	if p.ReorderLevel != nil && *p.ReorderLevel < 0 {
		return nil, &ValidationError{Field: "reorder_level", Message: "must not be negative"}
	}
	if p.UnitPrice != nil && p.UnitPrice.IsNegative() {
		return nil, &ValidationError{Field: "unit_price", Message: "must not be negative"}
	}

	out := t.Clone()
	r := &out[i]
	if p.Quantity != nil {
		r.Quantity = *p.Quantity
	}
	if p.ReorderLevel != nil {
		r.ReorderLevel = *p.ReorderLevel
	}
	if p.UnitPrice != nil {
		r.UnitPrice = *p.UnitPrice
	}
	if p.Supplier != nil {
		r.Supplier = *p.Supplier
	}
	r.LastUpdated = stamp(now)
	return out, nil
}

func stamp(now time.Time) time.Time {
	return now.Truncate(time.Minute)
}
