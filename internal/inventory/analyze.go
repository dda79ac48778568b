package inventory

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockroom/internal/model"
)

// NearBand is how far above the reorder level a quantity still counts as
// near threshold.
const NearBand = 2

// Level classifies a record's stock against its reorder level.
type Level int

const (
	LevelOK Level = iota
	LevelNear
	LevelLow
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelNear:
		return "near"
	default:
		return "ok"
	}
}

// LevelOf returns LevelLow when quantity <= reorder level and LevelNear
// when it is at most NearBand above it.
func LevelOf(r model.Record) Level {
	switch {
	case r.Quantity <= r.ReorderLevel:
		return LevelLow
	case r.Quantity <= r.ReorderLevel+NearBand:
		return LevelNear
	default:
		return LevelOK
	}
}

// Value is the stock value of a single record.
func Value(r model.Record) decimal.Decimal {
	return r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// Report summarizes a table.
type Report struct {
	LowStock      model.Table     `json:"low_stock"`
	NearThreshold model.Table     `json:"near_threshold"`
	TotalValue    decimal.Decimal `json:"total_value"`
	TotalItems    int             `json:"total_items"`
}

// Analyze collects low and near-threshold records in table order and sums
// the stock value.
func Analyze(t model.Table) Report {
	rep := Report{
		LowStock:      model.Table{},
		NearThreshold: model.Table{},
		TotalValue:    decimal.Zero,
		TotalItems:    len(t),
	}
	for _, r := range t {
		switch LevelOf(r) {
		case LevelLow:
			rep.LowStock = append(rep.LowStock, r)
		case LevelNear:
			rep.NearThreshold = append(rep.NearThreshold, r)
		}
		rep.TotalValue = rep.TotalValue.Add(Value(r))
	}
	return rep
}

// Filter returns the records whose item name contains query and whose
// category equals category. Empty arguments match everything.
func Filter(t model.Table, query, category string) model.Table {
	query = strings.ToLower(strings.TrimSpace(query))
	category = strings.TrimSpace(category)

	out := model.Table{}
	for _, r := range t {
		if query != "" && !strings.Contains(strings.ToLower(r.Item), query) {
			continue
		}
		if category != "" && !strings.EqualFold(strings.TrimSpace(r.Category), category) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Categories lists the distinct non-empty categories in first-seen order.
func Categories(t model.Table) []string {
	seen := make(map[string]bool)
	var cats []string
	for _, r := range t {
		c := strings.TrimSpace(r.Category)
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		cats = append(cats, c)
	}
	return cats
}
