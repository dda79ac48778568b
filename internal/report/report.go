// Package report renders inventory tables for people: CSV exports, the
// low-stock alert text and its share link.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/erazemk/stockroom/internal/inventory"
	"github.com/erazemk/stockroom/internal/model"
)

// Export scopes.
const (
	ScopeAll = "all"
	ScopeLow = "low"
)

// ExportColumns is the header of a full export. Total_Value follows the
// stored columns when prices are tracked.
func ExportColumns(s model.Schema) []string {
	cols := s.Columns()
	if s.TrackPrice {
		cols = append(cols, model.ColTotalValue)
	}
	return cols
}

// Export writes the records selected by scope with the matching header.
func Export(w io.Writer, t model.Table, s model.Schema, scope string) error {
	switch scope {
	case ScopeAll, "":
		return WriteCSV(w, t, ExportColumns(s))
	case ScopeLow:
		return WriteCSV(w, inventory.Analyze(t).LowStock, s.LowStockColumns())
	default:
		return &inventory.ValidationError{Field: "scope", Message: fmt.Sprintf("unknown export scope %q", scope)}
	}
}

// FileName is the suggested download name for an export.
func FileName(scope string) string {
	if scope == ScopeLow {
		return "low_stock.csv"
	}
	return "inventory_backup.csv"
}

// WriteCSV writes a header row followed by one row per record.
func WriteCSV(w io.Writer, t model.Table, cols []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range t {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = Cell(r, c)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing %q: %w", r.Item, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Cell renders one column of a record as text.
func Cell(r model.Record, col string) string {
	switch col {
	case model.ColCategory:
		return r.Category
	case model.ColItem:
		return r.Item
	case model.ColQuantity:
		return strconv.Itoa(r.Quantity)
	case model.ColReorderLevel:
		return strconv.Itoa(r.ReorderLevel)
	case model.ColUnitPrice:
		return r.UnitPrice.StringFixed(2)
	case model.ColSupplier:
		return r.Supplier
	case model.ColLastUpdated:
		if r.LastUpdated.IsZero() {
			return ""
		}
		return r.LastUpdated.Format(model.TimeLayout)
	case model.ColTotalValue:
		return inventory.Value(r).StringFixed(2)
	default:
		return ""
	}
}

// AlertMessage lists low-stock records, one per line, under a title. It
// returns an empty string when nothing is low.
func AlertMessage(low model.Table) string {
	if len(low) == 0 {
		return ""
	}
	lines := make([]string, 0, len(low)+1)
	lines = append(lines, "Low Stock Alert")
	for _, r := range low {
		lines = append(lines, fmt.Sprintf("%s - Qty: %d (Reorder at %d)", r.Item, r.Quantity, r.ReorderLevel))
	}
	return strings.Join(lines, "\n")
}

// WhatsAppLink returns a wa.me link that opens a chat prefilled with msg.
func WhatsAppLink(msg string) string {
	text := strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
	return "https://wa.me/?text=" + text
}

// Money formats an amount with thousands separators and two decimals.
func Money(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return humanize.FormatFloat("#,###.##", f)
}
