package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockroom/internal/model"
)

// Cell encoding shared by the CSV and sheet adapters.

func encodeRecord(r model.Record, cols []string) []string {
	row := make([]string, len(cols))
	for i, c := range cols {
		switch c {
		case model.ColCategory:
			row[i] = r.Category
		case model.ColItem:
			row[i] = r.Item
		case model.ColQuantity:
			row[i] = strconv.Itoa(r.Quantity)
		case model.ColReorderLevel:
			row[i] = strconv.Itoa(r.ReorderLevel)
		case model.ColUnitPrice:
			row[i] = r.UnitPrice.String()
		case model.ColSupplier:
			row[i] = r.Supplier
		case model.ColLastUpdated:
			row[i] = formatTime(r.LastUpdated)
		}
	}
	return row
}

// decodeRecord builds a record from a lookup of column to cell. Missing
// columns leave the field at its zero value.
func decodeRecord(cell func(col string) string) (model.Record, error) {
	var r model.Record
	var err error

	r.Category = strings.TrimSpace(cell(model.ColCategory))
	r.Item = strings.TrimSpace(cell(model.ColItem))
	r.Supplier = strings.TrimSpace(cell(model.ColSupplier))

	if r.Quantity, err = parseCount(cell(model.ColQuantity)); err != nil {
		return r, fmt.Errorf("%s: %w", model.ColQuantity, err)
	}
	if r.ReorderLevel, err = parseCount(cell(model.ColReorderLevel)); err != nil {
		return r, fmt.Errorf("%s: %w", model.ColReorderLevel, err)
	}
	if r.UnitPrice, err = parsePrice(cell(model.ColUnitPrice)); err != nil {
		return r, fmt.Errorf("%s: %w", model.ColUnitPrice, err)
	}
	if r.LastUpdated, err = parseTime(cell(model.ColLastUpdated)); err != nil {
		return r, fmt.Errorf("%s: %w", model.ColLastUpdated, err)
	}
	return r, nil
}

func encodeEntry(e model.RestockEntry) []string {
	return []string{formatTime(e.Timestamp), e.Item, strconv.Itoa(e.Quantity), e.User}
}

func decodeEntry(cell func(col string) string) (model.RestockEntry, error) {
	var e model.RestockEntry
	var err error

	if e.Timestamp, err = parseTime(cell(model.ColTimestamp)); err != nil {
		return e, fmt.Errorf("%s: %w", model.ColTimestamp, err)
	}
	e.Item = strings.TrimSpace(cell(model.ColItem))
	if e.Quantity, err = parseCount(cell(model.ColQuantity)); err != nil {
		return e, fmt.Errorf("%s: %w", model.ColQuantity, err)
	}
	e.User = strings.TrimSpace(cell(model.ColUser))
	return e, nil
}

// parseCount accepts non-negative integers and whole floats ("5.0"), which
// spreadsheets tend to produce. Empty means zero.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, fmt.Errorf("not a whole number: %q", s)
		}
		if f < 0 || f > math.MaxInt32 {
			return 0, fmt.Errorf("out of range: %q", s)
		}
		n = int(f)
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative: %q", s)
	}
	return n, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "£"))
	if s == "" || strings.EqualFold(s, "nan") {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("must not be negative: %q", s)
	}
	return d, nil
}

var timeLayouts = []string{
	model.TimeLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.TimeLayout)
}

// headerIndex maps column names to their position in a header row.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}
