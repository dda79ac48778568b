package inventory

import (
	"time"

	"github.com/erazemk/stockroom/internal/model"
)

// AppendRestock returns log with a new entry at the end. Entries already in
// the log are never changed or deduplicated.
func AppendRestock(log []model.RestockEntry, item string, quantity int, actor string, now time.Time) []model.RestockEntry {
	out := make([]model.RestockEntry, len(log), len(log)+1)
	copy(out, log)
	return append(out, model.RestockEntry{
		Timestamp: stamp(now),
		Item:      item,
		Quantity:  quantity,
		User:      actor,
	})
}
