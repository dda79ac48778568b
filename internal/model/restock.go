package model

import "time"

// RestockEntry is one line of the append-only restock log.
type RestockEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Item      string    `json:"item"`
	Quantity  int       `json:"quantity"`
	User      string    `json:"user"`
}

// Restock log columns.
const (
	ColTimestamp = "Timestamp"
	ColUser      = "User"
)

// RestockColumns is the header of the restock log table.
var RestockColumns = []string{ColTimestamp, ColItem, ColQuantity, ColUser}
