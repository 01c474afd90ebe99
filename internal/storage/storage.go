// Package storage holds helpers shared by the history store backends.
package storage

import (
	"github.com/google/uuid"

	"github.com/tjfontaine/mindspark/internal/core/ports"
)

// HistoryStore is re-exported so backends need not import core/ports directly.
type HistoryStore = ports.HistoryStore

// DefaultQueryLimit is applied when a caller passes a non-positive limit.
const DefaultQueryLimit = 10

// NewRecordID returns a fresh history record id.
func NewRecordID() string {
	return "hist_" + uuid.New().String()
}

// ClampLimit normalises a query limit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultQueryLimit
	}
	return limit
}
