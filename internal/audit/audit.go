// Package audit records who changed conversion outcomes. Every staff
// action on the ledger leaves a trail entry.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action describes what was done.
type Action string

const (
	ActionMarkedConverted Action = "marked_converted"
	ActionMarkedLost      Action = "marked_lost"
	ActionManualBooking   Action = "manual_booking"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Actor     string            `json:"actor"`
	Action    Action            `json:"action"`
	QuoteID   string            `json:"quoteId,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// Logger records audit entries. Implementations must never fail the
// action being audited.
type Logger interface {
	Log(actor string, action Action, quoteID string, detail map[string]string)
}

// NewEntry stamps a fresh record.
func NewEntry(actor string, action Action, quoteID string, detail map[string]string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Action:    action,
		QuoteID:   quoteID,
		Detail:    detail,
	}
}

// Nop discards all entries.
type Nop struct{}

func (Nop) Log(string, Action, string, map[string]string) {}
