package conversions

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/afjltd/quotedesk/internal/audit"
	"github.com/afjltd/quotedesk/internal/ledger"
)

// ErrNotFound reports an unknown quote ID.
var ErrNotFound = errors.New("quote not found")

// ConflictError reports an outcome transition the entry's current state
// forbids, such as converting a quote already marked lost.
type ConflictError struct {
	ID   string
	From string
	To   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("quote %s is %s, cannot mark %s", e.ID, e.From, e.To)
}

// Tracker applies conversion outcomes to the ledger and audits who made
// each change.
type Tracker struct {
	store ledger.Store
	audit audit.Logger
	now   func() time.Time
}

func NewTracker(store ledger.Store, auditLog audit.Logger) *Tracker {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Tracker{store: store, audit: auditLog, now: time.Now}
}

// ConvertedInput carries the booking details staff enter when a quote
// converts.
type ConvertedInput struct {
	Value        float64
	CustomerName string
	Notes        string
}

// MarkConverted records that the quote became a booking. Marking an
// already converted quote again is a no-op; a lost quote cannot convert.
func (t *Tracker) MarkConverted(id, actor string, in ConvertedInput) error {
	entry, err := t.find(id)
	if err != nil {
		return err
	}
	if entry.Converted {
		return nil
	}
	if entry.LostReason != nil {
		return &ConflictError{ID: id, From: "lost", To: "converted"}
	}

	converted := true
	at := t.now().UTC()
	patch := ledger.Patch{
		Converted:   &converted,
		ConvertedAt: &at,
	}
	if in.Value > 0 {
		patch.ConvertedValue = &in.Value
	}
	if in.CustomerName != "" {
		patch.CustomerName = &in.CustomerName
	}
	if in.Notes != "" {
		patch.Notes = &in.Notes
	}

	found, err := t.store.UpdateByID(id, patch)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	t.audit.Log(actor, audit.ActionMarkedConverted, id, map[string]string{
		"value": fmt.Sprintf("%.2f", in.Value),
	})
	return nil
}

// MarkLost records why the quote did not convert. Marking an already
// lost quote again is a no-op; a converted quote cannot be lost.
func (t *Tracker) MarkLost(id, actor, reason, notes string) error {
	entry, err := t.find(id)
	if err != nil {
		return err
	}
	if entry.LostReason != nil {
		return nil
	}
	if entry.Converted {
		return &ConflictError{ID: id, From: "converted", To: "lost"}
	}
	if reason == "" {
		return fmt.Errorf("lost reason is required")
	}

	patch := ledger.Patch{LostReason: &reason}
	if notes != "" {
		patch.Notes = &notes
	}

	found, err := t.store.UpdateByID(id, patch)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	t.audit.Log(actor, audit.ActionMarkedLost, id, map[string]string{
		"reason": reason,
	})
	return nil
}

// ManualBookingInput describes a booking taken over the phone, outside
// both quote flows. QuotedPrice is what staff quoted the caller;
// BookingValue is what the booking actually closed at, defaulting to
// the quoted price when staff leave it blank.
type ManualBookingInput struct {
	Service      string
	Pickup       string
	Destination  string
	Passengers   string
	Date         string
	Time         string
	ReturnType   ledger.ReturnType
	QuotedPrice  float64
	BookingValue float64
	CustomerName string
	Notes        string
}

// RecordManualBooking appends a converted phone-sourced entry. Unlike
// quote-path appends this surfaces persistence failures: staff need to
// know their booking was not recorded.
func (t *Tracker) RecordManualBooking(actor string, in ManualBookingInput) (*ledger.Entry, error) {
	if in.Service == "" {
		return nil, fmt.Errorf("service is required")
	}
	returnType := in.ReturnType
	if returnType == "" {
		returnType = ledger.ReturnOneWay
	}

	at := t.now().UTC()
	entry := ledger.Entry{
		ID:          ledger.NewID(),
		Timestamp:   at,
		Service:     in.Service,
		Pickup:      ledger.Truncate(in.Pickup),
		Destination: ledger.Truncate(in.Destination),
		Passengers:  in.Passengers,
		Date:        in.Date,
		Time:        in.Time,
		ReturnType:  returnType,
		Source:      ledger.SourcePhone,
		Converted:   true,
		ConvertedAt: &at,
	}
	if in.QuotedPrice > 0 {
		// Phone quotes have no range, so the band collapses to the
		// quoted price.
		total := int(decimal.NewFromFloat(in.QuotedPrice).Round(0).IntPart())
		entry.QuoteLow = total
		entry.QuoteHigh = total
		entry.QuoteTotal = total
	}
	value := in.BookingValue
	if value <= 0 {
		value = in.QuotedPrice
	}
	if value > 0 {
		entry.ConvertedValue = &value
	}
	if in.CustomerName != "" {
		entry.CustomerName = &in.CustomerName
	}
	if in.Notes != "" {
		entry.Notes = &in.Notes
	}

	if err := t.store.Append(entry); err != nil {
		return nil, err
	}

	t.audit.Log(actor, audit.ActionManualBooking, entry.ID, map[string]string{
		"service": in.Service,
		"value":   fmt.Sprintf("%.2f", value),
	})
	return &entry, nil
}

func (t *Tracker) find(id string) (*ledger.Entry, error) {
	entries, err := t.store.ReadAll(0)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, ErrNotFound
}
