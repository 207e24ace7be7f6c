// Package ledger is the append-only store of quote records used for both
// analytics and conversion tracking.
//
// Privacy is enforced at write time: pickup and destination are truncated
// to their first 4 characters and uppercased before they reach storage,
// and no client network address is ever written.
package ledger

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Source identifies which flow produced a quote.
type Source string

const (
	SourceStorefront     Source = "storefront"
	SourceConversational Source = "conversational"
	SourcePhone          Source = "phone"
)

// ReturnType classifies the journey's return scenario.
type ReturnType string

const (
	ReturnOneWay       ReturnType = "one-way"
	ReturnSameDay      ReturnType = "same-day"
	ReturnDifferentDay ReturnType = "different-day"
)

// Entry is one quote record. The core fields are immutable once written;
// the conversion tail (converted, convertedAt, convertedValue, lostReason,
// customerName, notes) may transition exactly once out of pending.
type Entry struct {
	ID          string     `json:"id"`
	Timestamp   time.Time  `json:"timestamp"`
	Service     string     `json:"service"`
	Pickup      string     `json:"pickup"`
	Destination string     `json:"destination"`
	Passengers  string     `json:"passengers"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	ReturnType  ReturnType `json:"returnType"`
	QuoteLow    int        `json:"quoteLow"`
	QuoteHigh   int        `json:"quoteHigh"`
	QuoteTotal  int        `json:"quoteTotal"`
	Source      Source     `json:"source"`

	Converted      bool       `json:"converted"`
	ConvertedAt    *time.Time `json:"convertedAt"`
	ConvertedValue *float64   `json:"convertedValue"`
	LostReason     *string    `json:"lostReason"`
	CustomerName   *string    `json:"customerName"`
	Notes          *string    `json:"notes"`
}

// Pending reports whether the entry has not yet converted or been lost.
func (e *Entry) Pending() bool {
	return !e.Converted && e.LostReason == nil
}

// Patch is a partial update to an entry's conversion tail. Nil fields are
// left unchanged.
type Patch struct {
	Converted      *bool      `json:"converted,omitempty"`
	ConvertedAt    *time.Time `json:"convertedAt,omitempty"`
	ConvertedValue *float64   `json:"convertedValue,omitempty"`
	LostReason     *string    `json:"lostReason,omitempty"`
	CustomerName   *string    `json:"customerName,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

// Apply copies the patch's non-nil fields onto the entry.
func (p Patch) Apply(e *Entry) {
	if p.Converted != nil {
		e.Converted = *p.Converted
	}
	if p.ConvertedAt != nil {
		e.ConvertedAt = p.ConvertedAt
	}
	if p.ConvertedValue != nil {
		e.ConvertedValue = p.ConvertedValue
	}
	if p.LostReason != nil {
		e.LostReason = p.LostReason
	}
	if p.CustomerName != nil {
		e.CustomerName = p.CustomerName
	}
	if p.Notes != nil {
		e.Notes = p.Notes
	}
}

const locationMaxLen = 4

// Truncate masks a postcode or place name to its first 4 characters,
// uppercased. Applied before any location reaches storage.
func Truncate(location string) string {
	trimmed := strings.TrimSpace(location)
	runes := []rune(trimmed)
	if len(runes) > locationMaxLen {
		runes = runes[:locationMaxLen]
	}
	return strings.ToUpper(string(runes))
}

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

var (
	idMu     sync.Mutex
	idLastMs int64
)

// NewID generates a unique quote ID of the form q_<millis>_<rand4>.
// When two IDs are generated in the same millisecond the embedded
// timestamp is bumped, keeping IDs strictly creation-ordered within the
// process.
func NewID() string {
	idMu.Lock()
	ms := time.Now().UnixMilli()
	if ms <= idLastMs {
		ms = idLastMs + 1
	}
	idLastMs = ms
	idMu.Unlock()

	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return fmt.Sprintf("q_%d_%s", ms, suffix)
}
