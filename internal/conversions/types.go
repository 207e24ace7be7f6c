// Package conversions tracks quote outcomes: staff mark ledger entries
// converted or lost, record phone bookings, and read aggregate metrics
// over the recorded history.
package conversions

import (
	"time"

	"github.com/afjltd/quotedesk/internal/ledger"
)

// Status filters entries by outcome.
type Status string

const (
	StatusAll       Status = ""
	StatusPending   Status = "pending"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

// Filter narrows the entries a metrics or listing call considers. Zero
// fields match everything.
type Filter struct {
	From    time.Time
	To      time.Time
	Service string
	Source  ledger.Source
	Status  Status
}

// Matches reports whether an entry passes the filter.
func (f Filter) Matches(e *ledger.Entry) bool {
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.Timestamp.Before(f.To) {
		return false
	}
	if f.Service != "" && e.Service != f.Service {
		return false
	}
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	switch f.Status {
	case StatusPending:
		return e.Pending()
	case StatusConverted:
		return e.Converted
	case StatusLost:
		return e.LostReason != nil && !e.Converted
	}
	return true
}

// RouteCount is one pickup/destination pair with its frequency.
type RouteCount struct {
	Route string `json:"route"`
	Count int    `json:"count"`
}

// DayCount is one weekday with its frequency.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// RateStat is a conversion rate within one grouping.
type RateStat struct {
	Count     int     `json:"count"`
	Converted int     `json:"converted"`
	Rate      float64 `json:"rate"`
}

// Metrics is the aggregate view over a filtered slice of the ledger.
// Rates are fractions in [0,1]; money values are rounded to 2 decimal
// places.
type Metrics struct {
	Count              int                 `json:"count"`
	ConvertedCount     int                 `json:"convertedCount"`
	LostCount          int                 `json:"lostCount"`
	PendingCount       int                 `json:"pendingCount"`
	ConversionRate     float64             `json:"conversionRate"`
	AverageQuoteValue  float64             `json:"averageQuoteValue"`
	AverageBookedValue float64             `json:"averageBookedValue"`
	TopRoutes          []RouteCount        `json:"topRoutes"`
	BusiestDays        []DayCount          `json:"busiestDays"`
	ByService          map[string]RateStat `json:"byService"`
	ByPassengerBand    map[string]RateStat `json:"byPassengerBand"`
	BySource           map[string]RateStat `json:"bySource"`
}
