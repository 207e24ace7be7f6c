package conversions

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/afjltd/quotedesk/internal/ledger"
)

const topN = 5

// Aggregator computes metrics over the ledger. Every call recomputes
// from a fresh read, so metrics always reflect the latest appends and
// outcome updates.
type Aggregator struct {
	store ledger.Store
}

func NewAggregator(store ledger.Store) *Aggregator {
	return &Aggregator{store: store}
}

// Entries returns the filtered entries, newest first.
func (a *Aggregator) Entries(filter Filter) ([]ledger.Entry, error) {
	all, err := a.store.ReadAll(0)
	if err != nil {
		return nil, err
	}
	var out []ledger.Entry
	for i := range all {
		if filter.Matches(&all[i]) {
			out = append(out, all[i])
		}
	}
	// ReadAll is creation-ordered; listings want the latest on top.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Metrics aggregates the filtered entries.
func (a *Aggregator) Metrics(filter Filter) (*Metrics, error) {
	all, err := a.store.ReadAll(0)
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		ByService:       map[string]RateStat{},
		ByPassengerBand: map[string]RateStat{},
		BySource:        map[string]RateStat{},
	}
	routes := map[string]int{}
	days := map[string]int{}
	quoteSum := decimal.Zero
	bookedSum := decimal.Zero

	for i := range all {
		e := &all[i]
		if !filter.Matches(e) {
			continue
		}
		m.Count++
		switch {
		case e.Converted:
			m.ConvertedCount++
		case e.LostReason != nil:
			m.LostCount++
		default:
			m.PendingCount++
		}

		quoteSum = quoteSum.Add(decimal.NewFromInt(int64(e.QuoteTotal)))
		if e.Converted && e.ConvertedValue != nil {
			bookedSum = bookedSum.Add(decimal.NewFromFloat(*e.ConvertedValue))
		}

		if e.Pickup != "" && e.Destination != "" {
			routes[e.Pickup+" → "+e.Destination]++
		}
		if day := tripWeekday(e); day != "" {
			days[day]++
		}

		bump(m.ByService, e.Service, e.Converted)
		bump(m.ByPassengerBand, e.Passengers, e.Converted)
		bump(m.BySource, string(e.Source), e.Converted)
	}

	if m.Count > 0 {
		m.ConversionRate = rate(m.ConvertedCount, m.Count)
		m.AverageQuoteValue = avg(quoteSum, m.Count)
	}
	if m.ConvertedCount > 0 {
		m.AverageBookedValue = avg(bookedSum, m.ConvertedCount)
	}
	finishRates(m.ByService)
	finishRates(m.ByPassengerBand)
	finishRates(m.BySource)

	m.TopRoutes = topRoutes(routes)
	m.BusiestDays = topDays(days)
	return m, nil
}

// tripWeekday prefers the travel date over the quote timestamp.
func tripWeekday(e *ledger.Entry) string {
	if t, err := time.Parse("2006-01-02", e.Date); err == nil {
		return t.Weekday().String()
	}
	if !e.Timestamp.IsZero() {
		return e.Timestamp.Weekday().String()
	}
	return ""
}

func bump(stats map[string]RateStat, key string, converted bool) {
	if key == "" {
		return
	}
	s := stats[key]
	s.Count++
	if converted {
		s.Converted++
	}
	stats[key] = s
}

func finishRates(stats map[string]RateStat) {
	for key, s := range stats {
		s.Rate = rate(s.Converted, s.Count)
		stats[key] = s
	}
}

func rate(converted, count int) float64 {
	if count == 0 {
		return 0
	}
	r, _ := decimal.NewFromInt(int64(converted)).
		Div(decimal.NewFromInt(int64(count))).
		Round(4).Float64()
	return r
}

func avg(sum decimal.Decimal, count int) float64 {
	v, _ := sum.Div(decimal.NewFromInt(int64(count))).Round(2).Float64()
	return v
}

func topRoutes(counts map[string]int) []RouteCount {
	out := make([]RouteCount, 0, len(counts))
	for route, n := range counts {
		out = append(out, RouteCount{Route: route, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Route < out[j].Route
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func topDays(counts map[string]int) []DayCount {
	out := make([]DayCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, DayCount{Day: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Day < out[j].Day
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}
