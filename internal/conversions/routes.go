package conversions

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/afjltd/quotedesk/internal/ledger"
)

// RegisterRoutes mounts the conversion tracking endpoints on the given
// router. These sit behind the deployment's admin boundary; handlers
// still require an X-Actor header so every change is attributable.
func RegisterRoutes(r chi.Router, agg *Aggregator, tracker *Tracker) {
	r.Get("/api/admin/conversions", listEntriesHandler(agg))
	r.Get("/api/admin/conversions/metrics", metricsHandler(agg))
	r.Put("/api/admin/conversions/{id}", updateOutcomeHandler(tracker))
	r.Post("/api/admin/conversions/manual", manualBookingHandler(tracker))
}

func parseFilter(r *http.Request) Filter {
	q := r.URL.Query()
	f := Filter{
		Service: q.Get("service"),
		Source:  ledger.Source(q.Get("source")),
		Status:  Status(q.Get("status")),
	}
	switch q.Get("window") {
	case "week":
		f.From = time.Now().AddDate(0, 0, -7)
	case "month":
		f.From = time.Now().AddDate(0, -1, 0)
	}
	if t, ok := parseDay(q.Get("from")); ok {
		f.From = t
	}
	if t, ok := parseDay(q.Get("to")); ok {
		// The filter's upper bound is exclusive; a "to" day should
		// include that whole day.
		f.To = t.AddDate(0, 0, 1)
	}
	return f
}

func parseDay(v string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func listEntriesHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := agg.Entries(parseFilter(r))
		if err != nil {
			http.Error(w, "failed to read quote history", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []ledger.Entry{}
		}
		if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n < len(entries) {
			entries = entries[:n]
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func metricsHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics, err := agg.Metrics(parseFilter(r))
		if err != nil {
			http.Error(w, "failed to read quote history", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, metrics)
	}
}

type outcomeRequest struct {
	Action       string  `json:"action"`
	Value        float64 `json:"value"`
	CustomerName string  `json:"customerName"`
	Reason       string  `json:"reason"`
	Notes        string  `json:"notes"`
}

func updateOutcomeHandler(tracker *Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := r.Header.Get("X-Actor")
		if actor == "" {
			http.Error(w, "X-Actor header is required", http.StatusBadRequest)
			return
		}

		id := chi.URLParam(r, "id")
		var req outcomeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		var err error
		switch req.Action {
		case "convert":
			err = tracker.MarkConverted(id, actor, ConvertedInput{
				Value:        req.Value,
				CustomerName: req.CustomerName,
				Notes:        req.Notes,
			})
		case "lost":
			err = tracker.MarkLost(id, actor, req.Reason, req.Notes)
		default:
			http.Error(w, "action must be convert or lost", http.StatusBadRequest)
			return
		}

		var conflict *ConflictError
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		case errors.Is(err, ErrNotFound):
			http.Error(w, "quote not found", http.StatusNotFound)
		case errors.As(err, &conflict):
			http.Error(w, conflict.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
}

type manualBookingRequest struct {
	Service      string  `json:"service"`
	Pickup       string  `json:"pickup"`
	Destination  string  `json:"destination"`
	Passengers   string  `json:"passengers"`
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	ReturnType   string  `json:"returnType"`
	QuotedPrice  float64 `json:"quotedPrice"`
	BookingValue float64 `json:"bookingValue"`
	CustomerName string  `json:"customerName"`
	Notes        string  `json:"notes"`
}

func manualBookingHandler(tracker *Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := r.Header.Get("X-Actor")
		if actor == "" {
			http.Error(w, "X-Actor header is required", http.StatusBadRequest)
			return
		}

		var req manualBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		entry, err := tracker.RecordManualBooking(actor, ManualBookingInput{
			Service:      req.Service,
			Pickup:       req.Pickup,
			Destination:  req.Destination,
			Passengers:   req.Passengers,
			Date:         req.Date,
			Time:         req.Time,
			ReturnType:   ledger.ReturnType(req.ReturnType),
			QuotedPrice:  req.QuotedPrice,
			BookingValue: req.BookingValue,
			CustomerName: req.CustomerName,
			Notes:        req.Notes,
		})
		if err != nil {
			var perr *ledger.PersistenceError
			if errors.As(err, &perr) {
				http.Error(w, "failed to record booking", http.StatusInternalServerError)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
