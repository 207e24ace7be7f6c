// Package quotes exposes the storefront quote endpoints: instant
// estimates, follow-up quote requests, and the admin pricing preview.
package quotes

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/afjltd/quotedesk/internal/ledger"
	"github.com/afjltd/quotedesk/internal/notify"
	"github.com/afjltd/quotedesk/internal/pricing"
	"github.com/afjltd/quotedesk/internal/ratelimit"
)

// Handler serves the quote endpoints.
type Handler struct {
	engine   *pricing.Engine
	store    ledger.Store
	limiter  *ratelimit.Limiter
	notifier notify.Notifier
}

func NewHandler(engine *pricing.Engine, store ledger.Store, limiter *ratelimit.Limiter, notifier notify.Notifier) *Handler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Handler{engine: engine, store: store, limiter: limiter, notifier: notifier}
}

// RegisterRoutes mounts the quote endpoints on the given router.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/api/quote/estimate", h.handleEstimate)
	r.Post("/api/quote/request", h.handleQuoteRequest)
	r.Post("/api/admin/pricing-preview", h.handlePricingPreview)
}

type estimateRequest struct {
	Service string          `json:"service"`
	Answers pricing.Answers `json:"answers"`
}

type estimateResponse struct {
	Success  bool              `json:"success"`
	Estimate *pricing.Estimate `json:"estimate,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func (h *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if res := h.limiter.Check(r, "quote", ratelimit.Quote); !res.Allowed {
		ratelimit.Deny(w, res.ResetAt)
		return
	}

	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, estimateResponse{Error: "invalid request body"})
		return
	}
	if req.Service == "" {
		writeJSON(w, http.StatusBadRequest, estimateResponse{Error: "service is required"})
		return
	}

	est, err := h.engine.Estimate(req.Service, req.Answers, nil)
	if err != nil {
		var cfgErr *pricing.ConfigError
		var valErr *pricing.ValidationError
		switch {
		case errors.As(err, &cfgErr):
			writeJSON(w, http.StatusBadRequest, estimateResponse{Error: cfgErr.Error()})
		case errors.As(err, &valErr):
			writeJSON(w, http.StatusBadRequest, estimateResponse{Error: valErr.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, estimateResponse{Error: "failed to compute estimate"})
		}
		return
	}

	h.record(req.Service, req.Answers, est)
	writeJSON(w, http.StatusOK, estimateResponse{Success: true, Estimate: est})
}

// record appends a storefront ledger entry. The trip details ride along
// in the answers map under conventional keys; absent keys leave blank
// fields. Failures are logged, never surfaced.
func (h *Handler) record(service string, answers pricing.Answers, est *pricing.Estimate) {
	if h.store == nil {
		return
	}
	entry := ledger.Entry{
		ID:          ledger.NewID(),
		Timestamp:   time.Now().UTC(),
		Service:     service,
		Pickup:      ledger.Truncate(answers["pickup"]),
		Destination: ledger.Truncate(answers["destination"]),
		Passengers:  answers["passengers"],
		Date:        answers["date"],
		Time:        answers["time"],
		ReturnType:  returnType(answers["returnType"]),
		QuoteLow:    est.Low,
		QuoteHigh:   est.High,
		QuoteTotal:  est.Total,
		Source:      ledger.SourceStorefront,
	}
	if err := h.store.Append(entry); err != nil {
		log.Printf("quotes: recording estimate: %v", err)
	}
}

func returnType(answer string) ledger.ReturnType {
	switch ledger.ReturnType(answer) {
	case ledger.ReturnSameDay:
		return ledger.ReturnSameDay
	case ledger.ReturnDifferentDay:
		return ledger.ReturnDifferentDay
	}
	return ledger.ReturnOneWay
}

type quoteRequestBody struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Details string `json:"details"`
	QuoteID string `json:"quoteId"`
}

func (h *Handler) handleQuoteRequest(w http.ResponseWriter, r *http.Request) {
	if res := h.limiter.Check(r, "quote-request", ratelimit.QuoteRequest); !res.Allowed {
		ratelimit.Deny(w, res.ResetAt)
		return
	}

	var req quoteRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		http.Error(w, "a valid email is required", http.StatusBadRequest)
		return
	}

	// The customer gets their confirmation either way; a failed
	// dispatch is an operations problem, not theirs.
	if err := h.notifier.Dispatch(r.Context(), notify.QuoteRequest{
		QuoteID: req.QuoteID,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Service: req.Service,
		Details: req.Details,
	}); err != nil {
		log.Printf("quotes: dispatching quote request: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type previewRequest struct {
	Service string          `json:"service"`
	Answers pricing.Answers `json:"answers"`
	Rules   *pricing.Rules  `json:"rules"`
}

// handlePricingPreview prices a trip against a candidate rules document
// without touching the live rules or the ledger. Staff use it to try out
// rate changes before committing them.
func (h *Handler) handlePricingPreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, estimateResponse{Error: "invalid request body"})
		return
	}
	if req.Rules != nil {
		if err := req.Rules.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, estimateResponse{Error: err.Error()})
			return
		}
	}

	est, err := h.engine.Estimate(req.Service, req.Answers, req.Rules)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, estimateResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, estimateResponse{Success: true, Estimate: est})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
