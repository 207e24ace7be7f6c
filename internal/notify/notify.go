// Package notify delivers quote request callbacks to the office. A quote
// request is a customer asking to be contacted, so delivery failures are
// logged loudly but never fail the customer's request.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// QuoteRequest is the payload sent when a customer asks to be contacted
// about a quote.
type QuoteRequest struct {
	DispatchID string `json:"dispatchId"`
	QuoteID    string `json:"quoteId,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Service    string `json:"service"`
	Details    string `json:"details,omitempty"`
	SentAt     string `json:"sentAt"`
}

// Notifier delivers quote requests to the office.
type Notifier interface {
	Dispatch(ctx context.Context, req QuoteRequest) error
}

// Webhook POSTs quote requests to a configured URL, retrying once on
// server errors and network failures.
type Webhook struct {
	url    string
	client *http.Client
	sleep  func(time.Duration)
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		sleep: time.Sleep,
	}
}

func (w *Webhook) Dispatch(ctx context.Context, req QuoteRequest) error {
	req.DispatchID = uuid.NewString()
	req.SentAt = time.Now().UTC().Format(time.RFC3339)

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling quote request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		lastErr = w.send(ctx, payload)
		if lastErr == nil {
			return nil
		}
		log.Printf("notify: dispatch %s attempt %d failed: %v", req.DispatchID, attempt, lastErr)
		if !w.retryable(lastErr) || attempt == 2 {
			break
		}
		w.sleep(time.Second)
	}
	return lastErr
}

func (w *Webhook) send(ctx context.Context, payload []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

// retryable treats server errors and network failures as transient.
// Anything that never reached the endpoint is worth one more try.
func (w *Webhook) retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	return true
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.code)
}

// Nop discards quote requests, used when no webhook is configured. The
// quote request still lands in the server log.
type Nop struct{}

func (Nop) Dispatch(ctx context.Context, req QuoteRequest) error {
	log.Printf("notify: no webhook configured, quote request from %s <%s> for %s", req.Name, req.Email, req.Service)
	return nil
}
