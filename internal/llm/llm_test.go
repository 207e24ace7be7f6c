package llm

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

type scriptedProvider struct {
	calls   int
	results []error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	err := p.results[p.calls]
	p.calls++
	if err != nil {
		return nil, err
	}
	return &CompletionResponse{Content: "ok"}, nil
}

func newTestRetrier(p Provider) *Retrier {
	r := NewRetrier(p, time.Second)
	r.sleep = func(time.Duration) {}
	return r
}

func TestRetrierSuccessFirstAttempt(t *testing.T) {
	p := &scriptedProvider{results: []error{nil}}
	r := newTestRetrier(p)

	resp, err := r.Complete(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "ok" || p.calls != 1 {
		t.Errorf("expected single successful call, got %d calls", p.calls)
	}
}

func TestRetrierRetriesServerError(t *testing.T) {
	p := &scriptedProvider{results: []error{
		&APIError{Provider: "scripted", Status: 503, Message: "overloaded"},
		nil,
	}}
	r := newTestRetrier(p)

	resp, err := r.Complete(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete after retry: %v", err)
	}
	if resp.Content != "ok" || p.calls != 2 {
		t.Errorf("expected retry then success, got %d calls", p.calls)
	}
}

func TestRetrierRetriesRateLimit(t *testing.T) {
	p := &scriptedProvider{results: []error{
		&APIError{Provider: "scripted", Status: 429, Message: "rate limited"},
		&APIError{Provider: "scripted", Status: 429, Message: "rate limited"},
	}}
	r := newTestRetrier(p)

	_, err := r.Complete(context.Background(), CompletionRequest{})
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if p.calls != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", p.calls)
	}
}

func TestRetrierDoesNotRetryClientError(t *testing.T) {
	p := &scriptedProvider{results: []error{
		&APIError{Provider: "scripted", Status: 400, Message: "bad request"},
	}}
	r := newTestRetrier(p)

	_, err := r.Complete(context.Background(), CompletionRequest{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 400 {
		t.Fatalf("expected the original client error, got %v", err)
	}
	if p.calls != 1 {
		t.Errorf("client error should not be retried, got %d calls", p.calls)
	}
}

func TestRetrierDoesNotRetryCancellation(t *testing.T) {
	p := &scriptedProvider{results: []error{context.Canceled}}
	r := newTestRetrier(p)

	_, err := r.Complete(context.Background(), CompletionRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if p.calls != 1 {
		t.Errorf("cancellation should not be retried, got %d calls", p.calls)
	}
}

func TestRetrierRetriesNetworkError(t *testing.T) {
	p := &scriptedProvider{results: []error{
		&net.DNSError{Err: "no such host", IsTemporary: true},
		nil,
	}}
	r := newTestRetrier(p)

	if _, err := r.Complete(context.Background(), CompletionRequest{}); err != nil {
		t.Fatalf("expected retry to recover from network error: %v", err)
	}
	if p.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", p.calls)
	}
}

func TestAPIErrorRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{400, false},
		{401, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		e := &APIError{Status: tt.status}
		if got := e.Retryable(); got != tt.want {
			t.Errorf("status %d: Retryable() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestNewProviderUnsupported(t *testing.T) {
	if _, err := NewProvider("carrier-pigeon", "any"); err == nil {
		t.Fatal("expected error for unsupported provider type")
	}
}
