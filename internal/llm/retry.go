package llm

import (
	"context"
	"errors"
	"log"
	"net"
	"time"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = 5 * time.Second
	maxAttempts       = 2
)

// Retrier wraps a provider with a per-call timeout and a single retry for
// transient failures. Client errors (bad request, auth) fail immediately;
// rate limits, server errors and network failures get one more attempt
// after a fixed delay.
type Retrier struct {
	provider Provider
	timeout  time.Duration
	delay    time.Duration
	sleep    func(time.Duration)
}

func NewRetrier(provider Provider, timeout time.Duration) *Retrier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Retrier{
		provider: provider,
		timeout:  timeout,
		delay:    defaultRetryDelay,
		sleep:    time.Sleep,
	}
}

func (r *Retrier) Name() string {
	return r.provider.Name()
}

func (r *Retrier) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		start := time.Now()
		resp, err := r.provider.Complete(callCtx, req)
		cancel()

		if err == nil {
			log.Printf(`{"event":"llm_call","provider":%q,"attempt":%d,"duration_ms":%d,"input_tokens":%d,"output_tokens":%d}`,
				r.provider.Name(), attempt, time.Since(start).Milliseconds(), resp.InputTokens, resp.OutputTokens)
			return resp, nil
		}

		lastErr = err
		log.Printf(`{"event":"llm_call_failed","provider":%q,"attempt":%d,"duration_ms":%d,"error":%q}`,
			r.provider.Name(), attempt, time.Since(start).Milliseconds(), err.Error())

		if !retryable(err) || attempt == maxAttempts {
			break
		}
		r.sleep(r.delay)
	}
	return nil, lastErr
}

// retryable decides whether a failed call is worth one more attempt.
// Caller cancellation is final; per-call deadline expiry and network
// failures are transient.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
