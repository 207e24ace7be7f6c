package extractor

import (
	"fmt"
	"log"
	"time"

	"github.com/afjltd/quotedesk/internal/ledger"
	"github.com/afjltd/quotedesk/internal/pricing"
)

// Pipeline turns tagged assistant replies into customer-facing text,
// pricing and recording the extracted trip along the way.
type Pipeline struct {
	engine *pricing.Engine
	store  ledger.Store

	// Fallback replaces the reply body when a tag is present but cannot
	// be priced. It should steer the customer to a human channel.
	Fallback string
}

func NewPipeline(engine *pricing.Engine, store ledger.Store, fallback string) *Pipeline {
	return &Pipeline{engine: engine, store: store, Fallback: fallback}
}

// Process scans an assistant reply for a quote tag. Replies without a tag
// pass through unchanged. A priceable tag is replaced with the rendered
// estimate and the quote is recorded; an unpriceable tag yields the
// fallback message. Raw tag content and extraction errors never reach the
// returned text.
func (p *Pipeline) Process(text string) string {
	req, found, err := Find(text)
	if !found {
		return text
	}
	if err != nil {
		log.Printf("extractor: %v", err)
		return p.Fallback
	}

	service, answers, err := Normalize(req)
	if err != nil {
		log.Printf("extractor: %v", err)
		return p.Fallback
	}

	est, err := p.engine.Estimate(service, pricing.Answers(answers), nil)
	if err != nil {
		log.Printf("extractor: pricing %s: %v", service, err)
		return p.Fallback
	}

	p.record(req, service, answers, est)

	rendered := fmt.Sprintf("Based on your trip details, the estimated price is £%d-£%d. The final price is confirmed when you book.", est.Low, est.High)
	return replaceTag(text, rendered)
}

// record appends a conversational ledger entry. The passenger band from
// the normalized answers is stored, never the exact count. Persistence
// failures are logged and swallowed so the customer still receives their
// quote.
func (p *Pipeline) record(req Request, service string, answers map[string]string, est *pricing.Estimate) {
	if p.store == nil {
		return
	}
	entry := ledger.Entry{
		ID:          ledger.NewID(),
		Timestamp:   time.Now().UTC(),
		Service:     service,
		Pickup:      ledger.Truncate(req.Pickup),
		Destination: ledger.Truncate(req.Destination),
		Passengers:  answers["passengers"],
		Date:        req.Date,
		Time:        req.Time,
		ReturnType:  ledger.ReturnType(answers["returnType"]),
		QuoteLow:    est.Low,
		QuoteHigh:   est.High,
		QuoteTotal:  est.Total,
		Source:      ledger.SourceConversational,
	}
	if err := p.store.Append(entry); err != nil {
		log.Printf("extractor: recording quote: %v", err)
	}
}
