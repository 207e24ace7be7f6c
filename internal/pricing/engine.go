package pricing

import (
	"github.com/shopspring/decimal"
)

// maxAnswerLength bounds individual answer values; anything longer is
// rejected before it can reach a log line.
const maxAnswerLength = 100

// Engine computes price bands from pricing rules. It holds no mutable
// state; Estimate is a pure function of its inputs.
type Engine struct {
	rules *Rules
}

// NewEngine creates an Engine over the given rules.
func NewEngine(rules *Rules) *Engine {
	return &Engine{rules: rules}
}

// Rules returns the engine's active pricing rules.
func (e *Engine) Rules() *Rules { return e.rules }

// Estimate computes the price band for a service and set of answers.
// A non-nil override substitutes a whole rules document for this one call
// without persisting anything, for what-if pricing previews.
//
// The rate starts at the service's base rate; each configured question is
// checked in order, and an answer matching one of its options multiplies
// the running rate by that option's multiplier. Unmatched or absent
// answers apply no multiplier. The range spread then produces a symmetric
// band around the rate.
func (e *Engine) Estimate(service string, answers Answers, override *Rules) (*Estimate, error) {
	rules := e.rules
	if override != nil {
		rules = override
	}

	svc, ok := rules.Services[service]
	if !ok {
		return nil, &ConfigError{Service: service}
	}

	for id, value := range answers {
		if len(value) > maxAnswerLength {
			return nil, &ValidationError{Field: id, Reason: "value too long"}
		}
	}

	rate := decimal.NewFromFloat(svc.BaseRate)
	for _, q := range svc.Questions {
		answer, ok := answers[q.ID]
		if !ok || answer == "" {
			continue
		}
		for _, opt := range q.Options {
			if opt.Value == answer {
				rate = rate.Mul(decimal.NewFromFloat(opt.Multiplier))
				break
			}
		}
	}

	half := decimal.NewFromFloat(svc.RangeSpread).Div(decimal.NewFromInt(2))
	one := decimal.NewFromInt(1)

	low := rate.Mul(one.Sub(half)).Round(0)
	high := rate.Mul(one.Add(half)).Round(0)

	zero := decimal.Zero
	if low.LessThan(zero) {
		low = zero
	}
	if high.LessThan(zero) {
		high = zero
	}

	return &Estimate{
		Low:      int(low.IntPart()),
		High:     int(high.IntPart()),
		Currency: rules.Currency,
		PerUnit:  svc.PerUnit,
		Total:    int(rate.Round(0).IntPart()),
	}, nil
}
