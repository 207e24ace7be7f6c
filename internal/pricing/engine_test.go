package pricing

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEstimatePassengerBand(t *testing.T) {
	// baseRate 100, band 9-16 multiplier 1.5, spread 0.2 -> rate 150,
	// band 135-165.
	engine := NewEngine(DefaultRules())

	est, err := engine.Estimate("private-hire", Answers{QuestionPassengers: BandMedium}, nil)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if est.Low != 135 || est.High != 165 {
		t.Errorf("expected band 135-165, got %d-%d", est.Low, est.High)
	}
	if est.Total != 150 {
		t.Errorf("expected total 150, got %d", est.Total)
	}
	if est.Currency != "GBP" {
		t.Errorf("expected GBP, got %q", est.Currency)
	}
}

func TestEstimateNoAnswersReturnsBaseBand(t *testing.T) {
	engine := NewEngine(DefaultRules())

	for key, svc := range DefaultRules().Services {
		est, err := engine.Estimate(key, Answers{}, nil)
		if err != nil {
			t.Fatalf("Estimate(%s): %v", key, err)
		}
		// With every multiplier at identity the band straddles the base rate.
		base := int(svc.BaseRate)
		if est.Total != base {
			t.Errorf("%s: expected total %d, got %d", key, base, est.Total)
		}
		if est.Low > base || est.High < base {
			t.Errorf("%s: band %d-%d does not contain base rate %d", key, est.Low, est.High, base)
		}
	}
}

func TestEstimateBandOrdering(t *testing.T) {
	engine := NewEngine(DefaultRules())

	answerSets := []Answers{
		nil,
		{QuestionPassengers: BandSmall},
		{QuestionPassengers: BandMedium, QuestionReturnType: "same-day"},
		{QuestionPassengers: BandLarge, QuestionReturnType: "different-day"},
		{QuestionAirport: "LHR", QuestionPassengers: BandMedium, QuestionMeetGreet: "yes"},
		{QuestionPassengers: "not-a-band", QuestionReturnType: "nonsense"},
	}

	for key := range DefaultRules().Services {
		for _, answers := range answerSets {
			est, err := engine.Estimate(key, answers, nil)
			if err != nil {
				t.Fatalf("Estimate(%s, %v): %v", key, answers, err)
			}
			if est.Low > est.High {
				t.Errorf("%s %v: low %d > high %d", key, answers, est.Low, est.High)
			}
			if est.Low < 0 || est.High < 0 {
				t.Errorf("%s %v: negative band %d-%d", key, answers, est.Low, est.High)
			}
		}
	}
}

func TestEstimateUnmatchedAnswerIsIdentity(t *testing.T) {
	engine := NewEngine(DefaultRules())

	base, err := engine.Estimate("private-hire", nil, nil)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	unmatched, err := engine.Estimate("private-hire", Answers{QuestionPassengers: "99-200", "colour": "blue"}, nil)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if base.Low != unmatched.Low || base.High != unmatched.High {
		t.Errorf("unmatched answers changed the band: %v vs %v", base, unmatched)
	}
}

func TestEstimateUnknownService(t *testing.T) {
	engine := NewEngine(DefaultRules())

	_, err := engine.Estimate("helicopter", nil, nil)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Service != "helicopter" {
		t.Errorf("expected service name in error, got %q", cfgErr.Service)
	}
}

func TestEstimateOverlongAnswer(t *testing.T) {
	engine := NewEngine(DefaultRules())

	_, err := engine.Estimate("private-hire", Answers{QuestionPassengers: strings.Repeat("x", 200)}, nil)
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestEstimateOverride(t *testing.T) {
	engine := NewEngine(DefaultRules())

	override := &Rules{
		Currency: "GBP",
		Services: map[string]Service{
			"private-hire": {BaseRate: 200, RangeSpread: 0.1, PerUnit: "per journey"},
		},
	}

	est, err := engine.Estimate("private-hire", nil, override)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if est.Low != 190 || est.High != 210 {
		t.Errorf("expected override band 190-210, got %d-%d", est.Low, est.High)
	}

	// The engine's own rules are untouched.
	after, err := engine.Estimate("private-hire", nil, nil)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if after.Total != 100 {
		t.Errorf("override leaked into engine rules: total %d", after.Total)
	}
}

func TestLoadRulesMissingFileUsesDefaults(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if _, ok := rules.Services["private-hire"]; !ok {
		t.Error("expected default private-hire service")
	}
}

func TestLoadRulesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yml")
	doc := `currency: GBP
services:
  shuttle:
    base_rate: 40
    range_spread: 0.5
    per_unit: per seat
    questions:
      - id: zone
        options:
          - value: city
            multiplier: 1.25
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("writing rules: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}

	est, err := NewEngine(rules).Estimate("shuttle", Answers{"zone": "city"}, nil)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	// 40 * 1.25 = 50, spread 0.5 -> 38-63 (37.5 and 62.5 rounded half up).
	if est.Total != 50 {
		t.Errorf("expected total 50, got %d", est.Total)
	}
	if est.Low != 38 || est.High != 63 {
		t.Errorf("expected band 38-63, got %d-%d", est.Low, est.High)
	}
}

func TestRulesValidate(t *testing.T) {
	cases := []struct {
		name  string
		rules Rules
	}{
		{"no currency", Rules{Services: map[string]Service{"a": {PerUnit: "x"}}}},
		{"no services", Rules{Currency: "GBP"}},
		{"bad spread", Rules{Currency: "GBP", Services: map[string]Service{
			"a": {BaseRate: 10, RangeSpread: 1.5, PerUnit: "x"},
		}}},
		{"negative base", Rules{Currency: "GBP", Services: map[string]Service{
			"a": {BaseRate: -10, RangeSpread: 0.2, PerUnit: "x"},
		}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.rules.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
