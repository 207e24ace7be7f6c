package pricing

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Passenger bands shared by configuration, the extractor and reporting.
const (
	BandSmall  = "1-8"
	BandMedium = "9-16"
	BandLarge  = "17-24"
)

// Well-known question IDs used by the default rules and the extractor.
const (
	QuestionPassengers   = "passengers"
	QuestionReturnType   = "returnType"
	QuestionAirport      = "airport"
	QuestionMeetGreet    = "meetGreet"
	QuestionVehicleClass = "vehicleClass"
)

// DefaultRules returns the compiled-in pricing configuration, used when no
// rules file is present. Deployments override it with their own document.
func DefaultRules() *Rules {
	return &Rules{
		Currency: "GBP",
		Services: map[string]Service{
			"private-hire": {
				BaseRate:    100,
				RangeSpread: 0.2,
				PerUnit:     "per journey",
				Questions: []Question{
					{ID: QuestionPassengers, Options: []Option{
						{Value: BandSmall, Multiplier: 1.0},
						{Value: BandMedium, Multiplier: 1.5},
						{Value: BandLarge, Multiplier: 2.0},
					}},
					{ID: QuestionReturnType, Options: []Option{
						{Value: "one-way", Multiplier: 1.0},
						{Value: "same-day", Multiplier: 1.6},
						{Value: "different-day", Multiplier: 1.9},
					}},
				},
			},
			"airport": {
				BaseRate:    80,
				RangeSpread: 0.15,
				PerUnit:     "per transfer",
				Questions: []Question{
					{ID: QuestionAirport, Options: []Option{
						{Value: "BHX", Multiplier: 1.0},
						{Value: "MAN", Multiplier: 1.8},
						{Value: "LHR", Multiplier: 2.5},
						{Value: "LGW", Multiplier: 2.6},
					}},
					{ID: QuestionPassengers, Options: []Option{
						{Value: BandSmall, Multiplier: 1.0},
						{Value: BandMedium, Multiplier: 1.5},
						{Value: BandLarge, Multiplier: 2.0},
					}},
					{ID: QuestionVehicleClass, Options: []Option{
						{Value: "executive", Multiplier: 1.3},
					}},
					{ID: QuestionMeetGreet, Options: []Option{
						{Value: "yes", Multiplier: 1.15},
					}},
					{ID: QuestionReturnType, Options: []Option{
						{Value: "one-way", Multiplier: 1.0},
						{Value: "same-day", Multiplier: 1.7},
						{Value: "different-day", Multiplier: 1.9},
					}},
				},
			},
		},
	}
}

// LoadRules reads a pricing rules document from a YAML file, falling back
// to the compiled-in defaults when the file does not exist.
func LoadRules(path string) (*Rules, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultRules(), nil
	} else if err != nil {
		return nil, fmt.Errorf("accessing rules %s: %w", path, err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("reading rules %s: %w", path, err)
	}

	rules := &Rules{}
	if err := k.Unmarshal("", rules); err != nil {
		return nil, fmt.Errorf("unmarshalling rules: %w", err)
	}

	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return rules, nil
}

// Validate checks structural constraints on a rules document.
func (r *Rules) Validate() error {
	if r.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if len(r.Services) == 0 {
		return fmt.Errorf("at least one service is required")
	}
	for key, svc := range r.Services {
		if svc.BaseRate < 0 {
			return fmt.Errorf("service %s: base_rate must be non-negative", key)
		}
		if svc.RangeSpread < 0 || svc.RangeSpread > 1 {
			return fmt.Errorf("service %s: range_spread must be between 0 and 1", key)
		}
		if svc.PerUnit == "" {
			return fmt.Errorf("service %s: per_unit is required", key)
		}
		for _, q := range svc.Questions {
			if q.ID == "" {
				return fmt.Errorf("service %s: question id is required", key)
			}
			for _, opt := range q.Options {
				if opt.Multiplier < 0 {
					return fmt.Errorf("service %s question %s: multiplier must be non-negative", key, q.ID)
				}
			}
		}
	}
	return nil
}
