package pricing

// Option maps an answer value to a rate multiplier.
type Option struct {
	Value      string  `json:"value" yaml:"value" koanf:"value"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier" koanf:"multiplier"`
}

// Question is one configured pricing question. Questions are applied in
// order; an answer that matches no option leaves the rate untouched.
type Question struct {
	ID      string   `json:"id" yaml:"id" koanf:"id"`
	Options []Option `json:"options" yaml:"options" koanf:"options"`
}

// Service is the pricing configuration for one service key.
type Service struct {
	BaseRate    float64    `json:"base_rate" yaml:"base_rate" koanf:"base_rate"`
	RangeSpread float64    `json:"range_spread" yaml:"range_spread" koanf:"range_spread"`
	PerUnit     string     `json:"per_unit" yaml:"per_unit" koanf:"per_unit"`
	Questions   []Question `json:"questions" yaml:"questions" koanf:"questions"`
}

// Rules is the full pricing configuration document.
type Rules struct {
	Currency string             `json:"currency" yaml:"currency" koanf:"currency"`
	Services map[string]Service `json:"services" yaml:"services" koanf:"services"`
}

// Answers maps question IDs to the caller's answer values. Unknown or
// missing keys apply no multiplier.
type Answers map[string]string

// Estimate is a price band for one service/answers combination.
// Total is the computed rate before the spread is applied; every ledger
// write uses it as the entry's quote total.
type Estimate struct {
	Low      int    `json:"low"`
	High     int    `json:"high"`
	Currency string `json:"currency"`
	PerUnit  string `json:"perUnit"`
	Total    int    `json:"total"`
}
