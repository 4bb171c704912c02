package cost

import (
	"fmt"

	"github.com/leofalp/chatstream/providers/ai"
)

// DefaultCurrency is the currency rates are expressed in.
const DefaultCurrency = "USD"

// ModelCost is the pricing of one model, per million tokens.
//
//	pricing := cost.ModelCost{
//	    InputCostPerMillion:  2.50,
//	    OutputCostPerMillion: 10.00,
//	}
type ModelCost struct {
	// InputCostPerMillion is the cost per 1 million prompt tokens.
	InputCostPerMillion float64 `json:"input_cost_per_million" yaml:"input_cost_per_million"`

	// OutputCostPerMillion is the cost per 1 million completion tokens.
	OutputCostPerMillion float64 `json:"output_cost_per_million" yaml:"output_cost_per_million"`

	// Currency defaults to DefaultCurrency.
	Currency string `json:"currency,omitempty" yaml:"currency"`
}

// IsZero reports whether no rate is set.
func (mc ModelCost) IsZero() bool {
	return mc.InputCostPerMillion == 0 && mc.OutputCostPerMillion == 0
}

// CalculateInputCost returns the cost of tokens prompt tokens.
func (mc ModelCost) CalculateInputCost(tokens int) float64 {
	return (float64(tokens) / 1_000_000.0) * mc.InputCostPerMillion
}

// CalculateOutputCost returns the cost of tokens completion tokens.
func (mc ModelCost) CalculateOutputCost(tokens int) float64 {
	return (float64(tokens) / 1_000_000.0) * mc.OutputCostPerMillion
}

// Price breaks usage down into input and output cost.
func (mc ModelCost) Price(usage ai.Usage) Summary {
	currency := mc.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	s := Summary{
		InputCost:  mc.CalculateInputCost(usage.PromptTokens),
		OutputCost: mc.CalculateOutputCost(usage.CompletionTokens),
		Currency:   currency,
	}
	s.TotalCost = s.InputCost + s.OutputCost
	return s
}

// String returns the rates, e.g. "Input: $2.500000/M, Output: $10.000000/M".
func (mc ModelCost) String() string {
	return fmt.Sprintf("Input: $%.6f/M, Output: $%.6f/M",
		mc.InputCostPerMillion, mc.OutputCostPerMillion)
}

// Summary is priced usage.
type Summary struct {
	InputCost  float64 `json:"input_cost"`
	OutputCost float64 `json:"output_cost"`
	TotalCost  float64 `json:"total_cost"`
	Currency   string  `json:"currency"`
}

// String returns the total, e.g. "0.001250 USD".
func (s Summary) String() string {
	return fmt.Sprintf("%.6f %s", s.TotalCost, s.Currency)
}
