package config

// ModelPricing holds per-model chat-completion pricing in dollars per
// million tokens. Cached responses are valued against this table to
// compute the cost avoided by each cache hit.
type ModelPricing struct {
	InputPerMTok  float64 `yaml:"input_per_mtok"`
	OutputPerMTok float64 `yaml:"output_per_mtok"`
}

// DefaultPricing is the fallback row applied to any model identifier not
// present in the table. A missing pricing row must never block a cache
// write, so this row always exists.
var DefaultPricing = ModelPricing{InputPerMTok: 2.50, OutputPerMTok: 10.00}

// modelPricing is the built-in pricing table. Keyed by the model
// identifiers the generation path actually dispatches on.
var modelPricing = map[string]ModelPricing{
	"gpt-4o":                    {InputPerMTok: 2.50, OutputPerMTok: 10.00},
	"gpt-4o-mini":               {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"gpt-4.1":                   {InputPerMTok: 2.00, OutputPerMTok: 8.00},
	"claude-sonnet-4-20250514":  {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-haiku-4-5-20251001": {InputPerMTok: 1.00, OutputPerMTok: 5.00},
	"gemini-2.0-flash":          {InputPerMTok: 0.10, OutputPerMTok: 0.40},
	"gemini-2.5-pro":            {InputPerMTok: 1.25, OutputPerMTok: 10.00},
}

// PricingFor returns the pricing row for the given model, falling back to
// DefaultPricing for unrecognized identifiers.
func PricingFor(model string) ModelPricing {
	if p, ok := modelPricing[model]; ok {
		return p
	}
	return DefaultPricing
}

// KnownModels returns the model identifiers with an explicit pricing row.
func KnownModels() []string {
	models := make([]string, 0, len(modelPricing))
	for m := range modelPricing {
		models = append(models, m)
	}
	return models
}
