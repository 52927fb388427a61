package analysis

import (
	"fmt"
	"time"
)

// Params carries the provider configuration shared by every request in a
// batch.
type Params struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Request is one independent analysis unit: a source text plus the
// categories to review it against. Immutable once built.
type Request struct {
	Label       string
	Source      string
	Categories  []Category
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewRequest validates and builds a Request. Unknown or duplicate
// categories, an empty source, and out-of-range sampling parameters are
// rejected here so the orchestrator only ever sees well-formed units.
func NewRequest(label, source string, categories []Category, p Params) (Request, error) {
	if source == "" {
		return Request{}, fmt.Errorf("empty source text")
	}
	if len(categories) == 0 {
		return Request{}, fmt.Errorf("at least one category is required")
	}
	seen := make(map[Category]bool, len(categories))
	for _, c := range categories {
		if categoryIndex(c) < 0 {
			return Request{}, fmt.Errorf("unknown category: %s", c)
		}
		if seen[c] {
			return Request{}, fmt.Errorf("duplicate category: %s", c)
		}
		seen[c] = true
	}
	if p.Provider == "" {
		return Request{}, fmt.Errorf("provider is required")
	}
	if p.Model == "" {
		return Request{}, fmt.Errorf("model is required")
	}
	if p.Temperature < 0 || p.Temperature > 1 {
		return Request{}, fmt.Errorf("temperature %g out of range [0,1]", p.Temperature)
	}
	if p.MaxTokens <= 0 {
		return Request{}, fmt.Errorf("maxTokens must be positive")
	}
	if p.Timeout <= 0 {
		return Request{}, fmt.Errorf("timeout must be positive")
	}

	cats := make([]Category, len(categories))
	copy(cats, categories)

	return Request{
		Label:       label,
		Source:      source,
		Categories:  cats,
		Provider:    p.Provider,
		Model:       p.Model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		Timeout:     p.Timeout,
	}, nil
}
