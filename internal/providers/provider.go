package providers

import (
	"context"
	"fmt"
)

// Request contains the data sent to an LLM for one completion.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// ChunkFunc receives streamed text fragments in the order the backend
// emits them.
type ChunkFunc func(fragment string)

// Client is the provider abstraction interface. Each method performs a
// single attempt; retry policy lives in ExecuteWithRetry.
type Client interface {
	// Complete sends the request and returns the model's full reply text.
	Complete(ctx context.Context, req Request) (string, error)
	// CompleteStream is Complete with incremental delivery: onChunk is
	// invoked zero or more times, in emission order, before the
	// concatenated text is returned.
	CompleteStream(ctx context.Context, req Request, onChunk ChunkFunc) (string, error)
	// ListModels returns the model identifiers the backend advertises.
	ListModels(ctx context.Context) ([]string, error)
	Name() string
}

// New creates a client by provider name. This is the only place provider
// identity is inspected.
func New(provider, model string) (Client, error) {
	switch provider {
	case "openai":
		return NewOpenAI(model)
	case "anthropic":
		return NewAnthropic(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
