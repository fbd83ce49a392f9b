package llm

import "context"

// Client defines the interface for generative-language providers.
type Client interface {
	// Generate sends a single prompt and returns the model's text output.
	Generate(ctx context.Context, prompt string) (string, error)
}
