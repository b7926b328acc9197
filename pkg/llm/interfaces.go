// Package llm provides the text-generator collaborator used by enrichment
// jobs. The core depends only on the Generator interface, never on a
// specific provider.
package llm

import "context"

// Generator is the narrow contract the enrichment service consumes.
type Generator interface {
	// Generate produces a completion for the prompt. Implementations bound
	// the request with the configured timeout; callers must never hold a
	// storage transaction open across this call.
	Generate(ctx context.Context, prompt string, systemPrompt string) (string, error)

	// Health reports whether the generator currently answers requests.
	Health(ctx context.Context) bool

	// Model returns the configured model identifier for provenance records.
	Model() string
}
