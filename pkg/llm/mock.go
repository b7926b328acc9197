package llm

import "context"

// MockGenerator is a configurable mock for testing enrichment flows.
// Set the function fields to control behavior in tests.
type MockGenerator struct {
	// GenerateFunc is called when Generate is invoked.
	// If nil, returns "{}" and nil error.
	GenerateFunc func(ctx context.Context, prompt string, systemPrompt string) (string, error)

	// Healthy is returned by Health.
	Healthy bool

	// ModelID is returned by Model. Defaults to "mock-model".
	ModelID string

	// Call tracking for verification
	GenerateCalls int
	HealthCalls   int
}

// NewMockGenerator creates a healthy mock with sensible defaults.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{Healthy: true, ModelID: "mock-model"}
}

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, systemPrompt string) (string, error) {
	m.GenerateCalls++
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, systemPrompt)
	}
	return "{}", nil
}

// Health implements Generator.
func (m *MockGenerator) Health(ctx context.Context) bool {
	m.HealthCalls++
	return m.Healthy
}

// Model implements Generator.
func (m *MockGenerator) Model() string {
	if m.ModelID == "" {
		return "mock-model"
	}
	return m.ModelID
}

var _ Generator = (*MockGenerator)(nil)
