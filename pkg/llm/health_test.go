package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHealthMonitorInitialSnapshot(t *testing.T) {
	gen := NewMockGenerator()
	m := NewHealthMonitor(gen, zap.NewNop())

	snap := m.Current()
	assert.False(t, snap.Available)
	assert.Equal(t, "mock-model", snap.Model)
	assert.True(t, snap.CheckedAt.IsZero())
}

func TestHealthMonitorProbePublishes(t *testing.T) {
	gen := NewMockGenerator()
	gen.Healthy = true
	m := NewHealthMonitor(gen, zap.NewNop())

	snap := m.Probe(context.Background())
	assert.True(t, snap.Available)
	assert.False(t, snap.CheckedAt.IsZero())
	assert.Equal(t, snap, m.Current())

	gen.Healthy = false
	m.Probe(context.Background())
	assert.False(t, m.Current().Available)
	assert.Equal(t, 2, gen.HealthCalls)
}

func TestNewGeneratorUnknownProvider(t *testing.T) {
	_, err := NewGenerator("bedrock", &Config{}, zap.NewNop())
	require.Error(t, err)
}

func TestOfflineGeneratorAlwaysUnavailable(t *testing.T) {
	gen := NewOfflineGenerator()

	assert.False(t, gen.Health(context.Background()))
	assert.Empty(t, gen.Model())

	_, err := gen.Generate(context.Background(), "prompt", "system")
	require.Error(t, err)
	assert.Equal(t, ErrorTypeUnavailable, TypeOf(err))

	// Probing an offline generator publishes an unavailable snapshot.
	m := NewHealthMonitor(gen, zap.NewNop())
	snap := m.Probe(context.Background())
	assert.False(t, snap.Available)
	assert.False(t, snap.CheckedAt.IsZero())
}
