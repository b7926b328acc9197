package llm

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Availability is an immutable snapshot of generator health. Consumers read
// whole snapshots; there is no shared mutable flag to race on.
type Availability struct {
	Available bool      `json:"available"`
	Model     string    `json:"model"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthMonitor probes the generator on a cron schedule and publishes the
// latest Availability snapshot.
type HealthMonitor struct {
	generator Generator
	cron      *cron.Cron
	snapshot  atomic.Value // Availability
	logger    *zap.Logger
}

// NewHealthMonitor creates a monitor for the generator. The initial snapshot
// is unavailable until the first probe runs.
func NewHealthMonitor(generator Generator, logger *zap.Logger) *HealthMonitor {
	m := &HealthMonitor{
		generator: generator,
		cron:      cron.New(),
		logger:    logger.Named("llm-health"),
	}
	m.snapshot.Store(Availability{Model: generator.Model()})
	return m
}

// Start probes once immediately, then on the given cron spec.
func (m *HealthMonitor) Start(spec string) error {
	m.Probe(context.Background())

	if _, err := m.cron.AddFunc(spec, func() {
		m.Probe(context.Background())
	}); err != nil {
		return err
	}
	m.cron.Start()
	return nil
}

// Stop halts the scheduled probes.
func (m *HealthMonitor) Stop() {
	m.cron.Stop()
}

// Probe checks the generator now and publishes a fresh snapshot.
func (m *HealthMonitor) Probe(ctx context.Context) Availability {
	snap := Availability{
		Available: m.generator.Health(ctx),
		Model:     m.generator.Model(),
		CheckedAt: time.Now().UTC(),
	}
	m.snapshot.Store(snap)

	if !snap.Available {
		m.logger.Warn("generator unavailable", zap.String("model", snap.Model))
	}
	return snap
}

// Current returns the most recently published snapshot.
func (m *HealthMonitor) Current() Availability {
	return m.snapshot.Load().(Availability)
}
