package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/saagar210/IncidentManagement-sub000/pkg/llm"
	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
	"github.com/saagar210/IncidentManagement-sub000/pkg/repositories"
	"github.com/saagar210/IncidentManagement-sub000/pkg/services"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockIncidentServiceForHandler implements services.IncidentService for
// handler tests. Set the value/err pairs to control each operation.
type mockIncidentServiceForHandler struct {
	created    *models.Incident
	createErr  error
	detail     *services.IncidentDetail
	getErr     error
	updated    *models.Incident
	updateErr  error
	incidents  []*models.Incident
	listErr    error
	bulkErr    error
	deleteErr  error
	restoreErr error
	purgeErr   error
	matches    []repositories.SimilarIncident
	searchErr  error
}

func (m *mockIncidentServiceForHandler) Create(ctx context.Context, inc *models.Incident) (*models.Incident, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.created != nil {
		return m.created, nil
	}
	return inc, nil
}
func (m *mockIncidentServiceForHandler) Get(ctx context.Context, id uuid.UUID) (*services.IncidentDetail, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.detail, nil
}
func (m *mockIncidentServiceForHandler) Update(ctx context.Context, id uuid.UUID, update *services.IncidentUpdate) (*models.Incident, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.updated, nil
}
func (m *mockIncidentServiceForHandler) List(ctx context.Context, filter repositories.IncidentFilter) ([]*models.Incident, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.incidents, nil
}
func (m *mockIncidentServiceForHandler) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status models.Status) ([]*models.Incident, error) {
	if m.bulkErr != nil {
		return nil, m.bulkErr
	}
	return m.incidents, nil
}
func (m *mockIncidentServiceForHandler) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.deleteErr
}
func (m *mockIncidentServiceForHandler) Restore(ctx context.Context, id uuid.UUID) error {
	return m.restoreErr
}
func (m *mockIncidentServiceForHandler) Purge(ctx context.Context, id uuid.UUID) error {
	return m.purgeErr
}
func (m *mockIncidentServiceForHandler) SearchSimilar(ctx context.Context, query string, limit int) ([]repositories.SimilarIncident, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.matches, nil
}

var _ services.IncidentService = (*mockIncidentServiceForHandler)(nil)

// mockSlaServiceForHandler implements services.SlaService for handler tests.
type mockSlaServiceForHandler struct {
	status    *models.SlaStatus
	defs      []*models.SlaDefinition
	def       *models.SlaDefinition
	upsertErr error
}

func (m *mockSlaServiceForHandler) ComputeStatus(ctx context.Context, inc *models.Incident) (*models.SlaStatus, error) {
	return m.status, nil
}
func (m *mockSlaServiceForHandler) ListDefinitions(ctx context.Context) ([]*models.SlaDefinition, error) {
	return m.defs, nil
}
func (m *mockSlaServiceForHandler) UpsertDefinition(ctx context.Context, priority models.Priority, responseMins, resolutionMins int) (*models.SlaDefinition, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	return m.def, nil
}

var _ services.SlaService = (*mockSlaServiceForHandler)(nil)

// mockQuarterServiceForHandler implements services.QuarterService for handler
// tests.
type mockQuarterServiceForHandler struct {
	quarter   *models.QuarterConfig
	quarters  []*models.QuarterConfig
	createErr error
	getErr    error
	override  *models.QuarterOverride
	overrides []*models.QuarterOverride
	upsertErr error
	deleteErr error
}

func (m *mockQuarterServiceForHandler) CreateQuarter(ctx context.Context, q *models.QuarterConfig) (*models.QuarterConfig, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.quarter, nil
}
func (m *mockQuarterServiceForHandler) GetQuarter(ctx context.Context, id uuid.UUID) (*models.QuarterConfig, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.quarter, nil
}
func (m *mockQuarterServiceForHandler) ListQuarters(ctx context.Context) ([]*models.QuarterConfig, error) {
	return m.quarters, nil
}
func (m *mockQuarterServiceForHandler) UpsertOverride(ctx context.Context, o *models.QuarterOverride) (*models.QuarterOverride, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	return m.override, nil
}
func (m *mockQuarterServiceForHandler) ListOverrides(ctx context.Context, quarterID uuid.UUID) ([]*models.QuarterOverride, error) {
	return m.overrides, nil
}
func (m *mockQuarterServiceForHandler) DeleteOverride(ctx context.Context, quarterID uuid.UUID, ruleKey string, incidentID uuid.UUID) error {
	return m.deleteErr
}

var _ services.QuarterService = (*mockQuarterServiceForHandler)(nil)

// mockReadinessServiceForHandler implements services.ReadinessService for
// handler tests.
type mockReadinessServiceForHandler struct {
	report *models.QuarterReadinessReport
	err    error
}

func (m *mockReadinessServiceForHandler) ComputeReadiness(ctx context.Context, quarterID uuid.UUID) (*models.QuarterReadinessReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

var _ services.ReadinessService = (*mockReadinessServiceForHandler)(nil)

// mockFinalizationServiceForHandler implements services.FinalizationService
// for handler tests.
type mockFinalizationServiceForHandler struct {
	finalization  *models.QuarterFinalization
	finalizeErr   error
	status        *models.FinalizationStatus
	statusErr     error
	unfinalizeErr error
	snapshot      *models.QuarterSnapshot
	snapshotErr   error
	metrics       *models.QuarterMetrics
	metricsErr    error
}

func (m *mockFinalizationServiceForHandler) FinalizeQuarter(ctx context.Context, quarterID uuid.UUID, finalizedBy, notes string) (*models.QuarterFinalization, error) {
	if m.finalizeErr != nil {
		return nil, m.finalizeErr
	}
	return m.finalization, nil
}
func (m *mockFinalizationServiceForHandler) GetFinalizationStatus(ctx context.Context, quarterID uuid.UUID) (*models.FinalizationStatus, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return m.status, nil
}
func (m *mockFinalizationServiceForHandler) UnfinalizeQuarter(ctx context.Context, quarterID uuid.UUID) error {
	return m.unfinalizeErr
}
func (m *mockFinalizationServiceForHandler) GetSnapshot(ctx context.Context, quarterID uuid.UUID) (*models.QuarterSnapshot, error) {
	if m.snapshotErr != nil {
		return nil, m.snapshotErr
	}
	return m.snapshot, nil
}
func (m *mockFinalizationServiceForHandler) ComputeMetrics(ctx context.Context, quarterID uuid.UUID) (*models.QuarterMetrics, error) {
	if m.metricsErr != nil {
		return nil, m.metricsErr
	}
	return m.metrics, nil
}
func (m *mockFinalizationServiceForHandler) RangeMetrics(ctx context.Context, from, to time.Time) (*models.QuarterMetrics, error) {
	if m.metricsErr != nil {
		return nil, m.metricsErr
	}
	return m.metrics, nil
}

var _ services.FinalizationService = (*mockFinalizationServiceForHandler)(nil)

// mockEnrichmentServiceForHandler implements services.EnrichmentService for
// handler tests.
type mockEnrichmentServiceForHandler struct {
	job          *models.EnrichmentJob
	runErr       error
	provenance   *models.FieldProvenance
	acceptErr    error
	getErr       error
	jobs         []*models.EnrichmentJob
	entries      []*models.FieldProvenance
	availability llm.Availability
}

func (m *mockEnrichmentServiceForHandler) RunJob(ctx context.Context, jobType models.JobType, incidentID uuid.UUID) (*models.EnrichmentJob, error) {
	if m.runErr != nil {
		return nil, m.runErr
	}
	return m.job, nil
}
func (m *mockEnrichmentServiceForHandler) AcceptJob(ctx context.Context, jobID uuid.UUID) (*models.FieldProvenance, error) {
	if m.acceptErr != nil {
		return nil, m.acceptErr
	}
	return m.provenance, nil
}
func (m *mockEnrichmentServiceForHandler) GetJob(ctx context.Context, jobID uuid.UUID) (*models.EnrichmentJob, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.job, nil
}
func (m *mockEnrichmentServiceForHandler) ListJobs(ctx context.Context, incidentID uuid.UUID) ([]*models.EnrichmentJob, error) {
	return m.jobs, nil
}
func (m *mockEnrichmentServiceForHandler) ListProvenance(ctx context.Context, incidentID uuid.UUID) ([]*models.FieldProvenance, error) {
	return m.entries, nil
}
func (m *mockEnrichmentServiceForHandler) Availability() llm.Availability {
	return m.availability
}

var _ services.EnrichmentService = (*mockEnrichmentServiceForHandler)(nil)
