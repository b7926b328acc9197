package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saagar210/IncidentManagement-sub000/pkg/apperrors"
	"github.com/saagar210/IncidentManagement-sub000/pkg/llm"
	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
	"github.com/saagar210/IncidentManagement-sub000/pkg/repositories"
)

// ============================================================================
// Shared Mock Implementations for Service Tests
// ============================================================================

// fakeTx runs transaction bodies inline. Serializable calls are counted so
// tests can assert the finalize path uses one.
type fakeTx struct {
	txCalls           int
	serializableCalls int
	err               error
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txCalls++
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

func (f *fakeTx) WithSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.serializableCalls++
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

// stubAvailability satisfies AvailabilityProvider with a fixed snapshot.
type stubAvailability struct {
	available bool
}

func (s *stubAvailability) Current() llm.Availability {
	return llm.Availability{Available: s.available, Model: "mock-model", CheckedAt: time.Now()}
}

// ----------------------------------------------------------------------------
// Incident repository
// ----------------------------------------------------------------------------

type mockIncidentRepo struct {
	incidents map[uuid.UUID]*models.Incident
	createErr error
	updateErr error
	listErr   error
}

func newMockIncidentRepo() *mockIncidentRepo {
	return &mockIncidentRepo{incidents: make(map[uuid.UUID]*models.Incident)}
}

func (m *mockIncidentRepo) add(inc *models.Incident) *models.Incident {
	if inc.ID == uuid.Nil {
		inc.ID = uuid.New()
	}
	m.incidents[inc.ID] = inc
	return inc
}

func (m *mockIncidentRepo) Create(ctx context.Context, inc *models.Incident) error {
	if m.createErr != nil {
		return m.createErr
	}
	inc.ID = uuid.New()
	inc.CreatedAt = time.Now()
	m.incidents[inc.ID] = inc
	return nil
}

func (m *mockIncidentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	inc, ok := m.incidents[id]
	if !ok || inc.DeletedAt != nil {
		return nil, apperrors.ErrNotFound
	}
	clone := *inc
	return &clone, nil
}

func (m *mockIncidentRepo) Update(ctx context.Context, inc *models.Incident) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.incidents[inc.ID]; !ok {
		return apperrors.ErrNotFound
	}
	clone := *inc
	m.incidents[inc.ID] = &clone
	return nil
}

func (m *mockIncidentRepo) List(ctx context.Context, filter repositories.IncidentFilter) ([]*models.Incident, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Incident
	for _, inc := range m.incidents {
		if inc.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.Status != "" && inc.Status != filter.Status {
			continue
		}
		out = append(out, inc)
	}
	sortIncidents(out)
	return out, nil
}

func (m *mockIncidentRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]*models.Incident, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Incident
	for _, inc := range m.incidents {
		if inc.DeletedAt != nil {
			continue
		}
		if inc.StartedAt.Before(from) || inc.StartedAt.After(to) {
			continue
		}
		out = append(out, inc)
	}
	sortIncidents(out)
	return out, nil
}

func (m *mockIncidentRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	inc, ok := m.incidents[id]
	if !ok || inc.DeletedAt != nil {
		return apperrors.ErrNotFound
	}
	now := time.Now()
	inc.DeletedAt = &now
	return nil
}

func (m *mockIncidentRepo) Restore(ctx context.Context, id uuid.UUID) error {
	inc, ok := m.incidents[id]
	if !ok || inc.DeletedAt == nil {
		return apperrors.ErrNotFound
	}
	inc.DeletedAt = nil
	return nil
}

func (m *mockIncidentRepo) Purge(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.incidents[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.incidents, id)
	return nil
}

func (m *mockIncidentRepo) SearchSimilar(ctx context.Context, query string, limit int) ([]repositories.SimilarIncident, error) {
	var out []repositories.SimilarIncident
	for _, inc := range m.incidents {
		if strings.Contains(strings.ToLower(inc.Title), strings.ToLower(query)) {
			out = append(out, repositories.SimilarIncident{Incident: inc, Rank: 1})
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortIncidents(incidents []*models.Incident) {
	sort.Slice(incidents, func(i, j int) bool {
		return incidents[i].ID.String() < incidents[j].ID.String()
	})
}

var _ repositories.IncidentRepository = (*mockIncidentRepo)(nil)

// ----------------------------------------------------------------------------
// SLA repository
// ----------------------------------------------------------------------------

type mockSlaRepo struct {
	defs   map[models.Priority]*models.SlaDefinition
	getErr error
}

func newMockSlaRepo() *mockSlaRepo {
	return &mockSlaRepo{defs: make(map[models.Priority]*models.SlaDefinition)}
}

func (m *mockSlaRepo) GetActiveByPriority(ctx context.Context, priority models.Priority) (*models.SlaDefinition, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.defs[priority], nil
}

func (m *mockSlaRepo) List(ctx context.Context) ([]*models.SlaDefinition, error) {
	var out []*models.SlaDefinition
	for _, def := range m.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (m *mockSlaRepo) UpsertDefinition(ctx context.Context, def *models.SlaDefinition) error {
	prev := m.defs[def.Priority]
	def.ID = uuid.New()
	def.Version = 1
	if prev != nil {
		def.Version = prev.Version + 1
		prev.Active = false
	}
	def.Active = true
	def.CreatedAt = time.Now()
	m.defs[def.Priority] = def
	return nil
}

var _ repositories.SlaRepository = (*mockSlaRepo)(nil)

// ----------------------------------------------------------------------------
// Quarter repository
// ----------------------------------------------------------------------------

type overrideKey struct {
	quarterID  uuid.UUID
	ruleKey    string
	incidentID uuid.UUID
}

type mockQuarterRepo struct {
	quarters      map[uuid.UUID]*models.QuarterConfig
	overrides     map[overrideKey]*models.QuarterOverride
	snapshots     map[uuid.UUID]*models.QuarterSnapshot
	finalizations map[uuid.UUID]*models.QuarterFinalization
}

func newMockQuarterRepo() *mockQuarterRepo {
	return &mockQuarterRepo{
		quarters:      make(map[uuid.UUID]*models.QuarterConfig),
		overrides:     make(map[overrideKey]*models.QuarterOverride),
		snapshots:     make(map[uuid.UUID]*models.QuarterSnapshot),
		finalizations: make(map[uuid.UUID]*models.QuarterFinalization),
	}
}

func (m *mockQuarterRepo) addQuarter(q *models.QuarterConfig) *models.QuarterConfig {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	m.quarters[q.ID] = q
	return q
}

func (m *mockQuarterRepo) CreateQuarter(ctx context.Context, q *models.QuarterConfig) error {
	for _, existing := range m.quarters {
		if existing.FiscalYear == q.FiscalYear && existing.QuarterNumber == q.QuarterNumber {
			return apperrors.ErrConflict
		}
	}
	q.ID = uuid.New()
	q.CreatedAt = time.Now()
	m.quarters[q.ID] = q
	return nil
}

func (m *mockQuarterRepo) GetQuarter(ctx context.Context, id uuid.UUID) (*models.QuarterConfig, error) {
	q, ok := m.quarters[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return q, nil
}

func (m *mockQuarterRepo) ListQuarters(ctx context.Context) ([]*models.QuarterConfig, error) {
	var out []*models.QuarterConfig
	for _, q := range m.quarters {
		out = append(out, q)
	}
	return out, nil
}

func (m *mockQuarterRepo) UpsertOverride(ctx context.Context, o *models.QuarterOverride) error {
	key := overrideKey{o.QuarterID, o.RuleKey, o.IncidentID}
	if existing, ok := m.overrides[key]; ok {
		existing.Reason = o.Reason
		existing.ApprovedBy = o.ApprovedBy
		existing.UpdatedAt = time.Now()
		*o = *existing
		return nil
	}
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	m.overrides[key] = o
	return nil
}

func (m *mockQuarterRepo) ListOverrides(ctx context.Context, quarterID uuid.UUID) ([]*models.QuarterOverride, error) {
	var out []*models.QuarterOverride
	for key, o := range m.overrides {
		if key.quarterID == quarterID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockQuarterRepo) DeleteOverride(ctx context.Context, quarterID uuid.UUID, ruleKey string, incidentID uuid.UUID) error {
	key := overrideKey{quarterID, ruleKey, incidentID}
	if _, ok := m.overrides[key]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.overrides, key)
	return nil
}

func (m *mockQuarterRepo) UpsertSnapshot(ctx context.Context, s *models.QuarterSnapshot) error {
	if existing, ok := m.snapshots[s.QuarterID]; ok {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
	} else {
		s.ID = uuid.New()
		s.CreatedAt = time.Now()
	}
	s.UpdatedAt = time.Now()
	clone := *s
	m.snapshots[s.QuarterID] = &clone
	return nil
}

func (m *mockQuarterRepo) GetSnapshot(ctx context.Context, quarterID uuid.UUID) (*models.QuarterSnapshot, error) {
	s, ok := m.snapshots[quarterID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return s, nil
}

func (m *mockQuarterRepo) UpsertFinalization(ctx context.Context, f *models.QuarterFinalization) error {
	if existing, ok := m.finalizations[f.QuarterID]; ok {
		f.ID = existing.ID
	} else {
		f.ID = uuid.New()
	}
	f.FinalizedAt = time.Now()
	clone := *f
	m.finalizations[f.QuarterID] = &clone
	return nil
}

func (m *mockQuarterRepo) GetFinalization(ctx context.Context, quarterID uuid.UUID) (*models.QuarterFinalization, error) {
	f, ok := m.finalizations[quarterID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return f, nil
}

func (m *mockQuarterRepo) DeleteFinalization(ctx context.Context, quarterID uuid.UUID) error {
	if _, ok := m.finalizations[quarterID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.finalizations, quarterID)
	return nil
}

var _ repositories.QuarterRepository = (*mockQuarterRepo)(nil)

// ----------------------------------------------------------------------------
// Enrichment repository
// ----------------------------------------------------------------------------

type mockEnrichmentRepo struct {
	jobs       map[uuid.UUID]*models.EnrichmentJob
	provenance []*models.FieldProvenance
	summaries  map[uuid.UUID]string
	updates    []*models.StakeholderUpdate
	postmortem map[uuid.UUID]*models.PostmortemDraftOutput
	factors    map[uuid.UUID][]models.ContributingFactorOutput
}

func newMockEnrichmentRepo() *mockEnrichmentRepo {
	return &mockEnrichmentRepo{
		jobs:       make(map[uuid.UUID]*models.EnrichmentJob),
		summaries:  make(map[uuid.UUID]string),
		postmortem: make(map[uuid.UUID]*models.PostmortemDraftOutput),
		factors:    make(map[uuid.UUID][]models.ContributingFactorOutput),
	}
}

func (m *mockEnrichmentRepo) CreateJob(ctx context.Context, job *models.EnrichmentJob) error {
	job.ID = uuid.New()
	job.CreatedAt = time.Now()
	clone := *job
	m.jobs[job.ID] = &clone
	return nil
}

func (m *mockEnrichmentRepo) CompleteJob(ctx context.Context, jobID uuid.UUID, status models.JobStatus, outputJSON []byte, jobErr string) error {
	job, ok := m.jobs[jobID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if job.Status != models.JobRunning {
		return apperrors.ErrConflict
	}
	now := time.Now()
	job.Status = status
	job.OutputJSON = outputJSON
	job.Error = jobErr
	job.CompletedAt = &now
	return nil
}

func (m *mockEnrichmentRepo) GetJob(ctx context.Context, jobID uuid.UUID) (*models.EnrichmentJob, error) {
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *job
	return &clone, nil
}

func (m *mockEnrichmentRepo) ListJobsForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.EnrichmentJob, error) {
	var out []*models.EnrichmentJob
	for _, job := range m.jobs {
		if job.EntityType == entityType && job.EntityID == entityID {
			out = append(out, job)
		}
	}
	return out, nil
}

func (m *mockEnrichmentRepo) AppendProvenance(ctx context.Context, p *models.FieldProvenance) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	clone := *p
	m.provenance = append(m.provenance, &clone)
	return nil
}

func (m *mockEnrichmentRepo) ListProvenance(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.FieldProvenance, error) {
	var out []*models.FieldProvenance
	for _, p := range m.provenance {
		if p.EntityType == entityType && p.EntityID == entityID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockEnrichmentRepo) UpsertExecutiveSummary(ctx context.Context, incidentID uuid.UUID, summary string) error {
	m.summaries[incidentID] = summary
	return nil
}

func (m *mockEnrichmentRepo) InsertStakeholderUpdate(ctx context.Context, u *models.StakeholderUpdate) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	m.updates = append(m.updates, u)
	return nil
}

func (m *mockEnrichmentRepo) MergePostmortem(ctx context.Context, incidentID uuid.UUID, draft *models.PostmortemDraftOutput) error {
	existing, ok := m.postmortem[incidentID]
	if !ok {
		clone := *draft
		m.postmortem[incidentID] = &clone
		return nil
	}
	if draft.Summary != "" {
		existing.Summary = draft.Summary
	}
	if draft.Timeline != "" {
		existing.Timeline = draft.Timeline
	}
	if draft.ImpactNarrative != "" {
		existing.ImpactNarrative = draft.ImpactNarrative
	}
	if draft.LessonsLearned != "" {
		existing.LessonsLearned = draft.LessonsLearned
	}
	return nil
}

func (m *mockEnrichmentRepo) InsertContributingFactors(ctx context.Context, incidentID uuid.UUID, source models.SourceType, factors []models.ContributingFactorOutput) error {
	m.factors[incidentID] = append(m.factors[incidentID], factors...)
	return nil
}

var _ repositories.EnrichmentRepository = (*mockEnrichmentRepo)(nil)
