//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/saagar210/IncidentManagement-sub000/pkg/apperrors"
	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
	"github.com/saagar210/IncidentManagement-sub000/pkg/testhelpers"
)

type enrichmentTestContext struct {
	t        *testing.T
	engineDB *testhelpers.EngineDB
	repo     EnrichmentRepository
}

func setupEnrichmentTest(t *testing.T) *enrichmentTestContext {
	engineDB := testhelpers.GetEngineDB(t)
	return &enrichmentTestContext{
		t:        t,
		engineDB: engineDB,
		repo:     NewEnrichmentRepository(engineDB.DB),
	}
}

func (tc *enrichmentTestContext) cleanup() {
	tc.t.Helper()
	ctx := context.Background()

	tables := []string{
		"field_provenance",
		"contributing_factors",
		"stakeholder_updates",
		"postmortems",
		"incident_enrichments",
		"enrichment_jobs",
		"incidents",
	}
	for _, table := range tables {
		if _, err := tc.engineDB.DB.Exec(ctx, "DELETE FROM "+table); err != nil {
			tc.t.Fatalf("failed to clean %s: %v", table, err)
		}
	}
}

// createTestIncidentRow inserts an incident the enrichment rows can hang off.
func (tc *enrichmentTestContext) createTestIncidentRow(ctx context.Context) uuid.UUID {
	tc.t.Helper()
	incidents := NewIncidentRepository(tc.engineDB.DB)
	started := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	inc := &models.Incident{
		Title:       "Enrichment target",
		ServiceName: "payments",
		Severity:    models.SeverityHigh,
		Impact:      models.ImpactMedium,
		Status:      models.StatusResolved,
		StartedAt:   started,
		DetectedAt:  started.Add(3 * time.Minute),
	}
	resolved := started.Add(time.Hour)
	inc.ResolvedAt = &resolved
	if err := incidents.Create(ctx, inc); err != nil {
		tc.t.Fatalf("failed to create test incident: %v", err)
	}
	return inc.ID
}

func (tc *enrichmentTestContext) createRunningJob(ctx context.Context, incidentID uuid.UUID) *models.EnrichmentJob {
	tc.t.Helper()
	job := &models.EnrichmentJob{
		JobType:       models.JobExecutiveSummary,
		EntityType:    models.EntityTypeIncident,
		EntityID:      incidentID,
		Status:        models.JobRunning,
		InputHash:     "feed",
		ModelID:       "test-model",
		PromptVersion: "v1",
	}
	if err := tc.repo.CreateJob(ctx, job); err != nil {
		tc.t.Fatalf("failed to create test job: %v", err)
	}
	return job
}

// ============================================================================
// Job Tests
// ============================================================================

func TestEnrichmentRepository_CreateJob_Success(t *testing.T) {
	tc := setupEnrichmentTest(t)
	tc.cleanup()
	ctx := context.Background()

	incidentID := tc.createTestIncidentRow(ctx)
	job := tc.createRunningJob(ctx, incidentID)

	if job.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}

	retrieved, err := tc.repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if retrieved.Status != models.JobRunning {
		t.Errorf("expected status 'running', got %q", retrieved.Status)
	}
	if retrieved.InputHash != "feed" {
		t.Errorf("expected input_hash 'feed', got %q", retrieved.InputHash)
	}
	if retrieved.CompletedAt != nil {
		t.Error("expected nil completed_at for running job")
	}
}

func TestEnrichmentRepository_GetJob_NotFound(t *testing.T) {
	tc := setupEnrichmentTest(t)
	tc.cleanup()

	_, err := tc.repo.GetJob(context.Background(), uuid.New())
	if err != apperrors.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEnrichmentRepository_CompleteJob_OneWay(t *testing.T) {
	tc := setupEnrichmentTest(t)
	tc.cleanup()
	ctx := context.Background()

	incidentID := tc.createTestIncidentRow(ctx)
	job := tc.createRunningJob(ctx, incidentID)

	output := []byte(`{"summary":"resolved after failover"}`)
	if err := tc.repo.CompleteJob(ctx, job.ID, models.JobSucceeded, output, ""); err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}

	retrieved, err := tc.repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if retrieved.Status != models.JobSucceeded {
		t.Errorf("expected status 'succeeded', got %q", retrieved.Status)
	}
	if retrieved.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
	if string(retrieved.OutputJSON) != string(output) {
		t.Errorf("expected output preserved, got %s", retrieved.OutputJSON)
	}

	// A terminal job cannot be completed again, in either direction.
	err = tc.repo.CompleteJob(ctx, job.ID, models.JobFailed, nil, "late failure")
	if err != apperrors.ErrConflict {
		t.Errorf("expected ErrConflict on second completion, got %v", err)
	}

	unchanged, err := tc.repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if unchanged.Status != models.JobSucceeded {
		t.Errorf("expected status to stay 'succeeded', got %q", unchanged.Status)
	}
}

func TestEnrichmentRepository_CompleteJob_NotFound(t *testing.T) {
	tc := setupEnrichmentTest(t)
	tc.cleanup()

	err := tc.repo.CompleteJob(context.Background(), uuid.New(), models.JobSucceeded, nil, "")
	if err != apperrors.ErrConflict {
		t.Errorf("expected ErrConflict for missing job, got %v", err)
	}
}

func TestEnrichmentRepository_ListJobsForEntity(t *testing.T) {
	tc := setupEnrichmentTest(t)
	tc.cleanup()
	ctx := context.Background()

	incidentID := tc.createTestIncidentRow(ctx)
	tc.createRunningJob(ctx, incidentID)
	tc.createRunningJob(ctx, incidentID)

	jobs, err := tc.repo.ListJobsForEntity(ctx, models.EntityTypeIncident, incidentID)
	if err != nil {
		t.Fatalf("ListJobsForEntity failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(jobs))
	}

	other, err := tc.repo.ListJobsForEntity(ctx, models.EntityTypeIncident, uuid.New())
	if err != nil {
		t.Fatalf("ListJobsForEntity failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no jobs for unrelated entity, got %d", len(other))
	}
}

// ============================================================================
// Provenance Tests
// ============================================================================

func TestEnrichmentRepository_Provenance_AppendOnly(t *testing.T) {
	tc := setupEnrichmentTest(t)
	tc.cleanup()
	ctx := context.Background()

	incidentID := tc.createTestIncidentRow(ctx)
	job := tc.createRunningJob(ctx, incidentID)

	first := &models.FieldProvenance{
		EntityType: models.EntityTypeIncident,
		EntityID:   incidentID,
		FieldName:  "executive_summary",
		SourceType: models.SourceAI,
		JobID:      &job.ID,
		InputHash:  "feed",
		ModelID:    "test-model",
	}
	if err := tc.repo.AppendProvenance(ctx, first); err != nil {
		t.Fatalf("AppendProvenance failed: %v", err)
	}

	// Re-accepting the same field appends a second row, never overwrites.
	second := &models.FieldProvenance{
		EntityType: models.EntityTypeIncident,
		EntityID:   incidentID,
		FieldName:  "executive_summary",
		SourceType: models.SourceAI,
		JobID:      &job.ID,
		InputHash:  "feed",
		ModelID:    "test-model",
	}
	if err := tc.repo.AppendProvenance(ctx, second); err != nil {
		t.Fatalf("second AppendProvenance failed: %v", err)
	}

	entries, err := tc.repo.ListProvenance(ctx, models.EntityTypeIncident, incidentID)
	if err != nil {
		t.Fatalf("ListProvenance failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(entries))
	}
	if entries[0].FieldName != "executive_summary" {
		t.Errorf("expected field 'executive_summary', got %q", entries[0].FieldName)
	}
	if entries[0].JobID == nil || *entries[0].JobID != job.ID {
		t.Errorf("expected job reference %v, got %v", job.ID, entries[0].JobID)
	}
}

// ============================================================================
// Accepted content Tests
// ============================================================================

func TestEnrichmentRepository_UpsertExecutiveSummary(t *testing.T) {
	tc := setupEnrichmentTest(t)
	tc.cleanup()
	ctx := context.Background()

	incidentID := tc.createTestIncidentRow(ctx)

	if err := tc.repo.UpsertExecutiveSummary(ctx, incidentID, "first draft"); err != nil {
		t.Fatalf("UpsertExecutiveSummary failed: %v", err)
	}
	if err := tc.repo.UpsertExecutiveSummary(ctx, incidentID, "second draft"); err != nil {
		t.Fatalf("second UpsertExecutiveSummary failed: %v", err)
	}

	var summary string
	var count int
	err := tc.engineDB.DB.QueryRow(ctx,
		`SELECT executive_summary, (SELECT COUNT(*) FROM incident_enrichments WHERE incident_id = $1)
		 FROM incident_enrichments WHERE incident_id = $1`, incidentID,
	).Scan(&summary, &count)
	if err != nil {
		t.Fatalf("failed to read incident_enrichments: %v", err)
	}
	if summary != "second draft" {
		t.Errorf("expected summary 'second draft', got %q", summary)
	}
	if count != 1 {
		t.Errorf("expected a single enrichment row, got %d", count)
	}
}

func TestEnrichmentRepository_MergePostmortem_KeepsExistingSections(t *testing.T) {
	tc := setupEnrichmentTest(t)
	tc.cleanup()
	ctx := context.Background()

	incidentID := tc.createTestIncidentRow(ctx)

	full := &models.PostmortemDraftOutput{
		Summary:         "initial summary",
		Timeline:        "08:00 start, 09:00 resolved",
		ImpactNarrative: "checkout errors for an hour",
		LessonsLearned:  "add disk alerts",
	}
	if err := tc.repo.MergePostmortem(ctx, incidentID, full); err != nil {
		t.Fatalf("MergePostmortem failed: %v", err)
	}

	// A partial draft overwrites only the sections it carries.
	partial := &models.PostmortemDraftOutput{
		Summary: "revised summary",
	}
	if err := tc.repo.MergePostmortem(ctx, incidentID, partial); err != nil {
		t.Fatalf("second MergePostmortem failed: %v", err)
	}

	var summary, timeline, lessons string
	err := tc.engineDB.DB.QueryRow(ctx,
		`SELECT summary, timeline, lessons_learned FROM postmortems WHERE incident_id = $1`,
		incidentID,
	).Scan(&summary, &timeline, &lessons)
	if err != nil {
		t.Fatalf("failed to read postmortems: %v", err)
	}
	if summary != "revised summary" {
		t.Errorf("expected summary 'revised summary', got %q", summary)
	}
	if timeline != "08:00 start, 09:00 resolved" {
		t.Errorf("expected timeline preserved, got %q", timeline)
	}
	if lessons != "add disk alerts" {
		t.Errorf("expected lessons preserved, got %q", lessons)
	}
}

func TestEnrichmentRepository_InsertStakeholderUpdateAndFactors(t *testing.T) {
	tc := setupEnrichmentTest(t)
	tc.cleanup()
	ctx := context.Background()

	incidentID := tc.createTestIncidentRow(ctx)

	u := &models.StakeholderUpdate{
		IncidentID: incidentID,
		Audience:   "executives",
		Content:    "service restored, monitoring for recurrence",
	}
	if err := tc.repo.InsertStakeholderUpdate(ctx, u); err != nil {
		t.Fatalf("InsertStakeholderUpdate failed: %v", err)
	}
	if u.ID == uuid.Nil {
		t.Error("expected update ID to be set")
	}

	factors := []models.ContributingFactorOutput{
		{Category: "capacity", Description: "root cause mentions \"disk\""},
		{Category: "configuration", Description: "root cause mentions \"flag\""},
	}
	if err := tc.repo.InsertContributingFactors(ctx, incidentID, models.SourceComputed, factors); err != nil {
		t.Fatalf("InsertContributingFactors failed: %v", err)
	}

	var factorCount int
	err := tc.engineDB.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM contributing_factors WHERE incident_id = $1 AND source = 'computed'`,
		incidentID,
	).Scan(&factorCount)
	if err != nil {
		t.Fatalf("failed to count contributing_factors: %v", err)
	}
	if factorCount != 2 {
		t.Errorf("expected 2 computed factors, got %d", factorCount)
	}
}
