package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saagar210/IncidentManagement-sub000/pkg/apperrors"
	"github.com/saagar210/IncidentManagement-sub000/pkg/database"
	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
)

// EnrichmentRepository provides data access for enrichment jobs, the
// provenance ledger, and the domain tables the accept protocol writes into.
type EnrichmentRepository interface {
	CreateJob(ctx context.Context, job *models.EnrichmentJob) error
	// CompleteJob applies the one-way running -> terminal transition.
	// A second completion attempt finds no running row and conflicts.
	CompleteJob(ctx context.Context, jobID uuid.UUID, status models.JobStatus, outputJSON []byte, jobErr string) error
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.EnrichmentJob, error)
	ListJobsForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.EnrichmentJob, error)

	AppendProvenance(ctx context.Context, p *models.FieldProvenance) error
	ListProvenance(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.FieldProvenance, error)

	UpsertExecutiveSummary(ctx context.Context, incidentID uuid.UUID, summary string) error
	InsertStakeholderUpdate(ctx context.Context, u *models.StakeholderUpdate) error
	MergePostmortem(ctx context.Context, incidentID uuid.UUID, draft *models.PostmortemDraftOutput) error
	InsertContributingFactors(ctx context.Context, incidentID uuid.UUID, source models.SourceType, factors []models.ContributingFactorOutput) error
}

type enrichmentRepository struct {
	db *database.DB
}

// NewEnrichmentRepository creates a new EnrichmentRepository.
func NewEnrichmentRepository(db *database.DB) EnrichmentRepository {
	return &enrichmentRepository{db: db}
}

var _ EnrichmentRepository = (*enrichmentRepository)(nil)

// ============================================================================
// Jobs
// ============================================================================

func (r *enrichmentRepository) CreateJob(ctx context.Context, job *models.EnrichmentJob) error {
	query := `
		INSERT INTO enrichment_jobs (job_type, entity_type, entity_id, status, input_hash, model_id, prompt_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.Runner(ctx).QueryRow(ctx, query,
		job.JobType,
		job.EntityType,
		job.EntityID,
		job.Status,
		job.InputHash,
		job.ModelID,
		job.PromptVersion,
	).Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create enrichment job: %w", err)
	}

	return nil
}

func (r *enrichmentRepository) CompleteJob(ctx context.Context, jobID uuid.UUID, status models.JobStatus, outputJSON []byte, jobErr string) error {
	query := `
		UPDATE enrichment_jobs
		SET status = $2, output_json = $3, error = $4, completed_at = now()
		WHERE id = $1 AND status = 'running'
		RETURNING completed_at`

	var completedAt any
	err := r.db.Runner(ctx).QueryRow(ctx, query, jobID, status, outputJSON, jobErr).Scan(&completedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the job does not exist or it already completed.
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to complete enrichment job: %w", err)
	}

	return nil
}

func (r *enrichmentRepository) GetJob(ctx context.Context, jobID uuid.UUID) (*models.EnrichmentJob, error) {
	query := `
		SELECT id, job_type, entity_type, entity_id, status, input_hash,
		       output_json, model_id, prompt_version, error, created_at, completed_at
		FROM enrichment_jobs
		WHERE id = $1`

	job, err := scanEnrichmentJob(r.db.Runner(ctx).QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *enrichmentRepository) ListJobsForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.EnrichmentJob, error) {
	query := `
		SELECT id, job_type, entity_type, entity_id, status, input_hash,
		       output_json, model_id, prompt_version, error, created_at, completed_at
		FROM enrichment_jobs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC`

	rows, err := r.db.Runner(ctx).Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrichment jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.EnrichmentJob
	for rows.Next() {
		job, err := scanEnrichmentJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrichment jobs: %w", err)
	}

	return jobs, nil
}

func scanEnrichmentJob(row pgx.Row) (*models.EnrichmentJob, error) {
	job := &models.EnrichmentJob{}
	err := row.Scan(
		&job.ID,
		&job.JobType,
		&job.EntityType,
		&job.EntityID,
		&job.Status,
		&job.InputHash,
		&job.OutputJSON,
		&job.ModelID,
		&job.PromptVersion,
		&job.Error,
		&job.CreatedAt,
		&job.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan enrichment job: %w", err)
	}
	return job, nil
}

// ============================================================================
// Provenance ledger (pure append)
// ============================================================================

func (r *enrichmentRepository) AppendProvenance(ctx context.Context, p *models.FieldProvenance) error {
	query := `
		INSERT INTO field_provenance (entity_type, entity_id, field_name, source_type, job_id, input_hash, model_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.Runner(ctx).QueryRow(ctx, query,
		p.EntityType,
		p.EntityID,
		p.FieldName,
		p.SourceType,
		p.JobID,
		p.InputHash,
		p.ModelID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append provenance: %w", err)
	}

	return nil
}

func (r *enrichmentRepository) ListProvenance(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.FieldProvenance, error) {
	query := `
		SELECT id, entity_type, entity_id, field_name, source_type, job_id, input_hash, model_id, created_at
		FROM field_provenance
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC`

	rows, err := r.db.Runner(ctx).Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query provenance: %w", err)
	}
	defer rows.Close()

	var entries []*models.FieldProvenance
	for rows.Next() {
		p := &models.FieldProvenance{}
		if err := rows.Scan(
			&p.ID,
			&p.EntityType,
			&p.EntityID,
			&p.FieldName,
			&p.SourceType,
			&p.JobID,
			&p.InputHash,
			&p.ModelID,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan provenance: %w", err)
		}
		entries = append(entries, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provenance: %w", err)
	}

	return entries, nil
}

// ============================================================================
// Accepted content
// ============================================================================

func (r *enrichmentRepository) UpsertExecutiveSummary(ctx context.Context, incidentID uuid.UUID, summary string) error {
	query := `
		INSERT INTO incident_enrichments (incident_id, executive_summary)
		VALUES ($1, $2)
		ON CONFLICT (incident_id)
		DO UPDATE SET executive_summary = EXCLUDED.executive_summary, updated_at = now()`

	if _, err := r.db.Runner(ctx).Exec(ctx, query, incidentID, summary); err != nil {
		return fmt.Errorf("failed to upsert executive summary: %w", err)
	}
	return nil
}

func (r *enrichmentRepository) InsertStakeholderUpdate(ctx context.Context, u *models.StakeholderUpdate) error {
	query := `
		INSERT INTO stakeholder_updates (incident_id, audience, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.Runner(ctx).QueryRow(ctx, query, u.IncidentID, u.Audience, u.Content).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert stakeholder update: %w", err)
	}
	return nil
}

// MergePostmortem writes non-empty draft sections over the existing row,
// leaving sections the draft omits untouched.
func (r *enrichmentRepository) MergePostmortem(ctx context.Context, incidentID uuid.UUID, draft *models.PostmortemDraftOutput) error {
	query := `
		INSERT INTO postmortems (incident_id, summary, timeline, impact_narrative, lessons_learned)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (incident_id)
		DO UPDATE SET
			summary = CASE WHEN EXCLUDED.summary <> '' THEN EXCLUDED.summary ELSE postmortems.summary END,
			timeline = CASE WHEN EXCLUDED.timeline <> '' THEN EXCLUDED.timeline ELSE postmortems.timeline END,
			impact_narrative = CASE WHEN EXCLUDED.impact_narrative <> '' THEN EXCLUDED.impact_narrative ELSE postmortems.impact_narrative END,
			lessons_learned = CASE WHEN EXCLUDED.lessons_learned <> '' THEN EXCLUDED.lessons_learned ELSE postmortems.lessons_learned END,
			updated_at = now()`

	if _, err := r.db.Runner(ctx).Exec(ctx, query,
		incidentID,
		draft.Summary,
		draft.Timeline,
		draft.ImpactNarrative,
		draft.LessonsLearned,
	); err != nil {
		return fmt.Errorf("failed to merge postmortem: %w", err)
	}
	return nil
}

func (r *enrichmentRepository) InsertContributingFactors(ctx context.Context, incidentID uuid.UUID, source models.SourceType, factors []models.ContributingFactorOutput) error {
	conn := r.db.Runner(ctx)
	for _, f := range factors {
		if _, err := conn.Exec(ctx, `
			INSERT INTO contributing_factors (incident_id, category, description, source)
			VALUES ($1, $2, $3, $4)`,
			incidentID, f.Category, f.Description, source,
		); err != nil {
			return fmt.Errorf("failed to insert contributing factor: %w", err)
		}
	}
	return nil
}
