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

// QuarterRepository provides data access for quarter configuration,
// readiness overrides, snapshots and finalization records.
type QuarterRepository interface {
	CreateQuarter(ctx context.Context, q *models.QuarterConfig) error
	GetQuarter(ctx context.Context, id uuid.UUID) (*models.QuarterConfig, error)
	ListQuarters(ctx context.Context) ([]*models.QuarterConfig, error)

	UpsertOverride(ctx context.Context, o *models.QuarterOverride) error
	ListOverrides(ctx context.Context, quarterID uuid.UUID) ([]*models.QuarterOverride, error)
	DeleteOverride(ctx context.Context, quarterID uuid.UUID, ruleKey string, incidentID uuid.UUID) error

	UpsertSnapshot(ctx context.Context, s *models.QuarterSnapshot) error
	GetSnapshot(ctx context.Context, quarterID uuid.UUID) (*models.QuarterSnapshot, error)

	UpsertFinalization(ctx context.Context, f *models.QuarterFinalization) error
	GetFinalization(ctx context.Context, quarterID uuid.UUID) (*models.QuarterFinalization, error)
	DeleteFinalization(ctx context.Context, quarterID uuid.UUID) error
}

type quarterRepository struct {
	db *database.DB
}

// NewQuarterRepository creates a new QuarterRepository.
func NewQuarterRepository(db *database.DB) QuarterRepository {
	return &quarterRepository{db: db}
}

var _ QuarterRepository = (*quarterRepository)(nil)

// ============================================================================
// Quarter config
// ============================================================================

func (r *quarterRepository) CreateQuarter(ctx context.Context, q *models.QuarterConfig) error {
	query := `
		INSERT INTO quarter_config (fiscal_year, quarter_number, label, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.Runner(ctx).QueryRow(ctx, query,
		q.FiscalYear,
		q.QuarterNumber,
		q.Label,
		q.StartDate,
		q.EndDate,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create quarter: %w", mapConstraintError(err))
	}

	return nil
}

func (r *quarterRepository) GetQuarter(ctx context.Context, id uuid.UUID) (*models.QuarterConfig, error) {
	query := `
		SELECT id, fiscal_year, quarter_number, label, start_date, end_date, created_at
		FROM quarter_config
		WHERE id = $1`

	q := &models.QuarterConfig{}
	err := r.db.Runner(ctx).QueryRow(ctx, query, id).Scan(
		&q.ID,
		&q.FiscalYear,
		&q.QuarterNumber,
		&q.Label,
		&q.StartDate,
		&q.EndDate,
		&q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quarter: %w", err)
	}

	return q, nil
}

func (r *quarterRepository) ListQuarters(ctx context.Context) ([]*models.QuarterConfig, error) {
	query := `
		SELECT id, fiscal_year, quarter_number, label, start_date, end_date, created_at
		FROM quarter_config
		ORDER BY fiscal_year DESC, quarter_number DESC`

	rows, err := r.db.Runner(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query quarters: %w", err)
	}
	defer rows.Close()

	var quarters []*models.QuarterConfig
	for rows.Next() {
		q := &models.QuarterConfig{}
		if err := rows.Scan(
			&q.ID,
			&q.FiscalYear,
			&q.QuarterNumber,
			&q.Label,
			&q.StartDate,
			&q.EndDate,
			&q.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quarter: %w", err)
		}
		quarters = append(quarters, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quarters: %w", err)
	}

	return quarters, nil
}

// ============================================================================
// Readiness overrides
// ============================================================================

func (r *quarterRepository) UpsertOverride(ctx context.Context, o *models.QuarterOverride) error {
	query := `
		INSERT INTO quarter_readiness_overrides (quarter_id, rule_key, incident_id, reason, approved_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (quarter_id, rule_key, incident_id)
		DO UPDATE SET reason = EXCLUDED.reason, approved_by = EXCLUDED.approved_by, updated_at = now()
		RETURNING id, created_at, updated_at`

	err := r.db.Runner(ctx).QueryRow(ctx, query,
		o.QuarterID,
		o.RuleKey,
		o.IncidentID,
		o.Reason,
		o.ApprovedBy,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert override: %w", err)
	}

	return nil
}

func (r *quarterRepository) ListOverrides(ctx context.Context, quarterID uuid.UUID) ([]*models.QuarterOverride, error) {
	query := `
		SELECT id, quarter_id, rule_key, incident_id, reason, approved_by, created_at, updated_at
		FROM quarter_readiness_overrides
		WHERE quarter_id = $1
		ORDER BY rule_key, incident_id`

	rows, err := r.db.Runner(ctx).Query(ctx, query, quarterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer rows.Close()

	var overrides []*models.QuarterOverride
	for rows.Next() {
		o := &models.QuarterOverride{}
		if err := rows.Scan(
			&o.ID,
			&o.QuarterID,
			&o.RuleKey,
			&o.IncidentID,
			&o.Reason,
			&o.ApprovedBy,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overrides: %w", err)
	}

	return overrides, nil
}

func (r *quarterRepository) DeleteOverride(ctx context.Context, quarterID uuid.UUID, ruleKey string, incidentID uuid.UUID) error {
	query := `
		DELETE FROM quarter_readiness_overrides
		WHERE quarter_id = $1 AND rule_key = $2 AND incident_id = $3`

	result, err := r.db.Runner(ctx).Exec(ctx, query, quarterID, ruleKey, incidentID)
	if err != nil {
		return fmt.Errorf("failed to delete override: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ============================================================================
// Snapshots and finalization records
// ============================================================================

func (r *quarterRepository) UpsertSnapshot(ctx context.Context, s *models.QuarterSnapshot) error {
	query := `
		INSERT INTO quarter_snapshots (quarter_id, schema_version, inputs_hash, snapshot_json)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (quarter_id)
		DO UPDATE SET schema_version = EXCLUDED.schema_version,
		              inputs_hash = EXCLUDED.inputs_hash,
		              snapshot_json = EXCLUDED.snapshot_json,
		              updated_at = now()
		RETURNING id, created_at, updated_at`

	err := r.db.Runner(ctx).QueryRow(ctx, query,
		s.QuarterID,
		s.SchemaVersion,
		s.InputsHash,
		s.SnapshotJSON,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	return nil
}

func (r *quarterRepository) GetSnapshot(ctx context.Context, quarterID uuid.UUID) (*models.QuarterSnapshot, error) {
	query := `
		SELECT id, quarter_id, schema_version, inputs_hash, snapshot_json, created_at, updated_at
		FROM quarter_snapshots
		WHERE quarter_id = $1`

	s := &models.QuarterSnapshot{}
	err := r.db.Runner(ctx).QueryRow(ctx, query, quarterID).Scan(
		&s.ID,
		&s.QuarterID,
		&s.SchemaVersion,
		&s.InputsHash,
		&s.SnapshotJSON,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return s, nil
}

func (r *quarterRepository) UpsertFinalization(ctx context.Context, f *models.QuarterFinalization) error {
	query := `
		INSERT INTO quarter_finalizations (quarter_id, snapshot_id, inputs_hash, finalized_at, finalized_by, notes)
		VALUES ($1, $2, $3, now(), $4, $5)
		ON CONFLICT (quarter_id)
		DO UPDATE SET snapshot_id = EXCLUDED.snapshot_id,
		              inputs_hash = EXCLUDED.inputs_hash,
		              finalized_at = now(),
		              finalized_by = EXCLUDED.finalized_by,
		              notes = EXCLUDED.notes
		RETURNING id, finalized_at`

	err := r.db.Runner(ctx).QueryRow(ctx, query,
		f.QuarterID,
		f.SnapshotID,
		f.InputsHash,
		f.FinalizedBy,
		f.Notes,
	).Scan(&f.ID, &f.FinalizedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert finalization: %w", err)
	}

	return nil
}

func (r *quarterRepository) GetFinalization(ctx context.Context, quarterID uuid.UUID) (*models.QuarterFinalization, error) {
	query := `
		SELECT id, quarter_id, snapshot_id, inputs_hash, finalized_at, finalized_by, notes
		FROM quarter_finalizations
		WHERE quarter_id = $1`

	f := &models.QuarterFinalization{}
	err := r.db.Runner(ctx).QueryRow(ctx, query, quarterID).Scan(
		&f.ID,
		&f.QuarterID,
		&f.SnapshotID,
		&f.InputsHash,
		&f.FinalizedAt,
		&f.FinalizedBy,
		&f.Notes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get finalization: %w", err)
	}

	return f, nil
}

func (r *quarterRepository) DeleteFinalization(ctx context.Context, quarterID uuid.UUID) error {
	query := `DELETE FROM quarter_finalizations WHERE quarter_id = $1`

	result, err := r.db.Runner(ctx).Exec(ctx, query, quarterID)
	if err != nil {
		return fmt.Errorf("failed to delete finalization: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
