package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/saagar210/IncidentManagement-sub000/pkg/database"
	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
)

// SlaRepository provides data access for SLA definitions.
type SlaRepository interface {
	// GetActiveByPriority returns the active definition for a priority, or
	// nil when no policy is configured (not an error).
	GetActiveByPriority(ctx context.Context, priority models.Priority) (*models.SlaDefinition, error)
	List(ctx context.Context) ([]*models.SlaDefinition, error)
	// UpsertDefinition deactivates any active row for the priority and
	// inserts a new active version. Runs inside the caller's transaction.
	UpsertDefinition(ctx context.Context, def *models.SlaDefinition) error
}

type slaRepository struct {
	db *database.DB
}

// NewSlaRepository creates a new SlaRepository.
func NewSlaRepository(db *database.DB) SlaRepository {
	return &slaRepository{db: db}
}

var _ SlaRepository = (*slaRepository)(nil)

func (r *slaRepository) GetActiveByPriority(ctx context.Context, priority models.Priority) (*models.SlaDefinition, error) {
	query := `
		SELECT id, priority, response_target_mins, resolution_target_mins, version, active, created_at
		FROM sla_definitions
		WHERE priority = $1 AND active`

	def := &models.SlaDefinition{}
	err := r.db.Runner(ctx).QueryRow(ctx, query, priority).Scan(
		&def.ID,
		&def.Priority,
		&def.ResponseTargetMins,
		&def.ResolutionTargetMins,
		&def.Version,
		&def.Active,
		&def.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No policy configured for this priority
		}
		return nil, fmt.Errorf("failed to get SLA definition: %w", err)
	}

	return def, nil
}

func (r *slaRepository) List(ctx context.Context) ([]*models.SlaDefinition, error) {
	query := `
		SELECT id, priority, response_target_mins, resolution_target_mins, version, active, created_at
		FROM sla_definitions
		ORDER BY priority, version DESC`

	rows, err := r.db.Runner(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query SLA definitions: %w", err)
	}
	defer rows.Close()

	var defs []*models.SlaDefinition
	for rows.Next() {
		def := &models.SlaDefinition{}
		if err := rows.Scan(
			&def.ID,
			&def.Priority,
			&def.ResponseTargetMins,
			&def.ResolutionTargetMins,
			&def.Version,
			&def.Active,
			&def.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan SLA definition: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating SLA definitions: %w", err)
	}

	return defs, nil
}

func (r *slaRepository) UpsertDefinition(ctx context.Context, def *models.SlaDefinition) error {
	conn := r.db.Runner(ctx)

	var version int
	err := conn.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM sla_definitions WHERE priority = $1`,
		def.Priority,
	).Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to read SLA version: %w", err)
	}

	if _, err := conn.Exec(ctx,
		`UPDATE sla_definitions SET active = false WHERE priority = $1 AND active`,
		def.Priority,
	); err != nil {
		return fmt.Errorf("failed to deactivate SLA definition: %w", err)
	}

	def.Version = version + 1
	def.Active = true

	err = conn.QueryRow(ctx, `
		INSERT INTO sla_definitions (priority, response_target_mins, resolution_target_mins, version, active)
		VALUES ($1, $2, $3, $4, true)
		RETURNING id, created_at`,
		def.Priority,
		def.ResponseTargetMins,
		def.ResolutionTargetMins,
		def.Version,
	).Scan(&def.ID, &def.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert SLA definition: %w", mapConstraintError(err))
	}

	return nil
}
