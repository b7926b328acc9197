package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saagar210/IncidentManagement-sub000/pkg/apperrors"
	"github.com/saagar210/IncidentManagement-sub000/pkg/database"
	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
)

// IncidentFilter narrows List queries. Zero values mean "no filter".
type IncidentFilter struct {
	Status         models.Status
	Severity       models.Severity
	ServiceName    string
	StartedFrom    *time.Time
	StartedTo      *time.Time
	IncludeDeleted bool
}

// SimilarIncident is one ranked full-text match.
type SimilarIncident struct {
	Incident *models.Incident
	Rank     float32
}

// IncidentRepository provides data access for incident records.
type IncidentRepository interface {
	Create(ctx context.Context, inc *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	Update(ctx context.Context, inc *models.Incident) error
	List(ctx context.Context, filter IncidentFilter) ([]*models.Incident, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*models.Incident, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	Purge(ctx context.Context, id uuid.UUID) error
	SearchSimilar(ctx context.Context, query string, limit int) ([]SimilarIncident, error)
}

type incidentRepository struct {
	db *database.DB
}

// NewIncidentRepository creates a new IncidentRepository.
func NewIncidentRepository(db *database.DB) IncidentRepository {
	return &incidentRepository{db: db}
}

var _ IncidentRepository = (*incidentRepository)(nil)

const incidentColumns = `
	id, title, service_name, external_ref, severity, impact, status,
	started_at, detected_at, acknowledged_at, first_response_at,
	mitigation_started_at, responded_at, resolved_at, reopened_at,
	reopen_count, recurrence_of, root_cause, resolution, lessons, notes,
	ticket_count, affected_users, created_at, updated_at, deleted_at`

func (r *incidentRepository) Create(ctx context.Context, inc *models.Incident) error {
	query := `
		INSERT INTO incidents (
			title, service_name, external_ref, severity, impact, priority, status,
			started_at, detected_at, acknowledged_at, first_response_at,
			mitigation_started_at, responded_at, resolved_at, reopened_at,
			reopen_count, recurrence_of, root_cause, resolution, lessons, notes,
			ticket_count, affected_users
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		          $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING id, created_at, updated_at`

	err := r.db.Runner(ctx).QueryRow(ctx, query,
		inc.Title,
		inc.ServiceName,
		inc.ExternalRef,
		inc.Severity,
		inc.Impact,
		inc.Priority(),
		inc.Status,
		inc.StartedAt,
		inc.DetectedAt,
		inc.AcknowledgedAt,
		inc.FirstResponseAt,
		inc.MitigationStartedAt,
		inc.RespondedAt,
		inc.ResolvedAt,
		inc.ReopenedAt,
		inc.ReopenCount,
		inc.RecurrenceOf,
		inc.RootCause,
		inc.Resolution,
		inc.Lessons,
		inc.Notes,
		inc.TicketCount,
		inc.AffectedUsers,
	).Scan(&inc.ID, &inc.CreatedAt, &inc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", mapConstraintError(err))
	}

	return nil
}

func (r *incidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`

	inc, err := scanIncident(r.db.Runner(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return inc, nil
}

func (r *incidentRepository) Update(ctx context.Context, inc *models.Incident) error {
	query := `
		UPDATE incidents
		SET title = $2, service_name = $3, external_ref = $4, severity = $5,
		    impact = $6, priority = $7, status = $8, started_at = $9,
		    detected_at = $10, acknowledged_at = $11, first_response_at = $12,
		    mitigation_started_at = $13, responded_at = $14, resolved_at = $15,
		    reopened_at = $16, reopen_count = $17, recurrence_of = $18,
		    root_cause = $19, resolution = $20, lessons = $21, notes = $22,
		    ticket_count = $23, affected_users = $24, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.Runner(ctx).QueryRow(ctx, query,
		inc.ID,
		inc.Title,
		inc.ServiceName,
		inc.ExternalRef,
		inc.Severity,
		inc.Impact,
		inc.Priority(),
		inc.Status,
		inc.StartedAt,
		inc.DetectedAt,
		inc.AcknowledgedAt,
		inc.FirstResponseAt,
		inc.MitigationStartedAt,
		inc.RespondedAt,
		inc.ResolvedAt,
		inc.ReopenedAt,
		inc.ReopenCount,
		inc.RecurrenceOf,
		inc.RootCause,
		inc.Resolution,
		inc.Lessons,
		inc.Notes,
		inc.TicketCount,
		inc.AffectedUsers,
	).Scan(&inc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update incident: %w", mapConstraintError(err))
	}

	return nil
}

func (r *incidentRepository) List(ctx context.Context, filter IncidentFilter) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE 1=1`
	var args []any

	if !filter.IncludeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.Severity != "" {
		args = append(args, filter.Severity)
		query += fmt.Sprintf(` AND severity = $%d`, len(args))
	}
	if filter.ServiceName != "" {
		args = append(args, filter.ServiceName)
		query += fmt.Sprintf(` AND service_name = $%d`, len(args))
	}
	if filter.StartedFrom != nil {
		args = append(args, *filter.StartedFrom)
		query += fmt.Sprintf(` AND started_at >= $%d`, len(args))
	}
	if filter.StartedTo != nil {
		args = append(args, *filter.StartedTo)
		query += fmt.Sprintf(` AND started_at <= $%d`, len(args))
	}
	query += ` ORDER BY started_at DESC, id`

	rows, err := r.db.Runner(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer rows.Close()

	return collectIncidents(rows)
}

func (r *incidentRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + `
		FROM incidents
		WHERE deleted_at IS NULL AND started_at >= $1 AND started_at <= $2
		ORDER BY started_at, id`

	rows, err := r.db.Runner(ctx).Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents by range: %w", err)
	}
	defer rows.Close()

	return collectIncidents(rows)
}

func (r *incidentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE incidents SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.Runner(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete incident: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *incidentRepository) Restore(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE incidents SET deleted_at = NULL, updated_at = now()
		WHERE id = $1 AND deleted_at IS NOT NULL`

	result, err := r.db.Runner(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to restore incident: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Purge permanently removes an incident and every dependent row. Callers
// wrap this in a transaction via database.WithTx.
func (r *incidentRepository) Purge(ctx context.Context, id uuid.UUID) error {
	conn := r.db.Runner(ctx)

	dependents := []string{
		`DELETE FROM field_provenance WHERE entity_type = 'incident' AND entity_id = $1`,
		`DELETE FROM contributing_factors WHERE incident_id = $1`,
		`DELETE FROM stakeholder_updates WHERE incident_id = $1`,
		`DELETE FROM postmortems WHERE incident_id = $1`,
		`DELETE FROM incident_enrichments WHERE incident_id = $1`,
		`DELETE FROM enrichment_jobs WHERE entity_type = 'incident' AND entity_id = $1`,
		`UPDATE incidents SET recurrence_of = NULL WHERE recurrence_of = $1`,
	}
	for _, q := range dependents {
		if _, err := conn.Exec(ctx, q, id); err != nil {
			return fmt.Errorf("failed to purge incident dependents: %w", err)
		}
	}

	result, err := conn.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to purge incident: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *incidentRepository) SearchSimilar(ctx context.Context, queryText string, limit int) ([]SimilarIncident, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + incidentColumns + `,
		ts_rank(to_tsvector('english', title || ' ' || root_cause || ' ' || resolution || ' ' || notes),
		        plainto_tsquery('english', $1)) AS rank
		FROM incidents
		WHERE deleted_at IS NULL
		  AND to_tsvector('english', title || ' ' || root_cause || ' ' || resolution || ' ' || notes)
		      @@ plainto_tsquery('english', $1)
		ORDER BY rank DESC, id
		LIMIT $2`

	rows, err := r.db.Runner(ctx).Query(ctx, query, queryText, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search incidents: %w", err)
	}
	defer rows.Close()

	var matches []SimilarIncident
	for rows.Next() {
		inc := &models.Incident{}
		var rank float32
		dest := incidentScanDest(inc)
		dest = append(dest, &rank)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan incident match: %w", err)
		}
		matches = append(matches, SimilarIncident{Incident: inc, Rank: rank})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incident matches: %w", err)
	}

	return matches, nil
}

// ============================================================================
// Scan helpers
// ============================================================================

func incidentScanDest(inc *models.Incident) []any {
	return []any{
		&inc.ID,
		&inc.Title,
		&inc.ServiceName,
		&inc.ExternalRef,
		&inc.Severity,
		&inc.Impact,
		&inc.Status,
		&inc.StartedAt,
		&inc.DetectedAt,
		&inc.AcknowledgedAt,
		&inc.FirstResponseAt,
		&inc.MitigationStartedAt,
		&inc.RespondedAt,
		&inc.ResolvedAt,
		&inc.ReopenedAt,
		&inc.ReopenCount,
		&inc.RecurrenceOf,
		&inc.RootCause,
		&inc.Resolution,
		&inc.Lessons,
		&inc.Notes,
		&inc.TicketCount,
		&inc.AffectedUsers,
		&inc.CreatedAt,
		&inc.UpdatedAt,
		&inc.DeletedAt,
	}
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	inc := &models.Incident{}
	if err := row.Scan(incidentScanDest(inc)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan incident: %w", err)
	}

	// Stored enum strings may predate the current value sets.
	inc.Severity = models.ParseSeverity(string(inc.Severity))
	inc.Impact = models.ParseImpact(string(inc.Impact))
	inc.Status = models.ParseStatus(string(inc.Status))

	return inc, nil
}

func collectIncidents(rows pgx.Rows) ([]*models.Incident, error) {
	var incidents []*models.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incidents: %w", err)
	}
	return incidents, nil
}
