package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saagar210/IncidentManagement-sub000/pkg/apperrors"
	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
	"github.com/saagar210/IncidentManagement-sub000/pkg/repositories"
)

// IncidentUpdate is a partial update. Nil pointer fields are untouched;
// set fields overwrite (last write wins at field level). The merged result
// is validated as a whole before anything is persisted.
type IncidentUpdate struct {
	Title       *string `json:"title,omitempty"`
	ServiceName *string `json:"service_name,omitempty"`
	ExternalRef *string `json:"external_ref,omitempty"`

	Severity *models.Severity `json:"severity,omitempty"`
	Impact   *models.Impact   `json:"impact,omitempty"`
	Status   *models.Status   `json:"status,omitempty"`

	StartedAt           *time.Time `json:"started_at,omitempty"`
	DetectedAt          *time.Time `json:"detected_at,omitempty"`
	AcknowledgedAt      *time.Time `json:"acknowledged_at,omitempty"`
	FirstResponseAt     *time.Time `json:"first_response_at,omitempty"`
	MitigationStartedAt *time.Time `json:"mitigation_started_at,omitempty"`
	RespondedAt         *time.Time `json:"responded_at,omitempty"`
	ResolvedAt          *time.Time `json:"resolved_at,omitempty"`

	RecurrenceOf *uuid.UUID `json:"recurrence_of,omitempty"`

	RootCause  *string `json:"root_cause,omitempty"`
	Resolution *string `json:"resolution,omitempty"`
	Lessons    *string `json:"lessons,omitempty"`
	Notes      *string `json:"notes,omitempty"`

	TicketCount   *int `json:"ticket_count,omitempty"`
	AffectedUsers *int `json:"affected_users,omitempty"`
}

// IncidentDetail pairs an incident with its derived priority and live SLA
// picture.
type IncidentDetail struct {
	Incident *models.Incident  `json:"incident"`
	Priority models.Priority   `json:"priority"`
	Sla      *models.SlaStatus `json:"sla"`
}

// IncidentService owns the incident lifecycle: creation, the status state
// machine, partial updates and deletion.
type IncidentService interface {
	Create(ctx context.Context, inc *models.Incident) (*models.Incident, error)
	Get(ctx context.Context, id uuid.UUID) (*IncidentDetail, error)
	Update(ctx context.Context, id uuid.UUID, update *IncidentUpdate) (*models.Incident, error)
	List(ctx context.Context, filter repositories.IncidentFilter) ([]*models.Incident, error)
	// BulkUpdateStatus moves every listed incident to the target status in
	// one transaction; any disallowed transition aborts the whole batch.
	BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status models.Status) ([]*models.Incident, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	// Purge permanently removes an incident and all dependent enrichment
	// records. There is no undo.
	Purge(ctx context.Context, id uuid.UUID) error
	SearchSimilar(ctx context.Context, query string, limit int) ([]repositories.SimilarIncident, error)
}

type incidentService struct {
	repo   repositories.IncidentRepository
	sla    SlaService
	tx     TxRunner
	now    func() time.Time
	logger *zap.Logger
}

// NewIncidentService creates a new IncidentService.
func NewIncidentService(repo repositories.IncidentRepository, sla SlaService, tx TxRunner, logger *zap.Logger) IncidentService {
	return &incidentService{
		repo:   repo,
		sla:    sla,
		tx:     tx,
		now:    time.Now,
		logger: logger.Named("incident-service"),
	}
}

var _ IncidentService = (*incidentService)(nil)

func (s *incidentService) Create(ctx context.Context, inc *models.Incident) (*models.Incident, error) {
	if inc.Status == "" {
		inc.Status = models.StatusActive
	}
	inc.ReopenCount = 0

	if err := inc.ValidateRequired(); err != nil {
		return nil, err
	}
	if err := validateEnumInputs(&inc.Severity, &inc.Impact, &inc.Status); err != nil {
		return nil, err
	}
	if err := inc.ValidateTimestamps(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, inc); err != nil {
		return nil, fmt.Errorf("creating incident: %w", err)
	}

	s.logger.Info("incident created",
		zap.String("incident_id", inc.ID.String()),
		zap.String("service", inc.ServiceName),
		zap.String("priority", string(inc.Priority())))
	return inc, nil
}

func (s *incidentService) Get(ctx context.Context, id uuid.UUID) (*IncidentDetail, error) {
	inc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sla, err := s.sla.ComputeStatus(ctx, inc)
	if err != nil {
		return nil, fmt.Errorf("computing sla status: %w", err)
	}

	return &IncidentDetail{Incident: inc, Priority: inc.Priority(), Sla: sla}, nil
}

func (s *incidentService) Update(ctx context.Context, id uuid.UUID, update *IncidentUpdate) (*models.Incident, error) {
	if err := validateEnumInputs(update.Severity, update.Impact, update.Status); err != nil {
		return nil, err
	}

	inc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := inc.Status
	applyUpdate(inc, update)

	if inc.Status != previous {
		if err := models.ValidateTransition(previous, inc.Status); err != nil {
			return nil, err
		}
		s.stampTransition(inc, previous, update)
	}

	if err := inc.ValidateRequired(); err != nil {
		return nil, err
	}
	if err := inc.ValidateTimestamps(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, inc); err != nil {
		return nil, fmt.Errorf("updating incident: %w", err)
	}

	if inc.Status != previous {
		s.logger.Info("incident status changed",
			zap.String("incident_id", inc.ID.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(inc.Status)))
	}
	return inc, nil
}

func (s *incidentService) List(ctx context.Context, filter repositories.IncidentFilter) ([]*models.Incident, error) {
	return s.repo.List(ctx, filter)
}

func (s *incidentService) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status models.Status) ([]*models.Incident, error) {
	if len(ids) == 0 {
		return nil, apperrors.NewValidation("no incident ids supplied")
	}
	if models.ParseStatus(string(status)) != status {
		return nil, apperrors.NewValidation(fmt.Sprintf("unknown status %q", status))
	}

	var updated []*models.Incident
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			inc, err := s.repo.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("incident %s: %w", id, err)
			}
			if inc.Status == status {
				updated = append(updated, inc)
				continue
			}
			previous := inc.Status
			if err := models.ValidateTransition(previous, status); err != nil {
				return fmt.Errorf("incident %s: %w", id, err)
			}
			inc.Status = status
			s.stampTransition(inc, previous, &IncidentUpdate{})
			if err := inc.ValidateTimestamps(); err != nil {
				return fmt.Errorf("incident %s: %w", id, err)
			}
			if err := s.repo.Update(ctx, inc); err != nil {
				return fmt.Errorf("incident %s: %w", id, err)
			}
			updated = append(updated, inc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bulk status update applied",
		zap.Int("count", len(updated)),
		zap.String("status", string(status)))
	return updated, nil
}

func (s *incidentService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("incident soft-deleted", zap.String("incident_id", id.String()))
	return nil
}

func (s *incidentService) Restore(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}
	s.logger.Info("incident restored", zap.String("incident_id", id.String()))
	return nil
}

func (s *incidentService) Purge(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.Purge(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Warn("incident purged", zap.String("incident_id", id.String()))
	return nil
}

func (s *incidentService) SearchSimilar(ctx context.Context, query string, limit int) ([]repositories.SimilarIncident, error) {
	if query == "" {
		return nil, apperrors.NewValidation("search query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	return s.repo.SearchSimilar(ctx, query, limit)
}

// stampTransition applies the bookkeeping a status change implies: first
// entry into acknowledged/resolved stamps the matching timestamp unless the
// caller supplied one, and leaving a terminal state counts as a reopen.
func (s *incidentService) stampTransition(inc *models.Incident, previous models.Status, update *IncidentUpdate) {
	now := s.now()

	switch inc.Status {
	case models.StatusAcknowledged:
		if inc.AcknowledgedAt == nil && update.AcknowledgedAt == nil {
			inc.AcknowledgedAt = &now
		}
	case models.StatusResolved:
		if inc.ResolvedAt == nil && update.ResolvedAt == nil {
			inc.ResolvedAt = &now
		}
	}

	if models.IsReopen(previous, inc.Status) {
		inc.ReopenCount++
		inc.ReopenedAt = &now
		// A reopened incident is no longer resolved; the stale stamp would
		// otherwise leak into SLA math and the inputs hash.
		inc.ResolvedAt = nil
	}
}

// validateEnumInputs rejects unknown enum values arriving from a caller.
// Decay-to-default parsing is reserved for rows read back from storage;
// a typo in a request must fail, not silently become a different value.
func validateEnumInputs(severity *models.Severity, impact *models.Impact, status *models.Status) error {
	var details []string
	if severity != nil && models.ParseSeverity(string(*severity)) != *severity {
		details = append(details, fmt.Sprintf("unknown severity %q", *severity))
	}
	if impact != nil && models.ParseImpact(string(*impact)) != *impact {
		details = append(details, fmt.Sprintf("unknown impact %q", *impact))
	}
	if status != nil && models.ParseStatus(string(*status)) != *status {
		details = append(details, fmt.Sprintf("unknown status %q", *status))
	}
	if len(details) > 0 {
		return apperrors.NewValidation("invalid incident fields", details...)
	}
	return nil
}

func applyUpdate(inc *models.Incident, u *IncidentUpdate) {
	if u.Title != nil {
		inc.Title = *u.Title
	}
	if u.ServiceName != nil {
		inc.ServiceName = *u.ServiceName
	}
	if u.ExternalRef != nil {
		inc.ExternalRef = *u.ExternalRef
	}
	if u.Severity != nil {
		inc.Severity = *u.Severity
	}
	if u.Impact != nil {
		inc.Impact = *u.Impact
	}
	if u.Status != nil {
		inc.Status = *u.Status
	}
	if u.StartedAt != nil {
		inc.StartedAt = *u.StartedAt
	}
	if u.DetectedAt != nil {
		inc.DetectedAt = *u.DetectedAt
	}
	if u.AcknowledgedAt != nil {
		inc.AcknowledgedAt = u.AcknowledgedAt
	}
	if u.FirstResponseAt != nil {
		inc.FirstResponseAt = u.FirstResponseAt
	}
	if u.MitigationStartedAt != nil {
		inc.MitigationStartedAt = u.MitigationStartedAt
	}
	if u.RespondedAt != nil {
		inc.RespondedAt = u.RespondedAt
	}
	if u.ResolvedAt != nil {
		inc.ResolvedAt = u.ResolvedAt
	}
	if u.RecurrenceOf != nil {
		inc.RecurrenceOf = u.RecurrenceOf
	}
	if u.RootCause != nil {
		inc.RootCause = *u.RootCause
	}
	if u.Resolution != nil {
		inc.Resolution = *u.Resolution
	}
	if u.Lessons != nil {
		inc.Lessons = *u.Lessons
	}
	if u.Notes != nil {
		inc.Notes = *u.Notes
	}
	if u.TicketCount != nil {
		inc.TicketCount = *u.TicketCount
	}
	if u.AffectedUsers != nil {
		inc.AffectedUsers = *u.AffectedUsers
	}
}
