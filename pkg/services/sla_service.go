package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saagar210/IncidentManagement-sub000/pkg/apperrors"
	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
	"github.com/saagar210/IncidentManagement-sub000/pkg/repositories"
)

// SlaService derives live SLA status from incident facts and manages the
// versioned target definitions.
type SlaService interface {
	// ComputeStatus evaluates an incident against the active definition for
	// its derived priority. Open clocks run against now; a missing
	// definition yields nil targets and no breaches.
	ComputeStatus(ctx context.Context, inc *models.Incident) (*models.SlaStatus, error)
	ListDefinitions(ctx context.Context) ([]*models.SlaDefinition, error)
	UpsertDefinition(ctx context.Context, priority models.Priority, responseMins, resolutionMins int) (*models.SlaDefinition, error)
}

type slaService struct {
	repo   repositories.SlaRepository
	tx     TxRunner
	now    func() time.Time
	logger *zap.Logger
}

// NewSlaService creates a new SlaService.
func NewSlaService(repo repositories.SlaRepository, tx TxRunner, logger *zap.Logger) SlaService {
	return &slaService{
		repo:   repo,
		tx:     tx,
		now:    time.Now,
		logger: logger.Named("sla-service"),
	}
}

var _ SlaService = (*slaService)(nil)

func (s *slaService) ComputeStatus(ctx context.Context, inc *models.Incident) (*models.SlaStatus, error) {
	priority := inc.Priority()

	status := &models.SlaStatus{Priority: priority}

	now := s.now()

	// Response clock: detection to response, running until responded.
	responseEnd := now
	if inc.RespondedAt != nil {
		responseEnd = *inc.RespondedAt
	}
	status.ResponseElapsed = responseEnd.Sub(inc.DetectedAt)

	// Resolution clock: start to resolution, running until resolved.
	resolutionEnd := now
	if inc.ResolvedAt != nil {
		resolutionEnd = *inc.ResolvedAt
	}
	status.ResolutionElapsed = resolutionEnd.Sub(inc.StartedAt)

	def, err := s.repo.GetActiveByPriority(ctx, priority)
	if err != nil {
		return nil, fmt.Errorf("loading sla definition for %s: %w", priority, err)
	}
	if def == nil {
		// No policy configured for this priority: targets stay nil and
		// nothing can breach.
		return status, nil
	}

	status.ResponseTargetMins = &def.ResponseTargetMins
	status.ResolutionTargetMins = &def.ResolutionTargetMins
	status.ResponseBreached = status.ResponseElapsed > time.Duration(def.ResponseTargetMins)*time.Minute
	status.ResolutionBreached = status.ResolutionElapsed > time.Duration(def.ResolutionTargetMins)*time.Minute

	return status, nil
}

func (s *slaService) ListDefinitions(ctx context.Context) ([]*models.SlaDefinition, error) {
	return s.repo.List(ctx)
}

func (s *slaService) UpsertDefinition(ctx context.Context, priority models.Priority, responseMins, resolutionMins int) (*models.SlaDefinition, error) {
	var details []string
	switch priority {
	case models.PriorityP0, models.PriorityP1, models.PriorityP2, models.PriorityP3, models.PriorityP4:
	default:
		details = append(details, fmt.Sprintf("unknown priority %q", priority))
	}
	if responseMins <= 0 {
		details = append(details, "response_target_mins must be positive")
	}
	if resolutionMins <= 0 {
		details = append(details, "resolution_target_mins must be positive")
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidation("invalid sla definition", details...)
	}

	def := &models.SlaDefinition{
		Priority:             priority,
		ResponseTargetMins:   responseMins,
		ResolutionTargetMins: resolutionMins,
		Active:               true,
	}

	// Deactivate-then-insert must be atomic or two writers could leave two
	// active rows for one priority.
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.UpsertDefinition(ctx, def)
	})
	if err != nil {
		return nil, fmt.Errorf("upserting sla definition: %w", err)
	}

	s.logger.Info("sla definition updated",
		zap.String("priority", string(priority)),
		zap.Int("version", def.Version))
	return def, nil
}
