package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
	"github.com/saagar210/IncidentManagement-sub000/pkg/repositories"
)

// Fixed remediation hints keyed by readiness rule. The text is part of the
// snapshot payload, so changes here alter future snapshots only.
var ruleRemediation = map[string]string{
	models.RuleMissingRequiredFields:      "fill in the missing fields before finalizing, or record an override",
	models.RuleTimestampOrdering:          "correct the timeline so detection and resolution follow the start",
	models.RuleResolvedRequiresResolvedAt: "set resolved_at on the incident or move it out of resolved",
	models.RuleCarriedOver:                "confirm the incident is intentionally still open across the quarter boundary",
}

var ruleMessages = map[string]string{
	models.RuleMissingRequiredFields:      "incidents are missing required reporting fields",
	models.RuleTimestampOrdering:          "incident timelines violate timestamp ordering",
	models.RuleResolvedRequiresResolvedAt: "resolved incidents have no resolved_at stamp",
	models.RuleCarriedOver:                "incidents remain unresolved past the quarter end",
}

// ruleOrder fixes finding order in reports and snapshots.
var ruleOrder = []string{
	models.RuleMissingRequiredFields,
	models.RuleTimestampOrdering,
	models.RuleResolvedRequiresResolvedAt,
	models.RuleCarriedOver,
}

func ruleSeverity(ruleKey string) models.FindingSeverity {
	if ruleKey == models.RuleCarriedOver {
		return models.FindingWarning
	}
	return models.FindingCritical
}

// ReadinessService evaluates whether a quarter's incidents are fit to freeze
// into a report. Reports are recomputed on demand, never stored outside the
// finalize-time snapshot.
type ReadinessService interface {
	ComputeReadiness(ctx context.Context, quarterID uuid.UUID) (*models.QuarterReadinessReport, error)
}

type readinessService struct {
	quarters  repositories.QuarterRepository
	incidents repositories.IncidentRepository
	now       func() time.Time
	logger    *zap.Logger
}

// NewReadinessService creates a new ReadinessService.
func NewReadinessService(quarters repositories.QuarterRepository, incidents repositories.IncidentRepository, logger *zap.Logger) ReadinessService {
	return &readinessService{
		quarters:  quarters,
		incidents: incidents,
		now:       time.Now,
		logger:    logger.Named("readiness-service"),
	}
}

var _ ReadinessService = (*readinessService)(nil)

func (s *readinessService) ComputeReadiness(ctx context.Context, quarterID uuid.UUID) (*models.QuarterReadinessReport, error) {
	quarter, err := s.quarters.GetQuarter(ctx, quarterID)
	if err != nil {
		return nil, err
	}

	incidents, err := s.incidents.ListByDateRange(ctx, quarter.StartDate, quarter.EndDate)
	if err != nil {
		return nil, fmt.Errorf("listing quarter incidents: %w", err)
	}

	return s.evaluate(quarter, incidents), nil
}

// evaluate runs every rule over every incident in the window. An incident is
// "ready" when it trips no critical rule; warnings never block.
func (s *readinessService) evaluate(quarter *models.QuarterConfig, incidents []*models.Incident) *models.QuarterReadinessReport {
	offenders := make(map[string][]uuid.UUID, len(ruleOrder))
	needsAttention := make(map[uuid.UUID]bool)

	for _, inc := range incidents {
		for _, ruleKey := range ruleOrder {
			if !ruleTripped(ruleKey, inc, quarter.EndDate) {
				continue
			}
			offenders[ruleKey] = append(offenders[ruleKey], inc.ID)
			if ruleSeverity(ruleKey) == models.FindingCritical {
				needsAttention[inc.ID] = true
			}
		}
	}

	report := &models.QuarterReadinessReport{
		QuarterID:      quarter.ID,
		TotalIncidents: len(incidents),
		ReadyCount:     len(incidents) - len(needsAttention),
		NeedsAttention: len(needsAttention),
		GeneratedAt:    s.now().UTC(),
	}
	for _, ruleKey := range ruleOrder {
		ids := offenders[ruleKey]
		if len(ids) == 0 {
			continue
		}
		report.Findings = append(report.Findings, models.ReadinessFinding{
			RuleKey:     ruleKey,
			Severity:    ruleSeverity(ruleKey),
			Message:     ruleMessages[ruleKey],
			IncidentIDs: ids,
			Remediation: ruleRemediation[ruleKey],
		})
	}
	return report
}

func ruleTripped(ruleKey string, inc *models.Incident, quarterEnd time.Time) bool {
	switch ruleKey {
	case models.RuleMissingRequiredFields:
		return inc.ValidateRequired() != nil || inc.StartedAt.IsZero() || inc.DetectedAt.IsZero()
	case models.RuleTimestampOrdering:
		return orderingViolated(inc)
	case models.RuleResolvedRequiresResolvedAt:
		return inc.Status == models.StatusResolved && inc.ResolvedAt == nil
	case models.RuleCarriedOver:
		if inc.Status == models.StatusResolved {
			return false
		}
		return inc.ResolvedAt == nil || inc.ResolvedAt.After(quarterEnd)
	default:
		return false
	}
}

// orderingViolated re-checks the timeline invariants without the
// required-field portion; blank stamps belong to the missing-fields rule.
func orderingViolated(inc *models.Incident) bool {
	if !inc.StartedAt.IsZero() && !inc.DetectedAt.IsZero() && inc.DetectedAt.Before(inc.StartedAt) {
		return true
	}
	if inc.RespondedAt != nil && !inc.DetectedAt.IsZero() && inc.RespondedAt.Before(inc.DetectedAt) {
		return true
	}
	if inc.ResolvedAt != nil && !inc.StartedAt.IsZero() && inc.ResolvedAt.Before(inc.StartedAt) {
		return true
	}
	return false
}
