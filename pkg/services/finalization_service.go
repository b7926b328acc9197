package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saagar210/IncidentManagement-sub000/pkg/apperrors"
	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
	"github.com/saagar210/IncidentManagement-sub000/pkg/repositories"
)

// FinalizationService freezes a quarter into an immutable snapshot and
// detects fact drift afterwards.
type FinalizationService interface {
	// FinalizeQuarter is all-or-nothing: every critical readiness finding
	// must be covered by an override or nothing is written.
	FinalizeQuarter(ctx context.Context, quarterID uuid.UUID, finalizedBy, notes string) (*models.QuarterFinalization, error)
	GetFinalizationStatus(ctx context.Context, quarterID uuid.UUID) (*models.FinalizationStatus, error)
	// UnfinalizeQuarter deletes the finalization record. The snapshot stays
	// behind for audit history.
	UnfinalizeQuarter(ctx context.Context, quarterID uuid.UUID) error
	GetSnapshot(ctx context.Context, quarterID uuid.UUID) (*models.QuarterSnapshot, error)
	ComputeMetrics(ctx context.Context, quarterID uuid.UUID) (*models.QuarterMetrics, error)
	// RangeMetrics aggregates over an arbitrary window for the dashboard.
	RangeMetrics(ctx context.Context, from, to time.Time) (*models.QuarterMetrics, error)
}

type finalizationService struct {
	quarters     repositories.QuarterRepository
	incidents    repositories.IncidentRepository
	readiness    ReadinessService
	sla          SlaService
	tx           TxRunner
	notableCount int
	now          func() time.Time
	logger       *zap.Logger
}

// NewFinalizationService creates a new FinalizationService. notableCount is
// how many top-duration incidents the snapshot marks as notable.
func NewFinalizationService(
	quarters repositories.QuarterRepository,
	incidents repositories.IncidentRepository,
	readiness ReadinessService,
	sla SlaService,
	tx TxRunner,
	notableCount int,
	logger *zap.Logger,
) FinalizationService {
	return &finalizationService{
		quarters:     quarters,
		incidents:    incidents,
		readiness:    readiness,
		sla:          sla,
		tx:           tx,
		notableCount: notableCount,
		now:          time.Now,
		logger:       logger.Named("finalization-service"),
	}
}

var _ FinalizationService = (*finalizationService)(nil)

func (s *finalizationService) FinalizeQuarter(ctx context.Context, quarterID uuid.UUID, finalizedBy, notes string) (*models.QuarterFinalization, error) {
	if finalizedBy == "" {
		return nil, apperrors.NewValidation("finalized_by is required")
	}

	var finalization *models.QuarterFinalization

	// Serializable so the facts read for the hash cannot change under the
	// snapshot mid-finalize.
	err := s.tx.WithSerializableTx(ctx, func(ctx context.Context) error {
		quarter, err := s.quarters.GetQuarter(ctx, quarterID)
		if err != nil {
			return err
		}

		readiness, err := s.readiness.ComputeReadiness(ctx, quarterID)
		if err != nil {
			return err
		}

		overrides, err := s.quarters.ListOverrides(ctx, quarterID)
		if err != nil {
			return err
		}

		if missing := missingOverrides(readiness, overrides); len(missing) > 0 {
			details := make([]string, len(missing))
			for i, pair := range missing {
				details[i] = fmt.Sprintf("%s: %s", pair.RuleKey, pair.IncidentID)
			}
			return apperrors.NewValidation("critical findings lack overrides", details...)
		}

		incidents, err := s.incidents.ListByDateRange(ctx, quarter.StartDate, quarter.EndDate)
		if err != nil {
			return fmt.Errorf("listing quarter incidents: %w", err)
		}

		metrics, err := s.computeMetrics(ctx, incidents)
		if err != nil {
			return err
		}

		content := models.SnapshotContent{
			SchemaVersion: models.SnapshotSchemaVersion,
			Quarter:       *quarter,
			Readiness:     *readiness,
			Metrics:       *metrics,
			IncidentIDs:   sortedIDs(incidents),
			NotableIDs:    s.notableIDs(incidents),
			CarriedOver:   carriedOverIDs(incidents, quarter.EndDate),
			GeneratedAt:   s.now().UTC(),
		}
		for _, o := range overrides {
			content.Overrides = append(content.Overrides, *o)
		}

		inputsHash, err := models.ComputeInputsHash(incidents)
		if err != nil {
			return fmt.Errorf("computing inputs hash: %w", err)
		}

		snapshotJSON, err := json.Marshal(content)
		if err != nil {
			return fmt.Errorf("serializing snapshot: %w", err)
		}

		snapshot := &models.QuarterSnapshot{
			QuarterID:     quarterID,
			SchemaVersion: models.SnapshotSchemaVersion,
			InputsHash:    inputsHash,
			SnapshotJSON:  snapshotJSON,
		}
		if err := s.quarters.UpsertSnapshot(ctx, snapshot); err != nil {
			return err
		}

		finalization = &models.QuarterFinalization{
			QuarterID:   quarterID,
			SnapshotID:  snapshot.ID,
			InputsHash:  inputsHash,
			FinalizedBy: finalizedBy,
			Notes:       notes,
		}
		return s.quarters.UpsertFinalization(ctx, finalization)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quarter finalized",
		zap.String("quarter_id", quarterID.String()),
		zap.String("inputs_hash", finalization.InputsHash),
		zap.String("finalized_by", finalizedBy))
	return finalization, nil
}

func (s *finalizationService) GetFinalizationStatus(ctx context.Context, quarterID uuid.UUID) (*models.FinalizationStatus, error) {
	quarter, err := s.quarters.GetQuarter(ctx, quarterID)
	if err != nil {
		return nil, err
	}

	incidents, err := s.incidents.ListByDateRange(ctx, quarter.StartDate, quarter.EndDate)
	if err != nil {
		return nil, fmt.Errorf("listing quarter incidents: %w", err)
	}
	currentHash, err := models.ComputeInputsHash(incidents)
	if err != nil {
		return nil, fmt.Errorf("computing inputs hash: %w", err)
	}

	status := &models.FinalizationStatus{
		QuarterID:         quarterID,
		CurrentInputsHash: currentHash,
	}

	finalization, err := s.quarters.GetFinalization(ctx, quarterID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return status, nil
		}
		return nil, err
	}

	status.Finalized = true
	status.FinalizedAt = &finalization.FinalizedAt
	status.FinalizedBy = finalization.FinalizedBy
	status.SnapshotInputsHash = finalization.InputsHash
	status.FactsChangedSinceFinalization = finalization.InputsHash != currentHash
	return status, nil
}

func (s *finalizationService) UnfinalizeQuarter(ctx context.Context, quarterID uuid.UUID) error {
	if err := s.quarters.DeleteFinalization(ctx, quarterID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrQuarterNotFinal
		}
		return err
	}
	s.logger.Warn("quarter unfinalized", zap.String("quarter_id", quarterID.String()))
	return nil
}

func (s *finalizationService) GetSnapshot(ctx context.Context, quarterID uuid.UUID) (*models.QuarterSnapshot, error) {
	return s.quarters.GetSnapshot(ctx, quarterID)
}

func (s *finalizationService) ComputeMetrics(ctx context.Context, quarterID uuid.UUID) (*models.QuarterMetrics, error) {
	quarter, err := s.quarters.GetQuarter(ctx, quarterID)
	if err != nil {
		return nil, err
	}
	incidents, err := s.incidents.ListByDateRange(ctx, quarter.StartDate, quarter.EndDate)
	if err != nil {
		return nil, fmt.Errorf("listing quarter incidents: %w", err)
	}
	return s.computeMetrics(ctx, incidents)
}

func (s *finalizationService) RangeMetrics(ctx context.Context, from, to time.Time) (*models.QuarterMetrics, error) {
	if !to.After(from) {
		return nil, apperrors.NewValidation("invalid metrics window", "to must follow from")
	}
	incidents, err := s.incidents.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing incidents in range: %w", err)
	}
	return s.computeMetrics(ctx, incidents)
}

func (s *finalizationService) computeMetrics(ctx context.Context, incidents []*models.Incident) (*models.QuarterMetrics, error) {
	m := &models.QuarterMetrics{
		TotalIncidents: len(incidents),
		BySeverity:     make(map[string]int),
		ByStatus:       make(map[string]int),
		ByPriority:     make(map[string]int),
	}

	var ackSum, resolveSum time.Duration
	var ackCount, resolveCount int

	for _, inc := range incidents {
		m.BySeverity[string(inc.Severity)]++
		m.ByStatus[string(inc.Status)]++
		m.ByPriority[string(inc.Priority())]++

		if inc.ResolvedAt != nil {
			m.ResolvedIncidents++
			resolveSum += inc.ResolvedAt.Sub(inc.StartedAt)
			resolveCount++
		}
		if inc.AcknowledgedAt != nil {
			ackSum += inc.AcknowledgedAt.Sub(inc.DetectedAt)
			ackCount++
		}
		if inc.ReopenCount > 0 {
			m.ReopenedIncidents++
		}

		sla, err := s.sla.ComputeStatus(ctx, inc)
		if err != nil {
			return nil, fmt.Errorf("sla status for %s: %w", inc.ID, err)
		}
		if sla.ResponseBreached {
			m.ResponseBreaches++
		}
		if sla.ResolutionBreached {
			m.ResolutionBreaches++
		}
	}

	if ackCount > 0 {
		mtta := ackSum.Minutes() / float64(ackCount)
		m.MTTAMinutes = &mtta
	}
	if resolveCount > 0 {
		mttr := resolveSum.Minutes() / float64(resolveCount)
		m.MTTRMinutes = &mttr
	}
	return m, nil
}

// missingOverrides returns the critical (rule_key, incident_id) pairs no
// override covers, in report order.
func missingOverrides(report *models.QuarterReadinessReport, overrides []*models.QuarterOverride) []models.OverrideKey {
	covered := make(map[models.OverrideKey]bool, len(overrides))
	for _, o := range overrides {
		covered[models.OverrideKey{RuleKey: o.RuleKey, IncidentID: o.IncidentID}] = true
	}

	var missing []models.OverrideKey
	for _, pair := range report.CriticalPairs() {
		if !covered[pair] {
			missing = append(missing, pair)
		}
	}
	return missing
}

func sortedIDs(incidents []*models.Incident) []uuid.UUID {
	ids := make([]uuid.UUID, len(incidents))
	for i, inc := range incidents {
		ids[i] = inc.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// notableIDs picks the top-N incidents by duration, ties broken by id
// ascending. Open incidents measure up to now.
func (s *finalizationService) notableIDs(incidents []*models.Incident) []uuid.UUID {
	now := s.now()

	type ranked struct {
		id       uuid.UUID
		duration time.Duration
	}
	rankedList := make([]ranked, len(incidents))
	for i, inc := range incidents {
		end := now
		if inc.ResolvedAt != nil {
			end = *inc.ResolvedAt
		}
		rankedList[i] = ranked{id: inc.ID, duration: end.Sub(inc.StartedAt)}
	}
	sort.Slice(rankedList, func(i, j int) bool {
		if rankedList[i].duration != rankedList[j].duration {
			return rankedList[i].duration > rankedList[j].duration
		}
		return rankedList[i].id.String() < rankedList[j].id.String()
	})

	n := s.notableCount
	if n > len(rankedList) {
		n = len(rankedList)
	}
	ids := make([]uuid.UUID, 0, n)
	for _, r := range rankedList[:n] {
		ids = append(ids, r.id)
	}
	return ids
}

func carriedOverIDs(incidents []*models.Incident, quarterEnd time.Time) []uuid.UUID {
	var ids []uuid.UUID
	for _, inc := range incidents {
		if ruleTripped(models.RuleCarriedOver, inc, quarterEnd) {
			ids = append(ids, inc.ID)
		}
	}
	return ids
}
