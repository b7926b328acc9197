package models

import (
	"time"

	"github.com/google/uuid"
)

// SnapshotSchemaVersion identifies the snapshot JSON layout. Bump when the
// serialized content changes shape.
const SnapshotSchemaVersion = 1

// Readiness rule keys. Each maps to one independent predicate evaluated per
// incident in the quarter window.
const (
	RuleMissingRequiredFields      = "missing_required_fields"
	RuleTimestampOrdering          = "timestamp_ordering"
	RuleResolvedRequiresResolvedAt = "resolved_requires_resolved_at"
	RuleCarriedOver                = "carried_over"
)

// FindingSeverity classifies a readiness finding.
type FindingSeverity string

const (
	FindingCritical FindingSeverity = "critical"
	FindingWarning  FindingSeverity = "warning"
)

// QuarterConfig bounds a fiscal quarter's date-range queries.
// (FiscalYear, QuarterNumber) is unique.
type QuarterConfig struct {
	ID            uuid.UUID `json:"id"`
	FiscalYear    int       `json:"fiscal_year"`
	QuarterNumber int       `json:"quarter_number"`
	Label         string    `json:"label"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReadinessFinding is one rule-keyed defect report carrying every offending
// incident and a fixed remediation hint.
type ReadinessFinding struct {
	RuleKey     string          `json:"rule_key"`
	Severity    FindingSeverity `json:"severity"`
	Message     string          `json:"message"`
	IncidentIDs []uuid.UUID     `json:"incident_ids"`
	Remediation string          `json:"remediation"`
}

// QuarterReadinessReport is recomputed on demand and never persisted; only
// the snapshot taken at finalize time is stored.
type QuarterReadinessReport struct {
	QuarterID      uuid.UUID          `json:"quarter_id"`
	TotalIncidents int                `json:"total_incidents"`
	ReadyCount     int                `json:"ready_count"`
	NeedsAttention int                `json:"needs_attention"`
	Findings       []ReadinessFinding `json:"findings"`
	GeneratedAt    time.Time          `json:"generated_at"`
}

// CriticalPairs returns every (rule_key, incident_id) pair behind a critical
// finding; each must be matched by an override before finalization.
func (r *QuarterReadinessReport) CriticalPairs() []OverrideKey {
	var pairs []OverrideKey
	for _, f := range r.Findings {
		if f.Severity != FindingCritical {
			continue
		}
		for _, id := range f.IncidentIDs {
			pairs = append(pairs, OverrideKey{RuleKey: f.RuleKey, IncidentID: id})
		}
	}
	return pairs
}

// OverrideKey is the composite key an override must match.
type OverrideKey struct {
	RuleKey    string    `json:"rule_key"`
	IncidentID uuid.UUID `json:"incident_id"`
}

// QuarterOverride is a human-authored exception satisfying the finalize gate
// for one critical finding pair. Upserts on (quarter, rule_key, incident).
type QuarterOverride struct {
	ID         uuid.UUID `json:"id"`
	QuarterID  uuid.UUID `json:"quarter_id"`
	RuleKey    string    `json:"rule_key"`
	IncidentID uuid.UUID `json:"incident_id"`
	Reason     string    `json:"reason"`
	ApprovedBy string    `json:"approved_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// QuarterMetrics is the dashboard aggregate frozen into the snapshot.
type QuarterMetrics struct {
	TotalIncidents     int             `json:"total_incidents"`
	ResolvedIncidents  int             `json:"resolved_incidents"`
	BySeverity         map[string]int  `json:"by_severity"`
	ByStatus           map[string]int  `json:"by_status"`
	ByPriority         map[string]int  `json:"by_priority"`
	MTTAMinutes        *float64        `json:"mtta_minutes,omitempty"`
	MTTRMinutes        *float64        `json:"mttr_minutes,omitempty"`
	ResponseBreaches   int             `json:"response_breaches"`
	ResolutionBreaches int             `json:"resolution_breaches"`
	ReopenedIncidents  int             `json:"reopened_incidents"`
}

// SnapshotContent is the serialized quarter record: readiness, overrides,
// metrics and the ordered incident-id lists at finalize time.
type SnapshotContent struct {
	SchemaVersion int                    `json:"schema_version"`
	Quarter       QuarterConfig          `json:"quarter"`
	Readiness     QuarterReadinessReport `json:"readiness"`
	Overrides     []QuarterOverride      `json:"overrides"`
	Metrics       QuarterMetrics         `json:"metrics"`
	IncidentIDs   []uuid.UUID            `json:"incident_ids"`
	NotableIDs    []uuid.UUID            `json:"notable_ids"`
	CarriedOver   []uuid.UUID            `json:"carried_over_ids"`
	GeneratedAt   time.Time              `json:"generated_at"`
}

// QuarterSnapshot is the one-per-quarter frozen record; re-finalizing
// replaces it.
type QuarterSnapshot struct {
	ID            uuid.UUID `json:"id"`
	QuarterID     uuid.UUID `json:"quarter_id"`
	SchemaVersion int       `json:"schema_version"`
	InputsHash    string    `json:"inputs_hash"`
	SnapshotJSON  []byte    `json:"snapshot_json"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// QuarterFinalization marks a quarter closed. Its presence is the
// finalized/unfinalized boolean.
type QuarterFinalization struct {
	ID          uuid.UUID `json:"id"`
	QuarterID   uuid.UUID `json:"quarter_id"`
	SnapshotID  uuid.UUID `json:"snapshot_id"`
	InputsHash  string    `json:"inputs_hash"`
	FinalizedAt time.Time `json:"finalized_at"`
	FinalizedBy string    `json:"finalized_by"`
	Notes       string    `json:"notes,omitempty"`
}

// FinalizationStatus is the drift-detection view a report consumer must
// display prominently.
type FinalizationStatus struct {
	QuarterID                     uuid.UUID  `json:"quarter_id"`
	Finalized                     bool       `json:"finalized"`
	FinalizedAt                   *time.Time `json:"finalized_at,omitempty"`
	FinalizedBy                   string     `json:"finalized_by,omitempty"`
	SnapshotInputsHash            string     `json:"snapshot_inputs_hash,omitempty"`
	CurrentInputsHash             string     `json:"current_inputs_hash"`
	FactsChangedSinceFinalization bool       `json:"facts_changed_since_finalization"`
}
