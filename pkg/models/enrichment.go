package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobType is the closed set of enrichment job kinds.
type JobType string

const (
	JobExecutiveSummary     JobType = "incident_executive_summary"
	JobStakeholderUpdate    JobType = "stakeholder_update"
	JobPostmortemDraft      JobType = "postmortem_draft"
	JobFactorCategorization JobType = "factor_categorization"
)

// IsValid reports whether t is a known job type.
func (t JobType) IsValid() bool {
	switch t {
	case JobExecutiveSummary, JobStakeholderUpdate, JobPostmortemDraft, JobFactorCategorization:
		return true
	default:
		return false
	}
}

// RequiresGenerator reports whether the job type needs the text generator.
// factor_categorization is pure derivation from root_cause.
func (t JobType) RequiresGenerator() bool {
	return t != JobFactorCategorization
}

// JobStatus is the enrichment job state: running moves to exactly one of the
// terminal states, once.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// SourceType records which kind of actor produced a field value.
type SourceType string

const (
	SourceManual   SourceType = "manual"
	SourceImport   SourceType = "import"
	SourceComputed SourceType = "computed"
	SourceAI       SourceType = "ai"
)

// EntityTypeIncident is the only entity type the accept protocol supports.
const EntityTypeIncident = "incident"

// EnrichmentJob is one generation attempt. Rows are append-only history;
// only the running -> terminal transition mutates a row, exactly once.
type EnrichmentJob struct {
	ID            uuid.UUID  `json:"id"`
	JobType       JobType    `json:"job_type"`
	EntityType    string     `json:"entity_type"`
	EntityID      uuid.UUID  `json:"entity_id"`
	Status        JobStatus  `json:"status"`
	InputHash     string     `json:"input_hash"`
	OutputJSON    []byte     `json:"output_json,omitempty"`
	ModelID       string     `json:"model_id,omitempty"`
	PromptVersion string     `json:"prompt_version,omitempty"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// FieldProvenance is one append-only ledger row: which source produced the
// current value of a field, with a reference back to the originating job.
// Rows are never updated or deleted.
type FieldProvenance struct {
	ID         uuid.UUID  `json:"id"`
	EntityType string     `json:"entity_type"`
	EntityID   uuid.UUID  `json:"entity_id"`
	FieldName  string     `json:"field_name"`
	SourceType SourceType `json:"source_type"`
	JobID      *uuid.UUID `json:"job_id,omitempty"`
	InputHash  string     `json:"input_hash,omitempty"`
	ModelID    string     `json:"model_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ExecutiveSummaryOutput is the parsed payload of an executive summary job.
type ExecutiveSummaryOutput struct {
	Summary string `json:"summary"`
}

// StakeholderUpdateOutput is the parsed payload of a stakeholder update job.
type StakeholderUpdateOutput struct {
	Audience string `json:"audience"`
	Content  string `json:"content"`
}

// PostmortemDraftOutput is the parsed payload of a postmortem draft job.
type PostmortemDraftOutput struct {
	Summary         string `json:"summary"`
	Timeline        string `json:"timeline"`
	ImpactNarrative string `json:"impact_narrative"`
	LessonsLearned  string `json:"lessons_learned"`
}

// FactorCategorizationOutput is the computed payload of a factor
// categorization job.
type FactorCategorizationOutput struct {
	Factors []ContributingFactorOutput `json:"factors"`
}

// ContributingFactorOutput is one categorized factor.
type ContributingFactorOutput struct {
	Category    string `json:"category"`
	Description string `json:"description"`
}

// ParseJobOutput decodes raw job output into the tagged type for its job
// type. Parsing happens once at this boundary; accept handlers receive the
// typed value.
func ParseJobOutput(jobType JobType, raw []byte) (any, error) {
	switch jobType {
	case JobExecutiveSummary:
		var out ExecutiveSummaryOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode executive summary output: %w", err)
		}
		return &out, nil
	case JobStakeholderUpdate:
		var out StakeholderUpdateOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode stakeholder update output: %w", err)
		}
		return &out, nil
	case JobPostmortemDraft:
		var out PostmortemDraftOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode postmortem draft output: %w", err)
		}
		return &out, nil
	case JobFactorCategorization:
		var out FactorCategorizationOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode factor categorization output: %w", err)
		}
		return &out, nil
	default:
		return nil, fmt.Errorf("unknown job type %q", jobType)
	}
}

// IncidentEnrichment holds accepted AI content for an incident, kept apart
// from fact columns so metrics never depend on it. One row per incident.
type IncidentEnrichment struct {
	ID               uuid.UUID `json:"id"`
	IncidentID       uuid.UUID `json:"incident_id"`
	ExecutiveSummary string    `json:"executive_summary"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StakeholderUpdate is one accepted stakeholder communication draft.
type StakeholderUpdate struct {
	ID         uuid.UUID `json:"id"`
	IncidentID uuid.UUID `json:"incident_id"`
	Audience   string    `json:"audience"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Postmortem is the merged postmortem content for an incident. Accepting a
// draft merges non-empty sections over the existing row.
type Postmortem struct {
	ID              uuid.UUID `json:"id"`
	IncidentID      uuid.UUID `json:"incident_id"`
	Summary         string    `json:"summary"`
	Timeline        string    `json:"timeline"`
	ImpactNarrative string    `json:"impact_narrative"`
	LessonsLearned  string    `json:"lessons_learned"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ContributingFactor is one accepted categorized factor row.
type ContributingFactor struct {
	ID          uuid.UUID  `json:"id"`
	IncidentID  uuid.UUID  `json:"incident_id"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Source      SourceType `json:"source"`
	CreatedAt   time.Time  `json:"created_at"`
}
