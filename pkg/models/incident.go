// Package models contains the domain types for the incident reporting engine.
package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/saagar210/IncidentManagement-sub000/pkg/apperrors"
)

// Status is the incident lifecycle state.
type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusMonitoring   Status = "monitoring"
	StatusResolved     Status = "resolved"
	StatusPostMortem   Status = "post_mortem"
)

// ParseStatus decodes a stored status string. Unknown values decay to active.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusActive, StatusAcknowledged, StatusMonitoring, StatusResolved, StatusPostMortem:
		return Status(s)
	default:
		return StatusActive
	}
}

// allowedTransitions is the per-state allow-list. A status change not listed
// here fails validation; staying in the same status is always permitted.
var allowedTransitions = map[Status][]Status{
	StatusActive:       {StatusAcknowledged, StatusMonitoring, StatusResolved},
	StatusAcknowledged: {StatusActive, StatusMonitoring, StatusResolved},
	StatusMonitoring:   {StatusActive, StatusAcknowledged, StatusResolved},
	StatusResolved:     {StatusMonitoring, StatusPostMortem, StatusActive},
	StatusPostMortem:   {StatusResolved, StatusActive},
}

// CanTransition reports whether moving between the two statuses is allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the allow-list for a status, sorted for stable
// error messages.
func AllowedTransitions(from Status) []Status {
	out := make([]Status, len(allowedTransitions[from]))
	copy(out, allowedTransitions[from])
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsReopen reports whether a transition counts as reopening: leaving a
// terminal-ish state for an active one.
func IsReopen(from, to Status) bool {
	terminal := from == StatusResolved || from == StatusPostMortem
	active := to == StatusActive || to == StatusAcknowledged || to == StatusMonitoring
	return terminal && active
}

// Incident is the aggregate root. Priority is always recomputed from
// severity and impact; the stored column exists only for reporting queries.
type Incident struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	ServiceName string    `json:"service_name"`
	ExternalRef string    `json:"external_ref,omitempty"`

	Severity Severity `json:"severity"`
	Impact   Impact   `json:"impact"`
	Status   Status   `json:"status"`

	StartedAt           time.Time  `json:"started_at"`
	DetectedAt          time.Time  `json:"detected_at"`
	AcknowledgedAt      *time.Time `json:"acknowledged_at,omitempty"`
	FirstResponseAt     *time.Time `json:"first_response_at,omitempty"`
	MitigationStartedAt *time.Time `json:"mitigation_started_at,omitempty"`
	RespondedAt         *time.Time `json:"responded_at,omitempty"`
	ResolvedAt          *time.Time `json:"resolved_at,omitempty"`
	ReopenedAt          *time.Time `json:"reopened_at,omitempty"`

	ReopenCount int `json:"reopen_count"`

	// RecurrenceOf is a non-enforced hint linking to an earlier incident.
	// No cycle detection: recurrence is a tag, not a DAG.
	RecurrenceOf *uuid.UUID `json:"recurrence_of,omitempty"`

	RootCause  string `json:"root_cause,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Lessons    string `json:"lessons,omitempty"`
	Notes      string `json:"notes,omitempty"`

	TicketCount   int `json:"ticket_count"`
	AffectedUsers int `json:"affected_users"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Priority returns the derived priority for the incident's current facts.
func (i *Incident) Priority() Priority {
	return DerivePriority(i.Severity, i.Impact)
}

// ValidateTimestamps checks the ordering invariants over the incident's
// current (merged) values. Callers apply requested changes first, then
// validate, so a partial update cannot sneak in a violation.
func (i *Incident) ValidateTimestamps() error {
	var details []string
	if i.StartedAt.IsZero() {
		details = append(details, "started_at is required")
	}
	if i.DetectedAt.IsZero() {
		details = append(details, "detected_at is required")
	}
	if !i.StartedAt.IsZero() && !i.DetectedAt.IsZero() && i.DetectedAt.Before(i.StartedAt) {
		details = append(details, "detected_at must not precede started_at")
	}
	if i.RespondedAt != nil && i.RespondedAt.Before(i.DetectedAt) {
		details = append(details, "responded_at must not precede detected_at")
	}
	if i.ResolvedAt != nil && i.ResolvedAt.Before(i.StartedAt) {
		details = append(details, "resolved_at must not precede started_at")
	}
	if len(details) > 0 {
		return apperrors.NewValidation("timestamp ordering violation", details...)
	}
	return nil
}

// ValidateRequired checks the fields a reportable incident must carry.
func (i *Incident) ValidateRequired() error {
	var details []string
	if i.Title == "" {
		details = append(details, "title is required")
	}
	if i.ServiceName == "" {
		details = append(details, "service_name is required")
	}
	if i.Severity == "" {
		details = append(details, "severity is required")
	}
	if i.Impact == "" {
		details = append(details, "impact is required")
	}
	if i.Status == "" {
		details = append(details, "status is required")
	}
	if len(details) > 0 {
		return apperrors.NewValidation("missing required fields", details...)
	}
	return nil
}

// ValidateTransition checks the status allow-list and returns a validation
// error naming the permitted set when the move is disallowed.
func ValidateTransition(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	allowed := AllowedTransitions(from)
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = string(s)
	}
	return apperrors.NewValidation(
		fmt.Sprintf("transition %s -> %s is not allowed", from, to),
		fmt.Sprintf("allowed from %s: %v", from, names),
	)
}
