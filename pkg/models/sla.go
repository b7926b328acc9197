package models

import (
	"time"

	"github.com/google/uuid"
)

// SlaDefinition holds the response/resolve targets for one priority.
// Definitions are versioned: upserting a priority deactivates the previous
// row and inserts a new active one.
type SlaDefinition struct {
	ID                   uuid.UUID `json:"id"`
	Priority             Priority  `json:"priority"`
	ResponseTargetMins   int       `json:"response_target_mins"`
	ResolutionTargetMins int       `json:"resolution_target_mins"`
	Version              int       `json:"version"`
	Active               bool      `json:"active"`
	CreatedAt            time.Time `json:"created_at"`
}

// SlaStatus is the live SLA picture for one incident. Open incidents are
// measured against wall-clock now, so breach flags can flip purely with the
// passage of time; treat this as a query result, never a cached fact.
type SlaStatus struct {
	Priority Priority `json:"priority"`

	// Targets are nil when no active definition exists for the priority.
	// Missing policy is not an error.
	ResponseTargetMins   *int `json:"response_target_mins,omitempty"`
	ResolutionTargetMins *int `json:"resolution_target_mins,omitempty"`

	ResponseElapsed   time.Duration `json:"response_elapsed_ns"`
	ResolutionElapsed time.Duration `json:"resolution_elapsed_ns"`

	ResponseBreached   bool `json:"response_breached"`
	ResolutionBreached bool `json:"resolution_breached"`
}
