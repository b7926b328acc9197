package models

// Severity describes how bad an incident is on its own terms.
type Severity string

// Impact describes how widely an incident is felt.
type Impact string

// Priority is derived from severity and impact, never stored from user input.
type Priority string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

const (
	ImpactCritical Impact = "critical"
	ImpactHigh     Impact = "high"
	ImpactMedium   Impact = "medium"
	ImpactLow      Impact = "low"
)

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
)

// ParseSeverity decodes a stored severity string. Unknown values decay to
// medium rather than failing: legacy rows must stay readable.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(s)
	default:
		return SeverityMedium
	}
}

// ParseImpact decodes a stored impact string with the same decay rule.
func ParseImpact(s string) Impact {
	switch Impact(s) {
	case ImpactCritical, ImpactHigh, ImpactMedium, ImpactLow:
		return Impact(s)
	default:
		return ImpactMedium
	}
}

// priorityMatrix is the fixed 4x4 severity/impact mapping.
var priorityMatrix = map[Severity]map[Impact]Priority{
	SeverityCritical: {
		ImpactCritical: PriorityP0,
		ImpactHigh:     PriorityP1,
		ImpactMedium:   PriorityP1,
		ImpactLow:      PriorityP2,
	},
	SeverityHigh: {
		ImpactCritical: PriorityP1,
		ImpactHigh:     PriorityP1,
		ImpactMedium:   PriorityP2,
		ImpactLow:      PriorityP3,
	},
	SeverityMedium: {
		ImpactCritical: PriorityP2,
		ImpactHigh:     PriorityP2,
		ImpactMedium:   PriorityP3,
		ImpactLow:      PriorityP3,
	},
	SeverityLow: {
		ImpactCritical: PriorityP3,
		ImpactHigh:     PriorityP3,
		ImpactMedium:   PriorityP4,
		ImpactLow:      PriorityP4,
	},
}

// DerivePriority maps (severity, impact) to a priority. Total and pure:
// unknown inputs decay to medium before the lookup, so every call returns
// one of P0..P4. Callers must recompute this whenever priority is shown or
// persisted; stored priority values are never trusted.
func DerivePriority(severity Severity, impact Impact) Priority {
	row, ok := priorityMatrix[severity]
	if !ok {
		row = priorityMatrix[SeverityMedium]
	}
	p, ok := row[impact]
	if !ok {
		p = row[ImpactMedium]
	}
	return p
}
