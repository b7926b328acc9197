package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// incidentFacts is the canonical projection hashed for drift detection.
// It deliberately excludes narrative fields and anything AI-generated:
// prose edits must not perturb the hash, fact edits must.
type incidentFacts struct {
	ID                  string  `json:"id"`
	ServiceName         string  `json:"service_name"`
	Severity            string  `json:"severity"`
	Impact              string  `json:"impact"`
	Status              string  `json:"status"`
	StartedAt           string  `json:"started_at"`
	DetectedAt          string  `json:"detected_at"`
	AcknowledgedAt      *string `json:"acknowledged_at"`
	FirstResponseAt     *string `json:"first_response_at"`
	MitigationStartedAt *string `json:"mitigation_started_at"`
	RespondedAt         *string `json:"responded_at"`
	ResolvedAt          *string `json:"resolved_at"`
	ReopenedAt          *string `json:"reopened_at"`
	ExternalRef         string  `json:"external_ref"`
	ReopenCount         int     `json:"reopen_count"`
}

func factTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func factTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := factTime(*t)
	return &s
}

func projectFacts(inc *Incident) incidentFacts {
	return incidentFacts{
		ID:                  inc.ID.String(),
		ServiceName:         inc.ServiceName,
		Severity:            string(inc.Severity),
		Impact:              string(inc.Impact),
		Status:              string(inc.Status),
		StartedAt:           factTime(inc.StartedAt),
		DetectedAt:          factTime(inc.DetectedAt),
		AcknowledgedAt:      factTimePtr(inc.AcknowledgedAt),
		FirstResponseAt:     factTimePtr(inc.FirstResponseAt),
		MitigationStartedAt: factTimePtr(inc.MitigationStartedAt),
		RespondedAt:         factTimePtr(inc.RespondedAt),
		ResolvedAt:          factTimePtr(inc.ResolvedAt),
		ReopenedAt:          factTimePtr(inc.ReopenedAt),
		ExternalRef:         inc.ExternalRef,
		ReopenCount:         inc.ReopenCount,
	}
}

// ComputeInputsHash returns the stable SHA-256 digest over the sorted-by-id
// fact projection of the given incidents. Identical facts always produce an
// identical hash; any fact edit after finalization produces a different one.
func ComputeInputsHash(incidents []*Incident) (string, error) {
	facts := make([]incidentFacts, len(incidents))
	for i, inc := range incidents {
		facts[i] = projectFacts(inc)
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].ID < facts[j].ID })

	payload, err := json.Marshal(facts)
	if err != nil {
		return "", fmt.Errorf("marshal fact projection: %w", err)
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// ComputeEntityInputHash digests the fact projection of a single entity.
// Enrichment jobs record it so re-running a job on unchanged facts is
// detectable as redundant by callers.
func ComputeEntityInputHash(inc *Incident) (string, error) {
	payload, err := json.Marshal(projectFacts(inc))
	if err != nil {
		return "", fmt.Errorf("marshal fact projection: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
