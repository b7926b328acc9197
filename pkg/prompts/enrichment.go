// Package prompts builds the generation prompts for enrichment jobs.
package prompts

import (
	"fmt"
	"strings"
	"time"

	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
)

// SystemPrompt frames every enrichment request. Drafts must stay grounded in
// the supplied facts; the accept step keeps them out of metrics regardless.
const SystemPrompt = "You are an incident communications assistant. " +
	"Write only from the facts provided. Do not invent timestamps, causes, or impact figures. " +
	"Respond with JSON exactly matching the requested format."

// writeIncidentFacts renders the shared fact block.
func writeIncidentFacts(b *strings.Builder, inc *models.Incident) {
	b.WriteString("## Incident Facts\n\n")
	fmt.Fprintf(b, "Title: %s\n", inc.Title)
	fmt.Fprintf(b, "Service: %s\n", inc.ServiceName)
	fmt.Fprintf(b, "Severity: %s, Impact: %s, Priority: %s\n", inc.Severity, inc.Impact, inc.Priority())
	fmt.Fprintf(b, "Status: %s\n", inc.Status)
	fmt.Fprintf(b, "Started: %s\n", inc.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(b, "Detected: %s\n", inc.DetectedAt.UTC().Format(time.RFC3339))
	if inc.ResolvedAt != nil {
		fmt.Fprintf(b, "Resolved: %s\n", inc.ResolvedAt.UTC().Format(time.RFC3339))
	}
	if inc.ReopenCount > 0 {
		fmt.Fprintf(b, "Reopened %d time(s)\n", inc.ReopenCount)
	}
	if inc.AffectedUsers > 0 {
		fmt.Fprintf(b, "Affected users: %d\n", inc.AffectedUsers)
	}
	if inc.RootCause != "" {
		fmt.Fprintf(b, "\nRoot cause:\n%s\n", inc.RootCause)
	}
	if inc.Resolution != "" {
		fmt.Fprintf(b, "\nResolution:\n%s\n", inc.Resolution)
	}
	if inc.Lessons != "" {
		fmt.Fprintf(b, "\nLessons:\n%s\n", inc.Lessons)
	}
	b.WriteString("\n")
}

// BuildExecutiveSummaryPrompt asks for a short leadership-facing summary.
func BuildExecutiveSummaryPrompt(inc *models.Incident) string {
	var b strings.Builder
	b.WriteString("# Executive Summary\n\n")
	b.WriteString("Write a 2-4 sentence executive summary of this incident for a quarterly leadership report.\n\n")
	writeIncidentFacts(&b, inc)
	b.WriteString("## Response Format\n\n")
	b.WriteString("Respond with JSON:\n")
	b.WriteString("{\"summary\": \"...\"}\n")
	return b.String()
}

// BuildStakeholderUpdatePrompt asks for a customer-facing status update.
func BuildStakeholderUpdatePrompt(inc *models.Incident) string {
	var b strings.Builder
	b.WriteString("# Stakeholder Update\n\n")
	b.WriteString("Write a brief status update for affected stakeholders. Plain language, no internal jargon.\n\n")
	writeIncidentFacts(&b, inc)
	b.WriteString("## Response Format\n\n")
	b.WriteString("Respond with JSON:\n")
	b.WriteString("{\"audience\": \"customers\", \"content\": \"...\"}\n")
	return b.String()
}

// BuildPostmortemDraftPrompt asks for a structured postmortem draft.
func BuildPostmortemDraftPrompt(inc *models.Incident) string {
	var b strings.Builder
	b.WriteString("# Postmortem Draft\n\n")
	b.WriteString("Draft a postmortem from the facts below. Leave a section empty when the facts do not cover it.\n\n")
	writeIncidentFacts(&b, inc)
	b.WriteString("## Response Format\n\n")
	b.WriteString("Respond with JSON:\n")
	b.WriteString("{\"summary\": \"...\", \"timeline\": \"...\", \"impact_narrative\": \"...\", \"lessons_learned\": \"...\"}\n")
	return b.String()
}
