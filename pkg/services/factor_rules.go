package services

import (
	"fmt"
	"strings"

	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
)

// factorRule maps root-cause keywords to a contributing-factor category.
// Rules are ordered; a root cause can match several categories.
type factorRule struct {
	category string
	keywords []string
}

var factorRules = []factorRule{
	{"change_management", []string{"deploy", "rollout", "release", "migration"}},
	{"configuration", []string{"config", "misconfigur", "flag", "setting"}},
	{"capacity", []string{"capacity", "overload", "traffic spike", "memory", "disk", "saturat"}},
	{"external_dependency", []string{"dependency", "upstream", "third-party", "vendor", "provider outage"}},
	{"network", []string{"network", "dns", "timeout", "connection", "latency"}},
	{"software_defect", []string{"bug", "regression", "race condition", "nil pointer", "null pointer", "leak"}},
	{"process", []string{"manual", "operator", "human error", "runbook"}},
}

// CategorizeFactors derives contributing factors from free-text root cause by
// keyword matching. Pure and deterministic: the same text always yields the
// same factors, which is what makes this a computed (not ai) source.
func CategorizeFactors(rootCause string) []models.ContributingFactorOutput {
	lowered := strings.ToLower(rootCause)

	var factors []models.ContributingFactorOutput
	for _, rule := range factorRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				factors = append(factors, models.ContributingFactorOutput{
					Category:    rule.category,
					Description: fmt.Sprintf("root cause mentions %q", kw),
				})
				break
			}
		}
	}
	if len(factors) == 0 {
		factors = append(factors, models.ContributingFactorOutput{
			Category:    "unclassified",
			Description: "no known factor keywords in root cause",
		})
	}
	return factors
}
