package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saagar210/IncidentManagement-sub000/pkg/apperrors"
	"github.com/saagar210/IncidentManagement-sub000/pkg/llm"
	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
	"github.com/saagar210/IncidentManagement-sub000/pkg/prompts"
	"github.com/saagar210/IncidentManagement-sub000/pkg/repositories"
)

// AvailabilityProvider exposes the latest generator health snapshot.
// Satisfied by llm.HealthMonitor.
type AvailabilityProvider interface {
	Current() llm.Availability
}

// EnrichmentService runs enrichment jobs and applies accepted outputs to the
// domain with provenance.
type EnrichmentService interface {
	// RunJob creates a job, executes it, and returns the terminal job row.
	// A generation failure is captured in the row, not returned as an
	// error; only pre-flight validation errors out.
	RunJob(ctx context.Context, jobType models.JobType, incidentID uuid.UUID) (*models.EnrichmentJob, error)
	// AcceptJob writes a succeeded job's output into the domain and appends
	// the provenance ledger entry, atomically. Accepting the same job again
	// re-applies the same content and appends another ledger row.
	AcceptJob(ctx context.Context, jobID uuid.UUID) (*models.FieldProvenance, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.EnrichmentJob, error)
	ListJobs(ctx context.Context, incidentID uuid.UUID) ([]*models.EnrichmentJob, error)
	ListProvenance(ctx context.Context, incidentID uuid.UUID) ([]*models.FieldProvenance, error)
	Availability() llm.Availability
}

type enrichmentService struct {
	repo          repositories.EnrichmentRepository
	incidents     repositories.IncidentRepository
	generator     llm.Generator
	health        AvailabilityProvider
	tx            TxRunner
	promptVersion string
	logger        *zap.Logger
}

// NewEnrichmentService creates a new EnrichmentService.
func NewEnrichmentService(
	repo repositories.EnrichmentRepository,
	incidents repositories.IncidentRepository,
	generator llm.Generator,
	health AvailabilityProvider,
	tx TxRunner,
	promptVersion string,
	logger *zap.Logger,
) EnrichmentService {
	return &enrichmentService{
		repo:          repo,
		incidents:     incidents,
		generator:     generator,
		health:        health,
		tx:            tx,
		promptVersion: promptVersion,
		logger:        logger.Named("enrichment-service"),
	}
}

var _ EnrichmentService = (*enrichmentService)(nil)

func (s *enrichmentService) RunJob(ctx context.Context, jobType models.JobType, incidentID uuid.UUID) (*models.EnrichmentJob, error) {
	if !jobType.IsValid() {
		return nil, apperrors.NewValidation(fmt.Sprintf("unknown job type %q", jobType))
	}

	inc, err := s.incidents.GetByID(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	if jobType.RequiresGenerator() && !s.health.Current().Available {
		return nil, apperrors.ErrGeneratorOffline
	}

	inputHash, err := models.ComputeEntityInputHash(inc)
	if err != nil {
		return nil, fmt.Errorf("computing input hash: %w", err)
	}

	job := &models.EnrichmentJob{
		JobType:       jobType,
		EntityType:    models.EntityTypeIncident,
		EntityID:      incidentID,
		Status:        models.JobRunning,
		InputHash:     inputHash,
		PromptVersion: s.promptVersion,
	}
	if jobType.RequiresGenerator() {
		job.ModelID = s.generator.Model()
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	output, runErr := s.execute(ctx, jobType, inc)
	if runErr != nil {
		if err := s.repo.CompleteJob(ctx, job.ID, models.JobFailed, nil, runErr.Error()); err != nil {
			return nil, fmt.Errorf("recording job failure: %w", err)
		}
		job.Status = models.JobFailed
		job.Error = runErr.Error()
		s.logger.Warn("enrichment job failed",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(jobType)),
			zap.Error(runErr))
		return job, nil
	}

	if err := s.repo.CompleteJob(ctx, job.ID, models.JobSucceeded, output, ""); err != nil {
		return nil, fmt.Errorf("recording job success: %w", err)
	}
	job.Status = models.JobSucceeded
	job.OutputJSON = output

	s.logger.Info("enrichment job succeeded",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(jobType)),
		zap.String("incident_id", incidentID.String()))
	return job, nil
}

// execute produces the job's output JSON. Generator-backed jobs round-trip
// the response through the typed output so malformed shapes fail here, not
// at accept time.
func (s *enrichmentService) execute(ctx context.Context, jobType models.JobType, inc *models.Incident) ([]byte, error) {
	if jobType == models.JobFactorCategorization {
		if inc.RootCause == "" {
			return nil, fmt.Errorf("root_cause is empty")
		}
		out := models.FactorCategorizationOutput{Factors: CategorizeFactors(inc.RootCause)}
		return json.Marshal(out)
	}

	var prompt string
	switch jobType {
	case models.JobExecutiveSummary:
		prompt = prompts.BuildExecutiveSummaryPrompt(inc)
	case models.JobStakeholderUpdate:
		prompt = prompts.BuildStakeholderUpdatePrompt(inc)
	case models.JobPostmortemDraft:
		prompt = prompts.BuildPostmortemDraftPrompt(inc)
	default:
		return nil, fmt.Errorf("unknown job type %q", jobType)
	}

	response, err := s.generator.Generate(ctx, prompt, prompts.SystemPrompt)
	if err != nil {
		return nil, err
	}

	raw, err := llm.ExtractJSON(response)
	if err != nil {
		return nil, err
	}

	parsed, err := models.ParseJobOutput(jobType, []byte(raw))
	if err != nil {
		return nil, err
	}
	return json.Marshal(parsed)
}

func (s *enrichmentService) AcceptJob(ctx context.Context, jobID uuid.UUID) (*models.FieldProvenance, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.EntityType != models.EntityTypeIncident || job.Status != models.JobSucceeded {
		return nil, apperrors.ErrJobNotAcceptable
	}

	parsed, err := models.ParseJobOutput(job.JobType, job.OutputJSON)
	if err != nil {
		return nil, fmt.Errorf("parsing job output: %w", err)
	}

	source := models.SourceAI
	if !job.JobType.RequiresGenerator() {
		source = models.SourceComputed
	}

	provenance := &models.FieldProvenance{
		EntityType: models.EntityTypeIncident,
		EntityID:   job.EntityID,
		FieldName:  acceptedFieldName(job.JobType),
		SourceType: source,
		JobID:      &job.ID,
		InputHash:  job.InputHash,
		ModelID:    job.ModelID,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		switch out := parsed.(type) {
		case *models.ExecutiveSummaryOutput:
			if err := s.repo.UpsertExecutiveSummary(ctx, job.EntityID, out.Summary); err != nil {
				return err
			}
		case *models.StakeholderUpdateOutput:
			u := &models.StakeholderUpdate{
				IncidentID: job.EntityID,
				Audience:   out.Audience,
				Content:    out.Content,
			}
			if err := s.repo.InsertStakeholderUpdate(ctx, u); err != nil {
				return err
			}
		case *models.PostmortemDraftOutput:
			if err := s.repo.MergePostmortem(ctx, job.EntityID, out); err != nil {
				return err
			}
		case *models.FactorCategorizationOutput:
			if err := s.repo.InsertContributingFactors(ctx, job.EntityID, source, out.Factors); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported output type %T", parsed)
		}
		return s.repo.AppendProvenance(ctx, provenance)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("enrichment job accepted",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.JobType)),
		zap.String("field", provenance.FieldName),
		zap.String("source", string(source)))
	return provenance, nil
}

func (s *enrichmentService) GetJob(ctx context.Context, jobID uuid.UUID) (*models.EnrichmentJob, error) {
	return s.repo.GetJob(ctx, jobID)
}

func (s *enrichmentService) ListJobs(ctx context.Context, incidentID uuid.UUID) ([]*models.EnrichmentJob, error) {
	return s.repo.ListJobsForEntity(ctx, models.EntityTypeIncident, incidentID)
}

func (s *enrichmentService) ListProvenance(ctx context.Context, incidentID uuid.UUID) ([]*models.FieldProvenance, error) {
	return s.repo.ListProvenance(ctx, models.EntityTypeIncident, incidentID)
}

func (s *enrichmentService) Availability() llm.Availability {
	return s.health.Current()
}

func acceptedFieldName(jobType models.JobType) string {
	switch jobType {
	case models.JobExecutiveSummary:
		return "executive_summary"
	case models.JobStakeholderUpdate:
		return "stakeholder_update"
	case models.JobPostmortemDraft:
		return "postmortem"
	case models.JobFactorCategorization:
		return "contributing_factors"
	default:
		return string(jobType)
	}
}
