package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saagar210/IncidentManagement-sub000/pkg/apperrors"
	"github.com/saagar210/IncidentManagement-sub000/pkg/llm"
	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
)

// ============================================================================
// RunJob Handler Tests
// ============================================================================

func TestEnrichmentHandler_RunJob_Created(t *testing.T) {
	incidentID := uuid.New()
	job := &models.EnrichmentJob{
		ID:         uuid.New(),
		JobType:    models.JobExecutiveSummary,
		EntityType: models.EntityTypeIncident,
		EntityID:   incidentID,
		Status:     models.JobSucceeded,
		InputHash:  "feedbeef",
		OutputJSON: []byte(`{"summary":"payments degraded for 45 minutes"}`),
		ModelID:    "mock-model",
	}
	handler := NewEnrichmentHandler(&mockEnrichmentServiceForHandler{job: job}, zap.NewNop())

	body, _ := json.Marshal(RunJobRequest{JobType: models.JobExecutiveSummary, IncidentID: incidentID})
	req := httptest.NewRequest(http.MethodPost, "/api/enrichment/jobs", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.RunJob(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.Success)

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)

	var got models.EnrichmentJob
	require.NoError(t, json.Unmarshal(dataBytes, &got))
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, models.JobSucceeded, got.Status)
}

func TestEnrichmentHandler_RunJob_GeneratorOffline(t *testing.T) {
	handler := NewEnrichmentHandler(&mockEnrichmentServiceForHandler{runErr: apperrors.ErrGeneratorOffline}, zap.NewNop())

	body, _ := json.Marshal(RunJobRequest{JobType: models.JobExecutiveSummary, IncidentID: uuid.New()})
	req := httptest.NewRequest(http.MethodPost, "/api/enrichment/jobs", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.RunJob(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "generator_unavailable", errResp["error"])
}

func TestEnrichmentHandler_RunJob_UnknownType(t *testing.T) {
	handler := NewEnrichmentHandler(&mockEnrichmentServiceForHandler{
		runErr: apperrors.NewValidation("invalid job request", "unknown job type: summarize_everything"),
	}, zap.NewNop())

	body, _ := json.Marshal(RunJobRequest{JobType: "summarize_everything", IncidentID: uuid.New()})
	req := httptest.NewRequest(http.MethodPost, "/api/enrichment/jobs", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.RunJob(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "validation_failed", errResp["error"])
}

// ============================================================================
// GetJob / AcceptJob Handler Tests
// ============================================================================

func TestEnrichmentHandler_GetJob_InvalidID(t *testing.T) {
	handler := NewEnrichmentHandler(&mockEnrichmentServiceForHandler{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/enrichment/jobs/bogus", nil)
	req.SetPathValue("jid", "bogus")
	rec := httptest.NewRecorder()

	handler.GetJob(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrichmentHandler_GetJob_NotFound(t *testing.T) {
	handler := NewEnrichmentHandler(&mockEnrichmentServiceForHandler{getErr: apperrors.ErrNotFound}, zap.NewNop())

	jobID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/enrichment/jobs/"+jobID.String(), nil)
	req.SetPathValue("jid", jobID.String())
	rec := httptest.NewRecorder()

	handler.GetJob(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnrichmentHandler_AcceptJob_Success(t *testing.T) {
	jobID := uuid.New()
	incidentID := uuid.New()
	entries := []*models.FieldProvenance{
		{
			ID:         uuid.New(),
			EntityType: models.EntityTypeIncident,
			EntityID:   incidentID,
			FieldName:  "executive_summary",
			SourceType: models.SourceAI,
			JobID:      &jobID,
		},
	}
	handler := NewEnrichmentHandler(&mockEnrichmentServiceForHandler{provenance: entries[0]}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/enrichment/jobs/"+jobID.String()+"/accept", nil)
	req.SetPathValue("jid", jobID.String())
	rec := httptest.NewRecorder()

	handler.AcceptJob(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)

	var got []*models.FieldProvenance
	require.NoError(t, json.Unmarshal(dataBytes, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "executive_summary", got[0].FieldName)
	assert.Equal(t, models.SourceAI, got[0].SourceType)
}

func TestEnrichmentHandler_AcceptJob_NotAcceptable(t *testing.T) {
	handler := NewEnrichmentHandler(&mockEnrichmentServiceForHandler{acceptErr: apperrors.ErrJobNotAcceptable}, zap.NewNop())

	jobID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/enrichment/jobs/"+jobID.String()+"/accept", nil)
	req.SetPathValue("jid", jobID.String())
	rec := httptest.NewRecorder()

	handler.AcceptJob(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "job_not_acceptable", errResp["error"])
}

// ============================================================================
// Listing and Availability Handler Tests
// ============================================================================

func TestEnrichmentHandler_ListJobs_Success(t *testing.T) {
	incidentID := uuid.New()
	jobs := []*models.EnrichmentJob{
		{ID: uuid.New(), JobType: models.JobExecutiveSummary, EntityID: incidentID},
		{ID: uuid.New(), JobType: models.JobPostmortemDraft, EntityID: incidentID},
	}
	handler := NewEnrichmentHandler(&mockEnrichmentServiceForHandler{jobs: jobs}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/incidents/"+incidentID.String()+"/enrichment/jobs", nil)
	req.SetPathValue("id", incidentID.String())
	rec := httptest.NewRecorder()

	handler.ListJobs(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)

	var got []*models.EnrichmentJob
	require.NoError(t, json.Unmarshal(dataBytes, &got))
	assert.Len(t, got, 2)
}

func TestEnrichmentHandler_Availability_Passthrough(t *testing.T) {
	checkedAt := time.Now().UTC().Truncate(time.Second)
	handler := NewEnrichmentHandler(&mockEnrichmentServiceForHandler{
		availability: llm.Availability{Available: true, Model: "gpt-4o-mini", CheckedAt: checkedAt},
	}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/generator/availability", nil)
	rec := httptest.NewRecorder()

	handler.Availability(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)

	var got llm.Availability
	require.NoError(t, json.Unmarshal(dataBytes, &got))
	assert.True(t, got.Available)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.True(t, got.CheckedAt.Equal(checkedAt))
}
