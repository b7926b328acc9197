package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
	"github.com/saagar210/IncidentManagement-sub000/pkg/services"
)

// RunJobRequest for POST /enrichment/jobs
type RunJobRequest struct {
	JobType    models.JobType `json:"job_type"`
	IncidentID uuid.UUID      `json:"incident_id"`
}

// EnrichmentHandler handles enrichment job and provenance HTTP requests.
type EnrichmentHandler struct {
	enrichmentService services.EnrichmentService
	logger            *zap.Logger
}

// NewEnrichmentHandler creates a new enrichment handler.
func NewEnrichmentHandler(enrichmentService services.EnrichmentService, logger *zap.Logger) *EnrichmentHandler {
	return &EnrichmentHandler{
		enrichmentService: enrichmentService,
		logger:            logger,
	}
}

// RegisterRoutes registers the enrichment handler's routes on the given mux.
func (h *EnrichmentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/enrichment/jobs", h.RunJob)
	mux.HandleFunc("GET /api/enrichment/jobs/{jid}", h.GetJob)
	mux.HandleFunc("POST /api/enrichment/jobs/{jid}/accept", h.AcceptJob)
	mux.HandleFunc("GET /api/incidents/{id}/enrichment/jobs", h.ListJobs)
	mux.HandleFunc("GET /api/incidents/{id}/provenance", h.ListProvenance)
	mux.HandleFunc("GET /api/generator/availability", h.Availability)
}

// RunJob handles POST /api/enrichment/jobs
func (h *EnrichmentHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	var req RunJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	job, err := h.enrichmentService.RunJob(r.Context(), req.JobType, req.IncidentID)
	if err != nil {
		writeServiceError(w, h.logger, "run_job_failed", err)
		return
	}

	// A failed generation is still a created job; the row carries the error.
	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: job}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetJob handles GET /api/enrichment/jobs/{jid}
func (h *EnrichmentHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := ParseJobID(w, r, h.logger)
	if !ok {
		return
	}

	job, err := h.enrichmentService.GetJob(r.Context(), jobID)
	if err != nil {
		writeServiceError(w, h.logger, "get_job_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: job}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AcceptJob handles POST /api/enrichment/jobs/{jid}/accept
func (h *EnrichmentHandler) AcceptJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := ParseJobID(w, r, h.logger)
	if !ok {
		return
	}

	provenance, err := h.enrichmentService.AcceptJob(r.Context(), jobID)
	if err != nil {
		writeServiceError(w, h.logger, "accept_job_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: provenance}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListJobs handles GET /api/incidents/{id}/enrichment/jobs
func (h *EnrichmentHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	incidentID, ok := ParseIncidentID(w, r, h.logger)
	if !ok {
		return
	}

	jobs, err := h.enrichmentService.ListJobs(r.Context(), incidentID)
	if err != nil {
		writeServiceError(w, h.logger, "list_jobs_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: jobs}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListProvenance handles GET /api/incidents/{id}/provenance
func (h *EnrichmentHandler) ListProvenance(w http.ResponseWriter, r *http.Request) {
	incidentID, ok := ParseIncidentID(w, r, h.logger)
	if !ok {
		return
	}

	entries, err := h.enrichmentService.ListProvenance(r.Context(), incidentID)
	if err != nil {
		writeServiceError(w, h.logger, "list_provenance_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: entries}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Availability handles GET /api/generator/availability
func (h *EnrichmentHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: h.enrichmentService.Availability()}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
