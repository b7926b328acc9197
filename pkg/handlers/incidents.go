package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
	"github.com/saagar210/IncidentManagement-sub000/pkg/repositories"
	"github.com/saagar210/IncidentManagement-sub000/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// CreateIncidentRequest for POST /incidents
type CreateIncidentRequest struct {
	Title       string `json:"title"`
	ServiceName string `json:"service_name"`
	ExternalRef string `json:"external_ref,omitempty"`

	Severity string `json:"severity"`
	Impact   string `json:"impact"`
	Status   string `json:"status,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	DetectedAt time.Time `json:"detected_at"`

	RecurrenceOf *uuid.UUID `json:"recurrence_of,omitempty"`

	RootCause  string `json:"root_cause,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Lessons    string `json:"lessons,omitempty"`
	Notes      string `json:"notes,omitempty"`

	TicketCount   int `json:"ticket_count,omitempty"`
	AffectedUsers int `json:"affected_users,omitempty"`
}

// BulkStatusRequest for POST /incidents/bulk-status
type BulkStatusRequest struct {
	IncidentIDs []uuid.UUID   `json:"incident_ids"`
	Status      models.Status `json:"status"`
}

// IncidentListResponse for GET /incidents
type IncidentListResponse struct {
	Incidents []*models.Incident `json:"incidents"`
	Total     int                `json:"total"`
}

// SimilarIncidentResponse is one ranked full-text match.
type SimilarIncidentResponse struct {
	Incident *models.Incident `json:"incident"`
	Rank     float32          `json:"rank"`
}

// ============================================================================
// Handler
// ============================================================================

// IncidentHandler handles incident HTTP requests.
type IncidentHandler struct {
	incidentService services.IncidentService
	slaService      services.SlaService
	logger          *zap.Logger
}

// NewIncidentHandler creates a new incident handler.
func NewIncidentHandler(
	incidentService services.IncidentService,
	slaService services.SlaService,
	logger *zap.Logger,
) *IncidentHandler {
	return &IncidentHandler{
		incidentService: incidentService,
		slaService:      slaService,
		logger:          logger,
	}
}

// RegisterRoutes registers the incident handler's routes on the given mux.
func (h *IncidentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/incidents", h.Create)
	mux.HandleFunc("GET /api/incidents", h.List)
	mux.HandleFunc("GET /api/incidents/search", h.Search)
	mux.HandleFunc("POST /api/incidents/bulk-status", h.BulkStatus)
	mux.HandleFunc("GET /api/incidents/{id}", h.Get)
	mux.HandleFunc("PATCH /api/incidents/{id}", h.Update)
	mux.HandleFunc("DELETE /api/incidents/{id}", h.Delete)
	mux.HandleFunc("POST /api/incidents/{id}/restore", h.Restore)
	mux.HandleFunc("DELETE /api/incidents/{id}/purge", h.Purge)

	mux.HandleFunc("GET /api/sla-definitions", h.ListSlaDefinitions)
	mux.HandleFunc("PUT /api/sla-definitions/{priority}", h.UpsertSlaDefinition)
}

// Create handles POST /api/incidents
func (h *IncidentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	inc := &models.Incident{
		Title:         req.Title,
		ServiceName:   req.ServiceName,
		ExternalRef:   req.ExternalRef,
		Severity:      models.Severity(req.Severity),
		Impact:        models.Impact(req.Impact),
		Status:        models.Status(req.Status),
		StartedAt:     req.StartedAt,
		DetectedAt:    req.DetectedAt,
		RecurrenceOf:  req.RecurrenceOf,
		RootCause:     req.RootCause,
		Resolution:    req.Resolution,
		Lessons:       req.Lessons,
		Notes:         req.Notes,
		TicketCount:   req.TicketCount,
		AffectedUsers: req.AffectedUsers,
	}

	created, err := h.incidentService.Create(r.Context(), inc)
	if err != nil {
		writeServiceError(w, h.logger, "create_incident_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/incidents/{id}
func (h *IncidentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIncidentID(w, r, h.logger)
	if !ok {
		return
	}

	detail, err := h.incidentService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "get_incident_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: detail}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PATCH /api/incidents/{id}
func (h *IncidentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIncidentID(w, r, h.logger)
	if !ok {
		return
	}

	var update services.IncidentUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	inc, err := h.incidentService.Update(r.Context(), id, &update)
	if err != nil {
		writeServiceError(w, h.logger, "update_incident_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: inc}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/incidents
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.IncidentFilter{
		ServiceName: r.URL.Query().Get("service"),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = models.ParseStatus(s)
	}
	if s := r.URL.Query().Get("severity"); s != "" {
		filter.Severity = models.ParseSeverity(s)
	}
	if s := r.URL.Query().Get("started_from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "started_from must be RFC 3339"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		filter.StartedFrom = &t
	}
	if s := r.URL.Query().Get("started_to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "started_to must be RFC 3339"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		filter.StartedTo = &t
	}
	filter.IncludeDeleted = r.URL.Query().Get("include_deleted") == "true"

	incidents, err := h.incidentService.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.logger, "list_incidents_failed", err)
		return
	}

	response := IncidentListResponse{Incidents: incidents, Total: len(incidents)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Search handles GET /api/incidents/search?q=...&limit=...
func (h *IncidentHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		limit = n
	}

	matches, err := h.incidentService.SearchSimilar(r.Context(), query, limit)
	if err != nil {
		writeServiceError(w, h.logger, "search_incidents_failed", err)
		return
	}

	results := make([]SimilarIncidentResponse, len(matches))
	for i, m := range matches {
		results[i] = SimilarIncidentResponse{Incident: m.Incident, Rank: m.Rank}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: results}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// BulkStatus handles POST /api/incidents/bulk-status
func (h *IncidentHandler) BulkStatus(w http.ResponseWriter, r *http.Request) {
	var req BulkStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	updated, err := h.incidentService.BulkUpdateStatus(r.Context(), req.IncidentIDs, req.Status)
	if err != nil {
		writeServiceError(w, h.logger, "bulk_status_failed", err)
		return
	}

	response := IncidentListResponse{Incidents: updated, Total: len(updated)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/incidents/{id} (soft delete)
func (h *IncidentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIncidentID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.incidentService.SoftDelete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, "delete_incident_failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Restore handles POST /api/incidents/{id}/restore
func (h *IncidentHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIncidentID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.incidentService.Restore(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, "restore_incident_failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Purge handles DELETE /api/incidents/{id}/purge
func (h *IncidentHandler) Purge(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIncidentID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.incidentService.Purge(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, "purge_incident_failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// SLA definitions
// ============================================================================

// UpsertSlaDefinitionRequest for PUT /sla-definitions/{priority}
type UpsertSlaDefinitionRequest struct {
	ResponseTargetMins   int `json:"response_target_mins"`
	ResolutionTargetMins int `json:"resolution_target_mins"`
}

// ListSlaDefinitions handles GET /api/sla-definitions
func (h *IncidentHandler) ListSlaDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := h.slaService.ListDefinitions(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "list_sla_definitions_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: defs}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpsertSlaDefinition handles PUT /api/sla-definitions/{priority}
func (h *IncidentHandler) UpsertSlaDefinition(w http.ResponseWriter, r *http.Request) {
	priority := models.Priority(r.PathValue("priority"))

	var req UpsertSlaDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	def, err := h.slaService.UpsertDefinition(r.Context(), priority, req.ResponseTargetMins, req.ResolutionTargetMins)
	if err != nil {
		writeServiceError(w, h.logger, "upsert_sla_definition_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: def}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
