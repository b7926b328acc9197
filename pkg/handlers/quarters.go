package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saagar210/IncidentManagement-sub000/pkg/models"
	"github.com/saagar210/IncidentManagement-sub000/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// CreateQuarterRequest for POST /quarters
type CreateQuarterRequest struct {
	FiscalYear    int       `json:"fiscal_year"`
	QuarterNumber int       `json:"quarter_number"`
	Label         string    `json:"label,omitempty"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
}

// UpsertOverrideRequest for PUT /quarters/{qid}/overrides
type UpsertOverrideRequest struct {
	RuleKey    string    `json:"rule_key"`
	IncidentID uuid.UUID `json:"incident_id"`
	Reason     string    `json:"reason"`
	ApprovedBy string    `json:"approved_by"`
}

// FinalizeQuarterRequest for POST /quarters/{qid}/finalize
type FinalizeQuarterRequest struct {
	FinalizedBy string `json:"finalized_by"`
	Notes       string `json:"notes,omitempty"`
}

// SnapshotResponse returns the frozen quarter record with its content
// decoded for the caller.
type SnapshotResponse struct {
	ID            uuid.UUID       `json:"id"`
	QuarterID     uuid.UUID       `json:"quarter_id"`
	SchemaVersion int             `json:"schema_version"`
	InputsHash    string          `json:"inputs_hash"`
	Content       json.RawMessage `json:"content"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ============================================================================
// Handler
// ============================================================================

// QuarterHandler handles quarter, readiness and finalization HTTP requests.
type QuarterHandler struct {
	quarterService      services.QuarterService
	readinessService    services.ReadinessService
	finalizationService services.FinalizationService
	logger              *zap.Logger
}

// NewQuarterHandler creates a new quarter handler.
func NewQuarterHandler(
	quarterService services.QuarterService,
	readinessService services.ReadinessService,
	finalizationService services.FinalizationService,
	logger *zap.Logger,
) *QuarterHandler {
	return &QuarterHandler{
		quarterService:      quarterService,
		readinessService:    readinessService,
		finalizationService: finalizationService,
		logger:              logger,
	}
}

// RegisterRoutes registers the quarter handler's routes on the given mux.
func (h *QuarterHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/quarters", h.Create)
	mux.HandleFunc("GET /api/quarters", h.List)
	mux.HandleFunc("GET /api/quarters/{qid}", h.Get)
	mux.HandleFunc("GET /api/quarters/{qid}/readiness", h.Readiness)
	mux.HandleFunc("GET /api/quarters/{qid}/metrics", h.Metrics)
	mux.HandleFunc("GET /api/metrics", h.RangeMetrics)
	mux.HandleFunc("GET /api/quarters/{qid}/overrides", h.ListOverrides)
	mux.HandleFunc("PUT /api/quarters/{qid}/overrides", h.UpsertOverride)
	mux.HandleFunc("DELETE /api/quarters/{qid}/overrides/{rule}/{id}", h.DeleteOverride)
	mux.HandleFunc("POST /api/quarters/{qid}/finalize", h.Finalize)
	mux.HandleFunc("GET /api/quarters/{qid}/finalization", h.FinalizationStatus)
	mux.HandleFunc("DELETE /api/quarters/{qid}/finalization", h.Unfinalize)
	mux.HandleFunc("GET /api/quarters/{qid}/snapshot", h.Snapshot)
}

// Create handles POST /api/quarters
func (h *QuarterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuarterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	quarter := &models.QuarterConfig{
		FiscalYear:    req.FiscalYear,
		QuarterNumber: req.QuarterNumber,
		Label:         req.Label,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	}

	created, err := h.quarterService.CreateQuarter(r.Context(), quarter)
	if err != nil {
		writeServiceError(w, h.logger, "create_quarter_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/quarters
func (h *QuarterHandler) List(w http.ResponseWriter, r *http.Request) {
	quarters, err := h.quarterService.ListQuarters(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "list_quarters_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: quarters}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/quarters/{qid}
func (h *QuarterHandler) Get(w http.ResponseWriter, r *http.Request) {
	quarterID, ok := ParseQuarterID(w, r, h.logger)
	if !ok {
		return
	}

	quarter, err := h.quarterService.GetQuarter(r.Context(), quarterID)
	if err != nil {
		writeServiceError(w, h.logger, "get_quarter_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: quarter}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Readiness handles GET /api/quarters/{qid}/readiness
func (h *QuarterHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	quarterID, ok := ParseQuarterID(w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.readinessService.ComputeReadiness(r.Context(), quarterID)
	if err != nil {
		writeServiceError(w, h.logger, "compute_readiness_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: report}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Metrics handles GET /api/quarters/{qid}/metrics
func (h *QuarterHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	quarterID, ok := ParseQuarterID(w, r, h.logger)
	if !ok {
		return
	}

	metrics, err := h.finalizationService.ComputeMetrics(r.Context(), quarterID)
	if err != nil {
		writeServiceError(w, h.logger, "compute_metrics_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: metrics}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RangeMetrics handles GET /api/metrics?from=...&to=...
func (h *QuarterHandler) RangeMetrics(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "from must be RFC3339"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "to must be RFC3339"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	metrics, err := h.finalizationService.RangeMetrics(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, h.logger, "range_metrics_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: metrics}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListOverrides handles GET /api/quarters/{qid}/overrides
func (h *QuarterHandler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	quarterID, ok := ParseQuarterID(w, r, h.logger)
	if !ok {
		return
	}

	overrides, err := h.quarterService.ListOverrides(r.Context(), quarterID)
	if err != nil {
		writeServiceError(w, h.logger, "list_overrides_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: overrides}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpsertOverride handles PUT /api/quarters/{qid}/overrides
func (h *QuarterHandler) UpsertOverride(w http.ResponseWriter, r *http.Request) {
	quarterID, ok := ParseQuarterID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpsertOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	override := &models.QuarterOverride{
		QuarterID:  quarterID,
		RuleKey:    req.RuleKey,
		IncidentID: req.IncidentID,
		Reason:     req.Reason,
		ApprovedBy: req.ApprovedBy,
	}

	saved, err := h.quarterService.UpsertOverride(r.Context(), override)
	if err != nil {
		writeServiceError(w, h.logger, "upsert_override_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: saved}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DeleteOverride handles DELETE /api/quarters/{qid}/overrides/{rule}/{id}
func (h *QuarterHandler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	quarterID, ok := ParseQuarterID(w, r, h.logger)
	if !ok {
		return
	}
	incidentID, ok := ParseIncidentID(w, r, h.logger)
	if !ok {
		return
	}
	ruleKey := r.PathValue("rule")

	if err := h.quarterService.DeleteOverride(r.Context(), quarterID, ruleKey, incidentID); err != nil {
		writeServiceError(w, h.logger, "delete_override_failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Finalize handles POST /api/quarters/{qid}/finalize
func (h *QuarterHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	quarterID, ok := ParseQuarterID(w, r, h.logger)
	if !ok {
		return
	}

	var req FinalizeQuarterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	finalization, err := h.finalizationService.FinalizeQuarter(r.Context(), quarterID, req.FinalizedBy, req.Notes)
	if err != nil {
		writeServiceError(w, h.logger, "finalize_quarter_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: finalization}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// FinalizationStatus handles GET /api/quarters/{qid}/finalization
func (h *QuarterHandler) FinalizationStatus(w http.ResponseWriter, r *http.Request) {
	quarterID, ok := ParseQuarterID(w, r, h.logger)
	if !ok {
		return
	}

	status, err := h.finalizationService.GetFinalizationStatus(r.Context(), quarterID)
	if err != nil {
		writeServiceError(w, h.logger, "finalization_status_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: status}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Unfinalize handles DELETE /api/quarters/{qid}/finalization
func (h *QuarterHandler) Unfinalize(w http.ResponseWriter, r *http.Request) {
	quarterID, ok := ParseQuarterID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.finalizationService.UnfinalizeQuarter(r.Context(), quarterID); err != nil {
		writeServiceError(w, h.logger, "unfinalize_quarter_failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Snapshot handles GET /api/quarters/{qid}/snapshot
func (h *QuarterHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	quarterID, ok := ParseQuarterID(w, r, h.logger)
	if !ok {
		return
	}

	snapshot, err := h.finalizationService.GetSnapshot(r.Context(), quarterID)
	if err != nil {
		writeServiceError(w, h.logger, "get_snapshot_failed", err)
		return
	}

	response := SnapshotResponse{
		ID:            snapshot.ID,
		QuarterID:     snapshot.QuarterID,
		SchemaVersion: snapshot.SchemaVersion,
		InputsHash:    snapshot.InputsHash,
		Content:       json.RawMessage(snapshot.SnapshotJSON),
		CreatedAt:     snapshot.CreatedAt,
		UpdatedAt:     snapshot.UpdatedAt,
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
