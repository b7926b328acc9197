package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/saagar210/IncidentManagement-sub000/pkg/apperrors"
)

// ApiResponse is the standard success envelope.
type ApiResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// ValidationErrorResponse writes a 400 carrying the per-field details.
func ValidationErrorResponse(w http.ResponseWriter, verr *apperrors.ValidationError) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	return json.NewEncoder(w).Encode(map[string]any{
		"error":   "validation_failed",
		"message": verr.Message,
		"details": verr.Details,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeServiceError maps a service error onto the wire: validation errors
// carry details on a 400, domain sentinels get their conventional status,
// everything else is a 500 tagged with errorCode.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, errorCode string, err error) {
	var werr error
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		werr = ValidationErrorResponse(w, verr)
	case errors.Is(err, apperrors.ErrNotFound):
		werr = ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		werr = ErrorResponse(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, apperrors.ErrQuarterNotFinal):
		werr = ErrorResponse(w, http.StatusConflict, "quarter_not_finalized", err.Error())
	case errors.Is(err, apperrors.ErrJobNotAcceptable):
		werr = ErrorResponse(w, http.StatusConflict, "job_not_acceptable", err.Error())
	case errors.Is(err, apperrors.ErrGeneratorOffline):
		werr = ErrorResponse(w, http.StatusServiceUnavailable, "generator_unavailable", err.Error())
	default:
		werr = ErrorResponse(w, http.StatusInternalServerError, errorCode, err.Error())
	}
	if werr != nil {
		logger.Error("Failed to write error response", zap.Error(werr))
	}
}
