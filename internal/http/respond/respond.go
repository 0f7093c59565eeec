// Package respond maps service results and domain errors onto HTTP
// responses so every handler speaks the same dialect.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clinicdesk/clinic-platform/internal/domain"
	"github.com/clinicdesk/clinic-platform/pkg/logging"
)

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Error translates a domain error into the matching HTTP status. Unknown
// errors are treated as opaque storage failures: logged, returned as 500
// without leaking detail.
func Error(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case domain.IsNotFound(err):
		JSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case domain.IsConflict(err):
		JSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case domain.IsPastDate(err):
		JSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Field: "scheduled_at"})
	case domain.IsValidation(err):
		body := errorBody{Error: err.Error()}
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			body.Field = ve.Field
		}
		JSON(w, http.StatusUnprocessableEntity, body)
	default:
		if logger != nil {
			logger.Error("internal error", "error", err)
		}
		JSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// BadRequest reports a malformed request body or query parameter.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
