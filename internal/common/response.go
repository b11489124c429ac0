package common

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ErrorBody represents a consistent error payload returned by the API.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data wraps v in the {"data": ...} envelope.
func Data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, map[string]any{"data": v})
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteError maps service errors onto the canonical error response. Unknown
// errors are logged through the request logger and rendered as 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	if errors.Is(err, pgx.ErrNoRows) {
		JSONError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		return
	}
	if IsForeignKeyViolation(err) {
		JSONError(w, http.StatusUnprocessableEntity, "REFERENCE_NOT_FOUND", "referenced record does not exist", nil)
		return
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid payload", FieldErrors(verrs))
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}
