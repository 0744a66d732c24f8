package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"lms/internal/api/v1/dto"
	"lms/internal/service"
	"lms/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// SubjectParam returns the decoded {subject} path segment. chi matches on
// the escaped path when the URL carries reserved characters such as %26.
func SubjectParam(r *http.Request) string {
	raw := chi.URLParam(r, "subject")
	subject, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return subject
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.MessageResponseDTO{Message: message})
}

// writeFailure reports an unexpected error as 500 {message, error}.
func writeFailure(w http.ResponseWriter, message string, err error) {
	writeJSON(w, http.StatusInternalServerError, dto.ErrorResponseDTO{Message: message, Error: err.Error()})
}

func writeValidation(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, dto.ErrorResponseDTO{Message: "Validation failed", Errors: fields})
}

// decodeJSON decodes the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponseDTO{Message: "Invalid JSON payload", Error: err.Error()})
		return false
	}
	return true
}

// validateStruct runs the DTO validator, writing a 400 with per-field messages on failure.
func validateStruct(w http.ResponseWriter, v *validator.Validate, req any) bool {
	if err := v.Struct(req); err != nil {
		writeValidation(w, validation.Messages(err))
		return false
	}
	return true
}

// asValidation writes service.ValidationError as a 400 and reports whether it did.
func asValidation(w http.ResponseWriter, err error) bool {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		writeValidation(w, verr.Fields)
		return true
	}
	return false
}
