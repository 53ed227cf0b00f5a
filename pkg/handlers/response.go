// Package handlers implements the HTTP API surface.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/securereq/securereq-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
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

// WriteServiceError maps service-layer errors onto HTTP status codes.
func WriteServiceError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrNoStories):
		return ErrorResponse(w, http.StatusBadRequest, "no_stories", err.Error())
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidEvents),
		errors.Is(err, apperrors.ErrUnsupported):
		return ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		return ErrorResponse(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, apperrors.ErrUnauthorized):
		return ErrorResponse(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, apperrors.ErrDeliveryFailed):
		return ErrorResponse(w, http.StatusBadGateway, "delivery_failed", err.Error())
	default:
		return ErrorResponse(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
