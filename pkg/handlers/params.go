package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate checks request body structs against their validate tags.
var validate = validator.New(validator.WithRequiredStructEnabled())

// PathUUID parses a UUID path segment, writing a 400 response on failure.
func PathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid_"+name, //nolint:errcheck
			fmt.Sprintf("Invalid %s format", name))
		return uuid.Nil, false
	}
	return id, true
}

// DecodeBody decodes and validates a JSON request body, writing a 400
// response on failure.
func DecodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON") //nolint:errcheck
		return false
	}
	if err := validate.Struct(dst); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error()) //nolint:errcheck
		return false
	}
	return true
}
