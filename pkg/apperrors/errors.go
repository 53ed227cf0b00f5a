package apperrors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNoStories      = errors.New("project has no stories")
	ErrUnsupported    = errors.New("unsupported file type")
	ErrKeyMismatch    = errors.New("integration token was encrypted with a different key")
	ErrInvalidEvents  = errors.New("invalid webhook event types")
	ErrDeliveryFailed = errors.New("webhook delivery failed")
)
