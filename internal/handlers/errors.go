package handlers

import (
	"errors"
	"net/http"

	"billing-functions-api/internal/billing"
	"billing-functions-api/internal/models"
)

// isValidationError checks if an error is a validation error
func isValidationError(err error) bool {
	return errors.Is(err, models.ErrValidation)
}

// isConfigError checks if an error comes from missing configuration
func isConfigError(err error) bool {
	return errors.Is(err, billing.ErrMissingConnectionString)
}

// StatusFor maps a service error to the HTTP status the local server returns.
// Anything not caused by the request or configuration is an upstream failure.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case isValidationError(err), isConfigError(err):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
