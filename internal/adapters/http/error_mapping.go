package httpadapter

import (
	"net/http"

	"github.com/chaiyut/docintake/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrValidation):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrFileNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage translates domain failures into the stable client-facing
// strings the upload UI matches on.
func errorMessage(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrTooManyFiles):
		return "Too many files. Maximum 200 files per upload."
	case domain.IsKind(err, domain.ErrFileTooLarge):
		return "File too large. Maximum size is 50MB per file."
	case domain.IsKind(err, domain.ErrEmptyBatch):
		return "No files uploaded"
	case domain.IsKind(err, domain.ErrFileNotFound):
		return "File not found"
	case domain.IsKind(err, domain.ErrValidation):
		return err.Error()
	case domain.IsKind(err, domain.ErrTemporary):
		return "Service temporarily unavailable"
	default:
		return "Internal server error"
	}
}
