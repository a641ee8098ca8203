package handler

import (
	"errors"
	"net/http"

	"scms/internal/service"
)

// statusForError maps service sentinel errors to HTTP status codes so every
// handler rejects bad input, contention and missing tiers consistently.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrInvalidRetailer),
		errors.Is(err, service.ErrInvalidStrategy):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrTierNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrConcurrencyConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
