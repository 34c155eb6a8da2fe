package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound, "run not found"
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, domain.ErrRuleSetNotFound):
		return http.StatusNotFound, "rule set not found"
	case errors.Is(err, domain.ErrRunAlreadyCompleted):
		return http.StatusConflict, "run already completed for today"
	case errors.Is(err, domain.ErrRunInProgress):
		return http.StatusConflict, "run already in progress"
	case errors.Is(err, domain.ErrLeaseLost):
		return http.StatusConflict, "run lease lost; the run will be retried"
	case domain.IsValidationError(err):
		return http.StatusBadRequest, "invalid rule set"
	case errors.Is(err, domain.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable, "catalog unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
