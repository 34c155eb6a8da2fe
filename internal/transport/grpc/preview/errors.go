package preview

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// mapDomainErrorToGRPC converts domain errors to gRPC status codes.
func mapDomainErrorToGRPC(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrRunNotFound):
		return status.Error(codes.NotFound, "run not found")

	case errors.Is(err, domain.ErrProductNotFound):
		return status.Error(codes.NotFound, "product not found")

	case errors.Is(err, domain.ErrRunAlreadyCompleted):
		return status.Error(codes.AlreadyExists, "run already completed")

	case errors.Is(err, domain.ErrRunInProgress):
		return status.Error(codes.FailedPrecondition, "run already in progress")

	case domain.IsValidationError(err):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, domain.ErrCatalogUnavailable):
		return status.Error(codes.Unavailable, "catalog unavailable")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")

	default:
		return status.Error(codes.Internal, "internal server error")
	}
}
