package api

import (
	"errors"
	"fmt"
	"net/http"

	"lichtwerk/internal/services"
)

// FromError maps an error to its HTTP status and response body.
func FromError(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Error: err.Error()}

	var verr *services.ValidationError
	var uerr *services.UnsupportedAssetError
	switch {
	case errors.As(err, &verr):
		resp.Code = CodeValidation
		resp.Stacks = verr.Stacks
		resp.Problems = verr.Problems
		return http.StatusUnprocessableEntity, resp
	case errors.As(err, &uerr):
		resp.Code = CodeUnsupported
		resp.Files = uerr.Files
		return http.StatusUnsupportedMediaType, resp
	case errors.Is(err, services.ErrUnsupportedAsset):
		resp.Code = CodeUnsupported
		return http.StatusUnsupportedMediaType, resp
	case errors.Is(err, services.ErrNotFound):
		resp.Code = CodeNotFound
		return http.StatusNotFound, resp
	case errors.Is(err, services.ErrConflict):
		resp.Code = CodeConflict
		return http.StatusConflict, resp
	case errors.Is(err, services.ErrRejected):
		resp.Code = CodeRejected
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, services.ErrValidation):
		resp.Code = CodeValidation
		return http.StatusUnprocessableEntity, resp
	default:
		resp.Code = CodeInternal
		return http.StatusInternalServerError, resp
	}
}

// ToError rebuilds a classified error from an error response. Statuses and
// codes without a domain meaning become transport errors.
func ToError(op string, status int, resp ErrorResponse) error {
	message := resp.Error
	if message == "" {
		message = http.StatusText(status)
	}
	switch {
	case resp.Code == CodeValidation && (len(resp.Stacks) > 0 || len(resp.Problems) > 0):
		return &services.ValidationError{Stacks: resp.Stacks, Problems: resp.Problems}
	case resp.Code == CodeValidation:
		return fmt.Errorf("%w: %s", services.ErrValidation, message)
	case resp.Code == CodeRejected:
		return fmt.Errorf("%w: %s", services.ErrRejected, message)
	case resp.Code == CodeUnsupported || status == http.StatusUnsupportedMediaType:
		return &services.UnsupportedAssetError{Files: resp.Files}
	case resp.Code == CodeNotFound || status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", services.ErrNotFound, message)
	case resp.Code == CodeConflict || status == http.StatusConflict:
		return fmt.Errorf("%w: %s", services.ErrConflict, message)
	case status == http.StatusUnauthorized:
		return services.NewTransportError(op, fmt.Errorf("%w: %s", services.ErrConfiguration, message))
	default:
		return services.NewTransportError(op, fmt.Errorf("status %d: %s", status, message))
	}
}
