package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Never leaks credential or cryptographic detail: invalid-credential and
//     unauthenticated failures get a fixed message.
//   - Logs unexpected errors internally and returns a generic message.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return http.StatusConflict, "identity already registered"
	case errors.Is(err, domain.ErrDuplicateReading):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrConcurrentModification):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrOrgUnitInUse):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, err.Error()
	case isNotFound(err):
		return http.StatusNotFound, err.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

var notFoundErrs = []error{
	domain.ErrOperatorNotFound,
	domain.ErrConsumerNotFound,
	domain.ErrOrgUnitNotFound,
	domain.ErrMeterNotFound,
	domain.ErrReadingNotFound,
	domain.ErrTariffNotFound,
	domain.ErrTodRuleNotFound,
	domain.ErrSlabNotFound,
	domain.ErrBillNotFound,
	domain.ErrArrearNotFound,
	domain.ErrAddressNotFound,
}

func isNotFound(err error) bool {
	for _, sentinel := range notFoundErrs {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
