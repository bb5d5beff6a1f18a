package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/smartmeter/billing-system/internal/api/middleware"
	"github.com/smartmeter/billing-system/internal/core/domain"
)

// ctxPrincipal extracts the principal descriptor injected by the Auth
// middleware and fast-fails before any service call. A missing descriptor or
// an unparseable id claim is an authentication failure, never a permissive
// default.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.Principal(c)
	if !ok || p.Role == "" || p.ID <= 0 {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return p, nil
}

// pathID parses a numeric path parameter. A malformed id is a 400, not a 500.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
