package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/service"
)

// PrincipalKey is the echo context key under which Auth stores the resolved
// principal descriptor.
const PrincipalKey = "principal"

// Auth is the access guard: it validates the bearer token and injects the
// principal descriptor into the request context. Signature, structure, and
// expiry failures all reject the request with 401 before any handler runs.
// The check is pure claim inspection; it never touches the store.
func Auth(tokens *service.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			p, err := tokens.Parse(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(PrincipalKey, p)
			return next(c)
		}
	}
}

// Principal extracts the descriptor injected by Auth. The ok result is false
// when the middleware did not run for this route.
func Principal(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(domain.Principal)
	return p, ok
}
