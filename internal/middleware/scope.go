package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/logger"
	"github.com/tharunrega/Multi-Tenant-Notes-App/prometheus"
)

// RequireScopes rejects requests whose token did not grant every required
// scope. Must be composed after RequireAuth.
func RequireScopes(scopes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			principal := PrincipalFromContext(c)
			if principal == nil {
				prometheus.RecordAuthError("missing_principal")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			granted := make(map[string]struct{}, len(principal.Scopes))
			for _, s := range principal.Scopes {
				granted[s] = struct{}{}
			}

			for _, required := range scopes {
				if _, ok := granted[required]; !ok {
					log.Warn("Scope check failed",
						zap.String("required", required),
						zap.Strings("granted", principal.Scopes))
					prometheus.RecordAuthError("insufficient_scope")
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "insufficient scope"})
				}
			}

			return next(c)
		}
	}
}
