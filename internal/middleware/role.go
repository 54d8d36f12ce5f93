package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/logger"
	"github.com/tharunrega/Multi-Tenant-Notes-App/prometheus"
)

// RequireRole rejects requests whose principal does not carry the required
// role. Must be composed after RequireAuth.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			principal := PrincipalFromContext(c)
			if principal == nil {
				prometheus.RecordAuthError("missing_principal")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			if principal.Role != role {
				log.Warn("Role check failed",
					zap.String("required", role),
					zap.String("actual", principal.Role))
				prometheus.RecordAuthError("forbidden_role")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Forbidden - Insufficient permissions"})
			}

			return next(c)
		}
	}
}
