package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/model"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/database"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/jwtutil"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/logger"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/oidc"
	"github.com/tharunrega/Multi-Tenant-Notes-App/prometheus"
)

// Authenticator resolves a request to a principal. Two implementations
// exist: LocalAuthenticator verifies tokens issued by this service with a
// shared secret, the oidc-backed authenticators verify tokens issued by a
// remote identity provider. The concrete implementation is selected at
// startup.
type Authenticator interface {
	Authenticate(c echo.Context) (*Principal, error)
}

// AuthError is an authentication failure with a metric reason and a
// client-safe message.
type AuthError struct {
	Reason  string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// ExtractBearerToken pulls the raw token out of the Authorization header.
func ExtractBearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", &AuthError{Reason: "missing_token", Message: "missing authorization token"}
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", &AuthError{Reason: "invalid_auth_format", Message: "invalid authorization format, expected Bearer token"}
	}

	return parts[1], nil
}

// RequireAuth validates the request with the given authenticator and stores
// the resolved principal in the context. Any failure is a 401.
func RequireAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			principal, err := a.Authenticate(c)
			if err != nil {
				var authErr *AuthError
				if errors.As(err, &authErr) {
					log.Warn("Authentication failed", zap.String("reason", authErr.Reason))
					prometheus.RecordAuthError(authErr.Reason)
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": authErr.Message})
				}
				log.Error("Authentication failed", zap.Error(err))
				prometheus.RecordAuthError("auth_failure")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			SetPrincipal(c, principal)
			return next(c)
		}
	}
}

// LocalAuthenticator verifies tokens signed by this service and re-fetches
// the user record so the principal reflects the current role, tenant and
// plan rather than the snapshot baked into the token.
type LocalAuthenticator struct {
	JWT *jwtutil.JWTUtil
}

func (a *LocalAuthenticator) Authenticate(c echo.Context) (*Principal, error) {
	tokenString, err := ExtractBearerToken(c)
	if err != nil {
		return nil, err
	}

	claims, err := a.JWT.ValidateToken(tokenString)
	if err != nil {
		return nil, &AuthError{Reason: "invalid_token", Message: "invalid or expired token"}
	}

	var user model.User
	if result := database.GetDB().First(&user, "id = ?", claims.UserID); result.Error != nil {
		return nil, &AuthError{Reason: "user_not_found", Message: "user not found"}
	}

	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, "id = ?", user.TenantID); result.Error != nil {
		return nil, &AuthError{Reason: "tenant_not_found", Message: "user not found"}
	}

	return &Principal{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		TenantID:   tenant.ID,
		TenantSlug: tenant.Slug,
		TenantName: tenant.Name,
		TenantPlan: tenant.Plan,
	}, nil
}

// AccessTokenAuthenticator verifies remote-issued tokens against a fixed
// API resource audience.
type AccessTokenAuthenticator struct {
	Verifier *oidc.Verifier
	Resource string
}

func (a *AccessTokenAuthenticator) Authenticate(c echo.Context) (*Principal, error) {
	tokenString, err := ExtractBearerToken(c)
	if err != nil {
		return nil, err
	}

	claims, err := a.Verifier.VerifyAccessToken(c.Request().Context(), tokenString, a.Resource)
	if err != nil {
		return nil, &AuthError{Reason: "invalid_token", Message: "invalid or expired token"}
	}

	return &Principal{
		UserID: claims.Subject,
		Scopes: claims.Scopes,
	}, nil
}

// OrganizationAuthenticator verifies remote-issued organization tokens. The
// expected audience is extracted from the token itself before verification.
type OrganizationAuthenticator struct {
	Verifier *oidc.Verifier
}

func (a *OrganizationAuthenticator) Authenticate(c echo.Context) (*Principal, error) {
	tokenString, err := ExtractBearerToken(c)
	if err != nil {
		return nil, err
	}

	claims, err := a.Verifier.VerifyOrganizationToken(c.Request().Context(), tokenString)
	if err != nil {
		return nil, &AuthError{Reason: "invalid_token", Message: "invalid or expired token"}
	}

	return &Principal{
		UserID:         claims.Subject,
		OrganizationID: claims.OrganizationID,
		Scopes:         claims.Scopes,
	}, nil
}
