package middleware

import "github.com/labstack/echo/v4"

const principalKey = "principal"

// Principal is the resolved identity of the caller for one request. It is
// constructed fresh per request from verified token claims and never
// persisted. The notes service fills the tenant fields; the document service
// fills OrganizationID and Scopes.
type Principal struct {
	UserID         string
	Email          string
	Role           string
	TenantID       string
	TenantSlug     string
	TenantName     string
	TenantPlan     string
	OrganizationID string
	Scopes         []string
}

// HasScope reports whether the principal's token granted the named scope.
func (p *Principal) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// SetPrincipal stores the principal in the Echo context for downstream handlers.
func SetPrincipal(c echo.Context, p *Principal) {
	c.Set(principalKey, p)
}

// PrincipalFromContext retrieves the principal attached by RequireAuth.
// Returns nil when the request was not authenticated.
func PrincipalFromContext(c echo.Context) *Principal {
	p, ok := c.Get(principalKey).(*Principal)
	if !ok {
		return nil
	}
	return p
}
