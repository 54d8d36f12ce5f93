package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/middleware"
	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/model"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/database"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/jwtutil"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/logger"
	"github.com/tharunrega/Multi-Tenant-Notes-App/prometheus"
)

// AuthHandler issues session tokens for the notes service.
type AuthHandler struct {
	JWT *jwtutil.JWTUtil
}

// Login authenticates with email and password and returns a signed token
// plus the user's profile. Unknown email and wrong password produce the
// same response so callers cannot probe which accounts exist.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email and password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&user); result.Error != nil {
		log.Warn("Login failed, user not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("Login failed, invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, "id = ?", user.TenantID); result.Error != nil {
		log.Error("Tenant lookup failed", zap.String("tenant_id", user.TenantID), zap.Error(result.Error))
		prometheus.RecordAuthError("tenant_not_found")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	token, err := h.JWT.GenerateToken(&user, &tenant)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.IncreaseActiveTokens()
	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("tenant", tenant.Slug),
		zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  userProfile(&user, &tenant),
	})
}

// Me returns the authenticated caller's profile as resolved from the
// verified principal.
func Me(c echo.Context) error {
	p := middleware.PrincipalFromContext(c)
	if p == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"id":         p.UserID,
			"email":      p.Email,
			"role":       p.Role,
			"tenantId":   p.TenantID,
			"tenantSlug": p.TenantSlug,
			"tenantName": p.TenantName,
			"tenantPlan": p.TenantPlan,
		},
	})
}

func userProfile(user *model.User, tenant *model.Tenant) echo.Map {
	return echo.Map{
		"id":         user.ID,
		"email":      user.Email,
		"role":       user.Role,
		"tenantId":   tenant.ID,
		"tenantSlug": tenant.Slug,
		"tenantName": tenant.Name,
		"tenantPlan": tenant.Plan,
	}
}
