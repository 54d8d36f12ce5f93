package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/middleware"
	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/model"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/database"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/logger"
	"github.com/tharunrega/Multi-Tenant-Notes-App/prometheus"
)

// defaultInvitePassword is the credential assigned to invited users when the
// admin does not supply one. Echoed back in the invite response.
const defaultInvitePassword = "password"

// UpgradeTenant flips the tenant's plan from free to pro. Admin-only, and
// the slug in the path must be the admin's own tenant. Upgrading an
// already-pro tenant is an error; there is no downgrade.
func UpgradeTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("upgrade")
	p := middleware.PrincipalFromContext(c)

	slug := c.Param("slug")
	if p.TenantSlug != slug {
		log.Warn("Upgrade attempt on another tenant",
			zap.String("own_slug", p.TenantSlug),
			zap.String("requested_slug", slug))
		prometheus.RecordAuthError("cross_tenant_upgrade")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Forbidden - Cannot upgrade other tenants"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().Where("slug = ?", slug).First(&tenant); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tenant not found"})
	}

	if tenant.Plan == model.PlanPro {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Tenant is already on Pro plan"})
	}

	if result := database.GetDB().Model(&tenant).Update("plan", model.PlanPro); result.Error != nil {
		log.Error("Failed to upgrade tenant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to upgrade tenant"})
	}

	log.Info("Tenant upgraded to pro", zap.String("slug", tenant.Slug))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Tenant upgraded to Pro plan successfully",
		"tenant": echo.Map{
			"id":   tenant.ID,
			"slug": tenant.Slug,
			"name": tenant.Name,
			"plan": model.PlanPro,
		},
	})
}

// InviteUser creates a new user in the admin's own tenant. Duplicate emails
// are rejected; role defaults to member and the password to a fixed default.
func InviteUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("invite")
	p := middleware.PrincipalFromContext(c)

	var req struct {
		Email    string `json:"email"`
		Role     string `json:"role"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email is required"})
	}

	slug := c.Param("slug")
	if p.TenantSlug != slug {
		log.Warn("Invite attempt on another tenant",
			zap.String("own_slug", p.TenantSlug),
			zap.String("requested_slug", slug))
		prometheus.RecordAuthError("cross_tenant_invite")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Forbidden - Cannot invite users to other tenants"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().Where("slug = ?", slug).First(&tenant); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tenant not found"})
	}

	var existing model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&existing); result.Error == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Email already exists"})
	}

	role := req.Role
	if role == "" {
		role = model.RoleMember
	}
	password := req.Password
	if password == "" {
		password = defaultInvitePassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to invite user"})
	}

	user := model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		TenantID:     tenant.ID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create invited user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to invite user"})
	}

	log.Info("User invited",
		zap.String("email", user.Email),
		zap.String("role", user.Role),
		zap.String("tenant", tenant.Slug))

	response := echo.Map{
		"user": echo.Map{
			"id":         user.ID,
			"email":      user.Email,
			"role":       user.Role,
			"tenantId":   tenant.ID,
			"tenantSlug": tenant.Slug,
		},
		"message": "User invited successfully",
	}
	if password == defaultInvitePassword {
		response["defaultPassword"] = defaultInvitePassword
	}

	return c.JSON(http.StatusCreated, response)
}
