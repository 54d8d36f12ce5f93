package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/middleware"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/logger"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/logto"
	"github.com/tharunrega/Multi-Tenant-Notes-App/prometheus"
)

// OrganizationHandler creates organizations through the identity provider's
// management API.
type OrganizationHandler struct {
	Logto         *logto.ManagementClient
	AdminRoleName string
}

// Create provisions a new organization, adds the caller as a member and
// assigns the organization admin role to them.
func (h *OrganizationHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("create_organization")
	p := middleware.PrincipalFromContext(c)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Name is required"})
	}

	ctx := c.Request().Context()

	organizationID, err := h.Logto.CreateOrganization(ctx, req.Name, req.Description)
	if err != nil {
		log.Error("Failed to create organization", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create organization"})
	}

	if err := h.Logto.AddOrganizationUser(ctx, organizationID, p.UserID); err != nil {
		log.Error("Failed to add creator to organization",
			zap.String("organization_id", organizationID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create organization"})
	}

	if err := h.Logto.AssignOrganizationRole(ctx, organizationID, p.UserID, h.AdminRoleName); err != nil {
		log.Error("Failed to assign organization admin role",
			zap.String("organization_id", organizationID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create organization"})
	}

	log.Info("Organization created",
		zap.String("organization_id", organizationID),
		zap.String("creator", p.UserID))

	return c.JSON(http.StatusCreated, echo.Map{
		"data": echo.Map{"id": organizationID},
	})
}
