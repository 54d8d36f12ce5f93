package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/middleware"
	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/store"
	"github.com/tharunrega/Multi-Tenant-Notes-App/prometheus"
)

// DocumentHandler serves the organization-scoped document list.
type DocumentHandler struct {
	Store *store.DocumentStore
}

// List returns the documents of the organization named by the verified
// organization token.
func (h *DocumentHandler) List(c echo.Context) error {
	prometheus.RecordDocumentOperation("list_documents")
	p := middleware.PrincipalFromContext(c)

	return c.JSON(http.StatusOK, h.Store.ListByOrganization(p.OrganizationID))
}

// Create adds a document to the caller's organization.
func (h *DocumentHandler) Create(c echo.Context) error {
	prometheus.RecordDocumentOperation("create_document")
	p := middleware.PrincipalFromContext(c)

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Title and content are required"})
	}

	doc := h.Store.Create(p.OrganizationID, p.UserID, req.Title, req.Content)
	return c.JSON(http.StatusCreated, doc)
}
