package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tharunrega/Multi-Tenant-Notes-App/prometheus"
)

// HealthCheck handles the health check endpoint
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// MetricsHandler exposes the Prometheus metrics endpoint
func MetricsHandler(c echo.Context) error {
	handler := prometheus.GetPrometheusHandler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}

// APIIndex describes the notes API for unauthenticated callers.
func APIIndex(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Multi-tenant SaaS Notes API",
		"version": "1.0.0",
		"endpoints": echo.Map{
			"health":     "GET /health",
			"login":      "POST /auth/login",
			"notes":      "GET /notes",
			"createNote": "POST /notes",
			"getNote":    "GET /notes/:id",
			"updateNote": "PUT /notes/:id",
			"deleteNote": "DELETE /notes/:id",
			"upgrade":    "POST /tenants/:slug/upgrade",
			"invite":     "POST /tenants/:slug/invite",
			"profile":    "GET /me",
		},
	})
}
