package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/handler"
	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/middleware"
	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/store"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/config"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/logger"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/logto"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/oidc"
	"github.com/tharunrega/Multi-Tenant-Notes-App/prometheus"
)

// Organization-scoped permissions checked on the document routes.
const (
	scopeReadDocuments   = "read:documents"
	scopeCreateDocuments = "create:documents"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: "document-service",
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting document service...", zap.String("environment", cfg.Server.Env))

	// Remote-identity verification: signature against the provider's JWKS,
	// audience either the fixed API resource or the organization URN
	// extracted from the token.
	keys := oidc.NewKeySet(cfg.Logto.JWKSURL, nil)
	verifier := oidc.NewVerifier(cfg.Logto.Issuer, keys)

	accessAuth := &middleware.AccessTokenAuthenticator{
		Verifier: verifier,
		Resource: cfg.Logto.APIResource,
	}
	orgAuth := &middleware.OrganizationAuthenticator{Verifier: verifier}

	managementClient := logto.NewManagementClient(logto.ClientConfig{
		Endpoint:      cfg.Logto.Endpoint,
		TokenEndpoint: cfg.Logto.MgmtTokenEndpoint,
		Resource:      cfg.Logto.MgmtResource,
		ClientID:      cfg.Logto.MgmtClientID,
		ClientSecret:  cfg.Logto.MgmtClientSecret,
	}, nil)

	organizationHandler := &handler.OrganizationHandler{
		Logto:         managementClient,
		AdminRoleName: cfg.Logto.OrgAdminRoleName,
	}
	documentHandler := &handler.DocumentHandler{Store: store.NewDocumentStore()}

	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware("documents"))

	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Organization creation uses the resource-API audience; document access
	// uses per-organization tokens plus scope checks.
	e.POST("/organizations", organizationHandler.Create, middleware.RequireAuth(accessAuth))

	documents := e.Group("/documents", middleware.RequireAuth(orgAuth))
	documents.GET("", documentHandler.List, middleware.RequireScopes(scopeReadDocuments))
	documents.POST("", documentHandler.Create, middleware.RequireScopes(scopeCreateDocuments))

	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
