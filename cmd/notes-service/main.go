package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/handler"
	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/middleware"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/config"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/database"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/jwtutil"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/logger"
	"github.com/tharunrega/Multi-Tenant-Notes-App/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: "notes-service",
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting notes service...", cfg.LogConfig()...)

	// Initialize database
	if err := database.Initialize(database.DBConfig{
		DSN:             cfg.DB.GetDSN(),
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		LogLevel:        cfg.DB.LogLevel,
	}); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})

	// The notes service is the local-secret deployment of the verification
	// interface; the document service is the remote-identity one.
	if cfg.Auth.Mode != "local" {
		log.Fatal("Unsupported auth mode for the notes service", zap.String("mode", cfg.Auth.Mode))
	}
	authenticator := &middleware.LocalAuthenticator{JWT: jwtUtil}

	authHandler := &handler.AuthHandler{JWT: jwtUtil}

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware(cfg.Metrics.ServiceLabel))

	// Public routes - no authentication required
	e.GET("/", handler.APIIndex)
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)
	e.POST("/auth/login", authHandler.Login)

	// Authenticated routes
	authed := e.Group("", middleware.RequireAuth(authenticator))
	authed.GET("/me", handler.Me)

	authed.GET("/notes", handler.ListNotes)
	authed.POST("/notes", handler.CreateNote)
	authed.GET("/notes/:id", handler.GetNote)
	authed.PUT("/notes/:id", handler.UpdateNote)
	authed.DELETE("/notes/:id", handler.DeleteNote)

	// Tenant management - admin role required on top of authentication
	admin := authed.Group("/tenants", middleware.RequireRole("admin"))
	admin.POST("/:slug/upgrade", handler.UpgradeTenant)
	admin.POST("/:slug/invite", handler.InviteUser)

	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
