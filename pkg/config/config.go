package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration for the SQLite file store.
type DBConfig struct {
	Path            string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the SQLite connection string.
func (c *DBConfig) GetDSN() string {
	return c.Path
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	ServiceLabel string
}

// AuthConfig selects the token verification strategy at startup.
// "local" verifies tokens issued by this service with a shared secret,
// "logto" verifies tokens issued by a Logto deployment via its JWKS.
type AuthConfig struct {
	Mode string
}

// LogtoConfig holds the endpoints and credentials for the remote
// identity provider used by the document service.
type LogtoConfig struct {
	Endpoint           string
	Issuer             string
	JWKSURL            string
	APIResource        string
	MgmtTokenEndpoint  string
	MgmtResource       string
	MgmtClientID       string
	MgmtClientSecret   string
	OrgAdminRoleName   string
	OrgDefaultScopes   string
}

// Config holds all configuration
type Config struct {
	DB      DBConfig
	Server  ServerConfig
	JWT     JWTConfig
	Log     LogConfig
	Metrics MetricsConfig
	Auth    AuthConfig
	Logto   LogtoConfig
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		DB: DBConfig{
			Path:            getEnv("DB_PATH", "database.db"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "3000"),
			Env:  getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "notesservicesecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			ServiceLabel: getEnv("METRICS_SERVICE_LABEL", "notes"),
		},
		Auth: AuthConfig{
			Mode: getEnv("AUTH_MODE", "local"),
		},
		Logto: LogtoConfig{
			Endpoint:          getEnv("LOGTO_ENDPOINT", "http://localhost:3001"),
			Issuer:            getEnv("LOGTO_ISSUER", "http://localhost:3001/oidc"),
			JWKSURL:           getEnv("LOGTO_JWKS_URL", "http://localhost:3001/oidc/jwks"),
			APIResource:       getEnv("LOGTO_API_RESOURCE", "http://localhost:3000/api"),
			MgmtTokenEndpoint: getEnv("LOGTO_MANAGEMENT_API_TOKEN_ENDPOINT", "http://localhost:3001/oidc/token"),
			MgmtResource:      getEnv("LOGTO_MANAGEMENT_API_RESOURCE", "https://default.logto.app/api"),
			MgmtClientID:      getEnv("LOGTO_MANAGEMENT_API_APPLICATION_ID", ""),
			MgmtClientSecret:  getEnv("LOGTO_MANAGEMENT_API_APPLICATION_SECRET", ""),
			OrgAdminRoleName:  getEnv("LOGTO_ORG_ADMIN_ROLE", "admin"),
			OrgDefaultScopes:  getEnv("LOGTO_ORG_DEFAULT_SCOPES", "read:documents create:documents"),
		},
	}

	return config, nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("environment", c.Server.Env),
		zap.String("db_path", c.DB.Path),
		zap.String("server_port", c.Server.Port),
		zap.String("auth_mode", c.Auth.Mode),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
