package database

import (
	"time"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/model"
)

var DB *gorm.DB

// DBConfig holds the database configuration
type DBConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// Initialize opens the SQLite database, migrates the schema and seeds the
// deterministic bootstrap data when the store is empty.
func Initialize(config DBConfig) error {
	var err error

	logLevel := config.LogLevel
	if logLevel == 0 {
		logLevel = logger.Warn
	}

	DB, err = gorm.Open(sqlite.Open(config.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return err
	}

	// Configure connection pool
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}

	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}

	if config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	// AutoMigrate will automatically create or update the table structure based on our models
	err = DB.AutoMigrate(&model.Tenant{}, &model.User{}, &model.Note{})
	if err != nil {
		return err
	}

	return seed(DB)
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// seed bootstraps two tenants with an admin and three members each. All seed
// users share the password "password". Skipped when tenants already exist.
func seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Tenant{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tenants := []model.Tenant{
		{ID: "acme-tenant-id", Slug: "acme", Name: "Acme Corp", Plan: model.PlanFree},
		{ID: "globex-tenant-id", Slug: "globex", Name: "Globex Corp", Plan: model.PlanFree},
	}
	if err := db.Create(&tenants).Error; err != nil {
		return err
	}

	users := []model.User{
		{ID: "admin-acme-id", Email: "admin@acme.test", Role: model.RoleAdmin, TenantID: "acme-tenant-id"},
		{ID: "user-acme-id", Email: "user@acme.test", Role: model.RoleMember, TenantID: "acme-tenant-id"},
		{ID: "user2-acme-id", Email: "user2@acme.test", Role: model.RoleMember, TenantID: "acme-tenant-id"},
		{ID: "user3-acme-id", Email: "user3@acme.test", Role: model.RoleMember, TenantID: "acme-tenant-id"},
		{ID: "admin-globex-id", Email: "admin@globex.test", Role: model.RoleAdmin, TenantID: "globex-tenant-id"},
		{ID: "user-globex-id", Email: "user@globex.test", Role: model.RoleMember, TenantID: "globex-tenant-id"},
		{ID: "user2-globex-id", Email: "user2@globex.test", Role: model.RoleMember, TenantID: "globex-tenant-id"},
		{ID: "user3-globex-id", Email: "user3@globex.test", Role: model.RoleMember, TenantID: "globex-tenant-id"},
	}
	for i := range users {
		users[i].PasswordHash = string(hash)
	}
	return db.Create(&users).Error
}
