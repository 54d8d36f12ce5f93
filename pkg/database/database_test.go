package database

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"

	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/model"
)

func initTestDB(t *testing.T) string {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	require.NoError(t, Initialize(DBConfig{DSN: dsn, LogLevel: logger.Silent}))
	return dsn
}

func TestSeedCreatesDeterministicFixtures(t *testing.T) {
	initTestDB(t)

	var tenants []model.Tenant
	require.NoError(t, GetDB().Order("slug").Find(&tenants).Error)
	require.Len(t, tenants, 2)
	assert.Equal(t, "acme-tenant-id", tenants[0].ID)
	assert.Equal(t, "Acme Corp", tenants[0].Name)
	assert.Equal(t, model.PlanFree, tenants[0].Plan)
	assert.Equal(t, "globex-tenant-id", tenants[1].ID)

	var userCount int64
	require.NoError(t, GetDB().Model(&model.User{}).Count(&userCount).Error)
	assert.Equal(t, int64(8), userCount)

	var admins []model.User
	require.NoError(t, GetDB().Where("role = ?", model.RoleAdmin).Order("email").Find(&admins).Error)
	require.Len(t, admins, 2)
	assert.Equal(t, "admin@acme.test", admins[0].Email)
	assert.Equal(t, "acme-tenant-id", admins[0].TenantID)
	assert.Equal(t, "admin@globex.test", admins[1].Email)

	// Every seed account authenticates with the shared demo password.
	for _, u := range admins {
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password")))
	}
}

func TestSeedIsSkippedWhenTenantsExist(t *testing.T) {
	dsn := initTestDB(t)

	require.NoError(t, GetDB().Delete(&model.User{}, "id = ?", "user3-globex-id").Error)

	// Re-initializing against the same database must not re-seed.
	require.NoError(t, Initialize(DBConfig{DSN: dsn, LogLevel: logger.Silent}))

	var userCount int64
	require.NoError(t, GetDB().Model(&model.User{}).Count(&userCount).Error)
	assert.Equal(t, int64(7), userCount)
}

func TestNotesTableIsMigrated(t *testing.T) {
	initTestDB(t)

	note := model.Note{
		ID:       uuid.NewString(),
		Title:    "migration check",
		Content:  "body",
		TenantID: "acme-tenant-id",
		UserID:   "user-acme-id",
	}
	require.NoError(t, GetDB().Create(&note).Error)

	var fetched model.Note
	require.NoError(t, GetDB().First(&fetched, "id = ?", note.ID).Error)
	assert.Equal(t, "migration check", fetched.Title)
	assert.False(t, fetched.CreatedAt.IsZero())
}
