package model

import "time"

// Roles within a tenant. Admins may upgrade the plan and invite users.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User represents the user model stored in the database. A user belongs to
// exactly one tenant.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email        string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;type:varchar(255);not null"`
	Role         string    `json:"role" gorm:"type:varchar(20);not null;default:'member'"`
	TenantID     string    `json:"tenant_id" gorm:"type:varchar(36);index;not null"`
	CreatedAt    time.Time `json:"created_at"`
}
