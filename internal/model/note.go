package model

import "time"

// Note is owned by a tenant and visible to all users of that tenant
// regardless of author. Every query and mutation must be filtered by the
// requesting principal's tenant id.
type Note struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	TenantID  string    `json:"tenant_id" gorm:"type:varchar(36);index;not null"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// CreatedBy carries the author's email, joined from the users table on
	// reads. Not a column.
	CreatedBy string `json:"created_by,omitempty" gorm:"->;-:migration"`
}
