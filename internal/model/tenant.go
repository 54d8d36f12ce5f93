package model

import "time"

// Subscription plans. The only transition is free -> pro via the upgrade
// endpoint; there is no downgrade path.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// FreePlanNoteLimit is the maximum number of live notes a free-plan tenant
// may hold. Checked at creation time by counting, not by a persisted counter.
const FreePlanNoteLimit = 3

// Tenant represents an isolated customer account. All notes and users are
// partitioned by tenant id.
type Tenant struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Slug      string    `json:"slug" gorm:"type:varchar(50);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Plan      string    `json:"plan" gorm:"type:varchar(10);not null;default:'free'"`
	CreatedAt time.Time `json:"created_at"`
}
