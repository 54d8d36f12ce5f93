package model

import "time"

// Document is an organization-scoped record in the document-management demo.
// Documents live in an in-memory store, not in the relational file store.
type Document struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	OrganizationID string    `json:"organization_id"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}
