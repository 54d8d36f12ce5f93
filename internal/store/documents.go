package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/model"
)

// DocumentStore is the in-memory document list backing the
// document-management demo. Documents are partitioned by organization id;
// every read and write takes the organization id from the verified
// principal.
type DocumentStore struct {
	mu    sync.RWMutex
	byOrg map[string][]model.Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		byOrg: make(map[string][]model.Document),
	}
}

// ListByOrganization returns a copy of the organization's documents, newest
// first.
func (s *DocumentStore) ListByOrganization(organizationID string) []model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.byOrg[organizationID]
	out := make([]model.Document, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		out = append(out, docs[i])
	}
	return out
}

// Create appends a new document to the organization's list and returns it.
func (s *DocumentStore) Create(organizationID, createdBy, title, content string) model.Document {
	doc := model.Document{
		ID:             uuid.NewString(),
		Title:          title,
		Content:        content,
		OrganizationID: organizationID,
		CreatedBy:      createdBy,
		CreatedAt:      time.Now(),
	}

	s.mu.Lock()
	s.byOrg[organizationID] = append(s.byOrg[organizationID], doc)
	s.mu.Unlock()

	return doc
}
