package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Identity is an anonymous client identifier with its issue time.
type Identity struct {
	ID        string
	CreatedAt time.Time
}

// Document is a schema-validated submission.
type Document struct {
	ID        int64
	Name      string
	Age       int
	CreatedAt time.Time
}

// IdentityStore handles identity persistence.
type IdentityStore interface {
	// CreateIdentity persists a freshly issued identity.
	CreateIdentity(ctx context.Context, id string) error

	// GetIdentity retrieves an identity by id.
	GetIdentity(ctx context.Context, id string) (*Identity, error)

	// DeleteIdentitiesBefore removes identities issued before the cutoff
	// and returns how many were removed.
	DeleteIdentitiesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// DocumentStore handles document persistence.
type DocumentStore interface {
	// SaveDocument persists a document and fills in its id.
	SaveDocument(ctx context.Context, doc *Document) error

	// ListDocuments retrieves all stored documents.
	ListDocuments(ctx context.Context) ([]*Document, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	IdentityStore
	DocumentStore

	// Close closes the underlying database connection.
	Close() error
}
