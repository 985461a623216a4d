// Package store persists wizard session and uploaded document metadata.
// Answers live in the answers package; this store only tracks records.
package store

import (
	"context"

	"github.com/visamate/visamate/internal/model"
)

// DocumentFilter narrows ListDocuments.
type DocumentFilter struct {
	SessionID string               `json:"session_id,omitempty"`
	Status    model.DocumentStatus `json:"status,omitempty"`
	Limit     int                  `json:"limit,omitempty"`
}

// Store defines the persistence interface for sessions and documents.
type Store interface {
	// Sessions
	CreateSession(ctx context.Context, userID, firstStep string) (*model.Session, error)
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	UpdateSessionStep(ctx context.Context, sessionID, step string) error

	// Documents
	CreateDocument(ctx context.Context, doc *model.Document) error
	GetDocument(ctx context.Context, documentID string) (*model.Document, error)
	UpdateDocument(ctx context.Context, doc *model.Document) error
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store named by driver. dsn is a file path for sqlite and a
// connection string for postgres.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	case "sqlite", "":
		return NewSQLite(dsn)
	default:
		return nil, errUnknownDriver(driver)
	}
}
