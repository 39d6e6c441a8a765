// Package store is the record-store adapter: document access over named
// collections. The rest of the service talks to this interface only; the
// concrete backend (MySQL in production, memory in tests) is injected at
// startup.
package store

import (
	"context"
	"errors"
)

// Collection names used by the service.
const (
	Users        = "users"
	TempRanks    = "tempRanks"
	ChatMessages = "chatMessages"
	Credentials  = "credentials"
)

// Doc is a JSON document. Values follow encoding/json conventions
// (numbers decode as float64).
type Doc map[string]any

// Record pairs a document with its id, as returned by queries and listings.
type Record struct {
	ID  string
	Doc Doc
}

// ErrNotFound is returned by Get when no document exists under the id.
var ErrNotFound = errors.New("document not found")

// Store is the adapter contract. Set overwrites the whole document.
// Merge patches the named fields, creating the document when absent.
// Delete is idempotent: removing a missing document is not an error.
type Store interface {
	Get(ctx context.Context, collection, id string) (Doc, error)
	Set(ctx context.Context, collection, id string, doc Doc) error
	Merge(ctx context.Context, collection, id string, fields Doc) error
	QueryByField(ctx context.Context, collection, field, value string) ([]Record, error)
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]Record, error)
}
