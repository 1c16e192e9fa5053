// Package store persists one record per fetch event in the scraped_data
// table: raw page content plus the listing and pagination extraction
// results.
package store

import (
	"context"
	"encoding/json"

	"github.com/use-agent/harvest/models"
)

// Store reads and writes records by key. Each call is an independent
// request; there is no transaction spanning records.
type Store interface {
	// Read returns the record's raw content, or "" when the record is
	// missing or was never fetched.
	Read(ctx context.Context, key string) (string, error)

	// Write upserts the record's source URL and raw content.
	Write(ctx context.Context, key, url, content string) error

	// UpdateFields overwrites the non-nil columns of patch. Updating a
	// missing key is a silent no-op.
	UpdateFields(ctx context.Context, key string, patch Patch) error

	// Get returns the full record or an ErrCodeRecordNotFound error.
	Get(ctx context.Context, key string) (*models.Record, error)
}

// Patch selects the extraction columns to overwrite. Nil fields are left
// untouched, so listing and pagination results never clobber each other.
type Patch struct {
	StructuredFields json.RawMessage
	PaginationResult json.RawMessage
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	return p.StructuredFields == nil && p.PaginationResult == nil
}
