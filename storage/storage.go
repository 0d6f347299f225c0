// Package storage holds the durable records the client keeps between runs:
// the auth-storage session record and the company-storage tenant record.
package storage

import (
	"context"
)

// Persister saves and loads named JSON-serialisable records.
type Persister interface {
	// Load decodes the named record into v. found is false when no record exists.
	Load(ctx context.Context, name string, v any) (found bool, err error)

	// Save replaces the named record with v.
	Save(ctx context.Context, name string, v any) error

	// Delete removes the named record. Deleting a missing record is not an error.
	Delete(ctx context.Context, name string) error
}
