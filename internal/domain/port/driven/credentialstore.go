// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"

	"github.com/ericfisherdev/keycausa/internal/domain/model"
)

// CredentialStore defines the driven port for credential persistence.
// Implementations only ever see sealed secrets; encryption happens in the
// application layer with the runtime's master key.
type CredentialStore interface {
	// List returns summaries ordered by service, then creation order. A
	// non-empty query restricts the result to records whose service,
	// username or category name contains it.
	List(ctx context.Context, query string) ([]model.CredentialSummary, error)

	// Get returns the full record. Returns model.ErrNotFound if id does not exist.
	Get(ctx context.Context, id int64) (*model.CredentialRecord, error)

	// Insert stores a new record, resolving record.Category by name (created
	// on demand, empty means none), and returns the assigned id.
	Insert(ctx context.Context, record model.CredentialRecord) (int64, error)

	// Update overwrites the record identified by update.ID, resolving the
	// category the same way as Insert. A nil update.Secret leaves the stored
	// ciphertext untouched. Returns model.ErrNotFound if absent.
	Update(ctx context.Context, update model.CredentialUpdate) error

	// Delete removes the record. Deleting a missing id is not an error.
	Delete(ctx context.Context, id int64) error

	// ListCategories returns every category, ordered by name.
	ListCategories(ctx context.Context) ([]model.Category, error)
}
