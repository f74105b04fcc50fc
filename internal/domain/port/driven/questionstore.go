package driven

import (
	"context"

	"github.com/ericfisherdev/keycausa/internal/domain/model"
)

// QuestionStore defines the driven port for the encrypted question document.
// The document is always read and written as a whole.
type QuestionStore interface {
	// Load returns the full question list. When no document exists yet, an
	// empty one is persisted and returned.
	Load(ctx context.Context) ([]model.SecurityQuestion, error)

	// Update applies fn to the current list and persists whatever it returns.
	// Concurrent Update calls are serialized. If fn returns an error nothing
	// is written and the error is returned unchanged.
	Update(ctx context.Context, fn func([]model.SecurityQuestion) ([]model.SecurityQuestion, error)) error
}
