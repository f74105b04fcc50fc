package driven

import "context"

// DatabaseFile is implemented by stores backed by a single database file that
// may hold pending writes outside that file (for SQLite, the WAL).
type DatabaseFile interface {
	// Checkpoint flushes pending writes into the main database file so that
	// a byte copy of it is complete.
	Checkpoint(ctx context.Context) error
}
