package webhooklog

import "context"

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// Appender provides the single write operation for the log.
// The log is append-only: entries are never updated or deleted.
type Appender interface {
	/* Context is always the first parameter in functions that do I/O
	 * This allows for cancellation, timeouts, and shared values
	 */
	Append(ctx context.Context, entry Entry) (string, error)
}

// Lister provides read access to recently captured entries.
type Lister interface {
	/* ListRecent returns up to limit entries, most recent first
	 * There is deliberately no way to page through older history
	 */
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

/* Interface composition - combining small interfaces into larger ones
 * This is preferred over large monolithic interfaces
 */
type Repository interface {
	Appender
	Lister
	Close(ctx context.Context) error
}
