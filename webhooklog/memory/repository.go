package memory

import (
	"context"
	"sync"

	"github.com/nexkasa/gateway-harness/webhooklog"
)

/* In-memory implementation of webhooklog.Repository
 * The default backend for local runs and unit tests; entries live for
 * the lifetime of the process only
 */

type Repository struct {
	mu      sync.Mutex
	entries []webhooklog.Entry
}

// NewRepository creates an empty in-memory repository
func NewRepository() *Repository {
	return &Repository{}
}

// Append stores an entry. Entries are kept in arrival order.
func (r *Repository) Append(ctx context.Context, entry webhooklog.Entry) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	return entry.ID, nil
}

// ListRecent returns up to limit entries, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]webhooklog.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.entries)
	if limit > n {
		limit = n
	}
	if limit < 0 {
		limit = 0
	}

	out := make([]webhooklog.Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

// Close is a no-op for the in-memory backend
func (r *Repository) Close(ctx context.Context) error {
	return nil
}
