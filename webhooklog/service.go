package webhooklog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

/* Service represents the business logic layer
 * Uses pointer semantics as it's an API, not data
 */

// DefaultListLimit is the number of entries the log viewer shows.
const DefaultListLimit = 20

// UseCase defines the business operations for the webhook log
type UseCase interface {
	Record(ctx context.Context, sender, method string, headers map[string]string, rawBody []byte) (string, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

type Service struct {
	Repo Repository
}

// NewService creates a new webhook log service with dependency injection
func NewService(repo Repository) *Service {
	return &Service{
		Repo: repo,
	}
}

// Record captures an inbound webhook or a simulated callback as a new entry.
// The raw body is kept verbatim; a structured copy is decoded when the body
// is a JSON object, otherwise Body stays an empty map.
func (s *Service) Record(ctx context.Context, sender, method string, headers map[string]string, rawBody []byte) (string, error) {
	if headers == nil {
		headers = map[string]string{}
	}

	body := map[string]any{}
	if len(rawBody) > 0 {
		if err := json.Unmarshal(rawBody, &body); err != nil {
			body = map[string]any{}
		}
	}

	entry := Entry{
		ID:         uuid.New().String(),
		ReceivedAt: time.Now(),
		Sender:     sender,
		Method:     method,
		Headers:    headers,
		Body:       body,
		RawBody:    string(rawBody),
	}

	id, err := s.Repo.Append(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("appending log entry: %w", err)
	}

	return id, nil
}

// ListRecent returns the newest entries, most recent first.
// A non-positive limit falls back to DefaultListLimit.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	entries, err := s.Repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing log entries: %w", err)
	}
	return entries, nil
}
