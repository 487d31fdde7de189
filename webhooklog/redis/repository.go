package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nexkasa/gateway-harness/webhooklog"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of webhooklog.Repository
 * Uses a Hash per entry for the entry data
 * Uses a Sorted Set scored by receipt time as the recency index
 */

const (
	hashPrefix = "webhooklog" // Hash naming: webhooklog:{entry_id}
	indexKey   = "webhooklog:index"
)

type Repository struct {
	client *redis.Client
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Repository{
		client: client,
	}, nil
}

// Append stores an entry hash and indexes it by receipt time
func (r *Repository) Append(ctx context.Context, entry webhooklog.Entry) (string, error) {
	hashKey := fmt.Sprintf("%s:%s", hashPrefix, entry.ID)

	headersJSON, err := json.Marshal(entry.Headers)
	if err != nil {
		return "", fmt.Errorf("marshaling headers: %w", err)
	}
	bodyJSON, err := json.Marshal(entry.Body)
	if err != nil {
		return "", fmt.Errorf("marshaling body: %w", err)
	}

	err = r.client.HSet(ctx, hashKey, map[string]interface{}{
		"id":          entry.ID,
		"received_at": entry.ReceivedAt.UnixNano(),
		"sender":      entry.Sender,
		"method":      entry.Method,
		"headers":     string(headersJSON),
		"body":        string(bodyJSON),
		"raw_body":    entry.RawBody,
	}).Err()
	if err != nil {
		return "", fmt.Errorf("storing entry: %w", err)
	}

	err = r.client.ZAdd(ctx, indexKey, redis.Z{
		Score:  float64(entry.ReceivedAt.UnixNano()),
		Member: entry.ID,
	}).Err()
	if err != nil {
		return "", fmt.Errorf("indexing entry: %w", err)
	}

	return entry.ID, nil
}

// ListRecent returns up to limit entries, newest first, via the recency index
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]webhooklog.Entry, error) {
	if limit <= 0 {
		return []webhooklog.Entry{}, nil
	}

	ids, err := r.client.ZRevRange(ctx, indexKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading recency index: %w", err)
	}

	entries := make([]webhooklog.Entry, 0, len(ids))
	for _, id := range ids {
		entry, err := r.get(ctx, id)
		if err != nil {
			// Index can briefly point at a hash another client has not
			// finished writing; skip rather than fail the whole listing
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *Repository) get(ctx context.Context, id string) (webhooklog.Entry, error) {
	hashKey := fmt.Sprintf("%s:%s", hashPrefix, id)

	data, err := r.client.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return webhooklog.Entry{}, fmt.Errorf("getting entry: %w", err)
	}
	if len(data) == 0 {
		return webhooklog.Entry{}, fmt.Errorf("entry not found: %s", id)
	}

	headers := make(map[string]string)
	if s, ok := data["headers"]; ok && s != "" {
		if err := json.Unmarshal([]byte(s), &headers); err != nil {
			return webhooklog.Entry{}, fmt.Errorf("unmarshaling headers: %w", err)
		}
	}

	body := map[string]any{}
	if s, ok := data["body"]; ok && s != "" {
		if err := json.Unmarshal([]byte(s), &body); err != nil {
			return webhooklog.Entry{}, fmt.Errorf("unmarshaling body: %w", err)
		}
	}

	entry := webhooklog.Entry{
		ID:         data["id"],
		ReceivedAt: time.Unix(0, parseInt64(data["received_at"])),
		Sender:     data["sender"],
		Method:     data["method"],
		Headers:    headers,
		Body:       body,
		RawBody:    data["raw_body"],
	}

	return entry, nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

func parseInt64(s string) int64 {
	var result int64
	fmt.Sscanf(s, "%d", &result)
	return result
}
