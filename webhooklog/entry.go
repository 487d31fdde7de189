package webhooklog

import "time"

/* Entry represents a captured webhook delivery or a simulated callback
 * Uses value semantics as it represents data, not behavior
 */
type Entry struct {
	ID         string
	ReceivedAt time.Time
	Sender     string
	Method     string
	Headers    map[string]string
	Body       map[string]any
	RawBody    string
}
