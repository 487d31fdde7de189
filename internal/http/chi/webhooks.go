package chi

import (
	"io"
	"net/http"

	"github.com/nexkasa/gateway-harness/metrics"
	"github.com/nexkasa/gateway-harness/webhooklog"
)

// logEntryResponse is the reduced entry shape the log viewer consumes
type logEntryResponse struct {
	ID      string            `json:"id"`
	Time    string            `json:"time"`
	Method  string            `json:"method"`
	Body    map[string]any    `json:"body"`
	Headers map[string]string `json:"headers"`
}

// webhookListener handles any method on /api/webhook-listener/.
// Whatever arrives gets captured verbatim for later inspection.
func webhookListener(logs webhooklog.UseCase, recorder *metrics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		defer r.Body.Close()

		headers := make(map[string]string, len(r.Header))
		for k, v := range r.Header {
			if len(v) > 0 {
				headers[k] = v[0]
			}
		}

		logID, err := logs.Record(r.Context(), clientIP(r), r.Method, headers, body)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		recorder.WebhookCaptured(r.Context())

		writeJSON(w, http.StatusOK, map[string]string{
			"status": "received",
			"log_id": logID,
		})
	}
}

// getWebhookLogs handles GET /api/get-webhook-logs/
func getWebhookLogs(logs webhooklog.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entries, err := logs.ListRecent(r.Context(), webhooklog.DefaultListLimit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		responses := make([]logEntryResponse, 0, len(entries))
		for _, entry := range entries {
			responses = append(responses, logEntryResponse{
				ID:      entry.ID,
				Time:    entry.ReceivedAt.Format("15:04:05"),
				Method:  entry.Method,
				Body:    entry.Body,
				Headers: entry.Headers,
			})
		}

		writeJSON(w, http.StatusOK, responses)
	})
}
