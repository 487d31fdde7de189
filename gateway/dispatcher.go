package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nexkasa/gateway-harness/diag"
	"github.com/nexkasa/gateway-harness/metrics"
	"github.com/nexkasa/gateway-harness/webhooklog"
)

/* Dispatcher fans a simulated event out in two steps: a synchronous append
 * to the webhook log so the event is always inspectable locally, then an
 * optional fire-and-forget POST to the caller's URL. Neither step may
 * block or fail the caller's response, and there are no retries
 */

// SenderSimulation labels log entries created by the simulator rather
// than by a real inbound request.
const SenderSimulation = "SYSTEM (Callback Simulation)"

// Deliverer performs the outbound leg of a callback.
type Deliverer interface {
	Deliver(ctx context.Context, url string, event map[string]any) error
}

// HTTPDeliverer posts the event as JSON with the callback timeout.
// Payloads are signed when a shared secret is configured.
type HTTPDeliverer struct {
	Client *http.Client
	Secret string
}

// NewHTTPDeliverer creates a deliverer with the callback timeout
func NewHTTPDeliverer(secret string) *HTTPDeliverer {
	return &HTTPDeliverer{
		Client: &http.Client{Timeout: diag.CallbackTimeout},
		Secret: secret,
	}
}

// Deliver posts the event to the callback URL
func (d *HTTPDeliverer) Deliver(ctx context.Context, url string, event map[string]any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.Secret != "" {
		req.Header.Set(SignatureHeader, SignHMAC(d.Secret, payload))
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("posting callback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}

type Dispatcher struct {
	Logs     webhooklog.UseCase
	Deliver  Deliverer
	Logger   *slog.Logger
	Recorder *metrics.Recorder

	// sleep is swapped out in tests so delayed delivery can be asserted
	// without waiting on real timing
	sleep func(time.Duration)
}

// NewDispatcher creates a dispatcher with dependency injection
func NewDispatcher(logs webhooklog.UseCase, deliver Deliverer, logger *slog.Logger, recorder *metrics.Recorder) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		Logs:     logs,
		Deliver:  deliver,
		Logger:   logger,
		Recorder: recorder,
		sleep:    time.Sleep,
	}
}

// Dispatch records the event and, when a callback URL was supplied,
// schedules delivery after the given delay. The record happens on the
// caller's goroutine; delivery never does.
func (d *Dispatcher) Dispatch(ctx context.Context, event map[string]any, callbackURL string, delay time.Duration) {
	d.Recorder.CallbackDispatched(ctx)

	raw, marshalErr := json.Marshal(event)
	if marshalErr != nil {
		// Still append the entry so the dispatch stays inspectable
		d.Logger.Warn("marshaling callback event", "error", marshalErr)
		raw = nil
	}

	headers := map[string]string{
		"Content-Type":      "application/json",
		"X-Event-Type":      eventType(event),
		"X-Callback-Target": callbackTarget(callbackURL),
	}
	if _, err := d.Logs.Record(ctx, SenderSimulation, http.MethodPost, headers, raw); err != nil {
		// The caller's response must go out regardless
		d.Logger.Warn("recording callback event", "error", err)
	}

	if callbackURL == "" || marshalErr != nil {
		return
	}

	go func() {
		if delay > 0 {
			d.sleep(delay)
		}
		// Deliberately detached from the request context: delivery
		// outlives the originating request/response cycle
		ctx, cancel := context.WithTimeout(context.Background(), diag.CallbackTimeout)
		defer cancel()

		if err := d.Deliver.Deliver(ctx, callbackURL, event); err != nil {
			d.Recorder.CallbackFailed(ctx)
			d.Logger.Warn("callback delivery failed", "url", callbackURL, "error", err)
			return
		}
		d.Recorder.CallbackDelivered(ctx)
		d.Logger.Info("callback delivered", "url", callbackURL, "event", eventType(event))
	}()
}

func eventType(event map[string]any) string {
	if s, ok := event["event"].(string); ok {
		return s
	}
	return "unknown"
}

func callbackTarget(url string) string {
	if url == "" {
		return "none"
	}
	return url
}
