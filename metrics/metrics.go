package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Recorder provides OpenTelemetry counters for the harness, exported in
// Prometheus format. A nil Recorder is valid and records nothing, so
// components can be wired without metrics in tests.
type Recorder struct {
	meterProvider *sdkmetric.MeterProvider

	diagnosticsRun      metric.Int64Counter
	webhooksCaptured    metric.Int64Counter
	callbacksDispatched metric.Int64Counter
	callbacksDelivered  metric.Int64Counter
	callbacksFailed     metric.Int64Counter
}

// NewRecorder creates a new metrics recorder with a Prometheus exporter
func NewRecorder() (*Recorder, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"gateway-harness",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	r := &Recorder{meterProvider: meterProvider}

	r.diagnosticsRun, err = meter.Int64Counter(
		"diagnostic.runs",
		metric.WithDescription("Number of diagnostic probes run, by test type"),
		metric.WithUnit("{runs}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating diagnostics counter: %w", err)
	}

	r.webhooksCaptured, err = meter.Int64Counter(
		"webhook.captured",
		metric.WithDescription("Number of inbound webhooks captured by the listener"),
		metric.WithUnit("{webhooks}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating webhooks counter: %w", err)
	}

	r.callbacksDispatched, err = meter.Int64Counter(
		"callback.dispatched",
		metric.WithDescription("Number of simulated callback events dispatched"),
		metric.WithUnit("{callbacks}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dispatched counter: %w", err)
	}

	r.callbacksDelivered, err = meter.Int64Counter(
		"callback.delivered",
		metric.WithDescription("Number of callbacks delivered to the caller's URL"),
		metric.WithUnit("{callbacks}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating delivered counter: %w", err)
	}

	r.callbacksFailed, err = meter.Int64Counter(
		"callback.failed",
		metric.WithDescription("Number of callback deliveries that failed"),
		metric.WithUnit("{callbacks}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	return r, nil
}

// DiagnosticRun counts a probe by test type
func (r *Recorder) DiagnosticRun(ctx context.Context, testType string) {
	if r == nil {
		return
	}
	r.diagnosticsRun.Add(ctx, 1, metric.WithAttributes(
		attribute.String("test.type", testType),
	))
}

// WebhookCaptured counts an inbound webhook
func (r *Recorder) WebhookCaptured(ctx context.Context) {
	if r == nil {
		return
	}
	r.webhooksCaptured.Add(ctx, 1)
}

// CallbackDispatched counts a simulated callback event
func (r *Recorder) CallbackDispatched(ctx context.Context) {
	if r == nil {
		return
	}
	r.callbacksDispatched.Add(ctx, 1)
}

// CallbackDelivered counts a successful outbound delivery
func (r *Recorder) CallbackDelivered(ctx context.Context) {
	if r == nil {
		return
	}
	r.callbacksDelivered.Add(ctx, 1)
}

// CallbackFailed counts a failed outbound delivery
func (r *Recorder) CallbackFailed(ctx context.Context) {
	if r == nil {
		return
	}
	r.callbacksFailed.Add(ctx, 1)
}

// Handler serves Prometheus-formatted metrics
func (r *Recorder) Handler() http.Handler {
	return promhttp.Handler()
}

// Shutdown gracefully shuts down the meter provider
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r == nil || r.meterProvider == nil {
		return nil
	}
	return r.meterProvider.Shutdown(ctx)
}
