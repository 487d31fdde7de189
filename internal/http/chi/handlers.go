package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/nexkasa/gateway-harness/diag"
	"github.com/nexkasa/gateway-harness/gateway"
	"github.com/nexkasa/gateway-harness/metrics"
	"github.com/nexkasa/gateway-harness/webhooklog"
)

// Handlers sets up the harness API routes
func Handlers(ctx context.Context, runner *diag.Runner, sim *gateway.Simulator, logs webhooklog.UseCase, recorder *metrics.Recorder) *chi.Mux {
	logger := httplog.NewLogger("gateway-harness", httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if recorder != nil {
		r.Method(http.MethodGet, "/metrics", recorder.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		// Diagnostics
		r.Post("/run-diagnostic/", runDiagnostic(runner, recorder).ServeHTTP)
		r.HandleFunc("/test-connection/", testConnection)

		// Mock gateway; both slash and no-slash are registered because
		// provider SDKs are inconsistent about trailing slashes
		r.Post("/get-eligible-account", eligibleAccount(sim).ServeHTTP)
		r.Post("/get-eligible-account/", eligibleAccount(sim).ServeHTTP)
		r.Post("/create-transaction", createTransaction(sim).ServeHTTP)
		r.Post("/create-transaction/", createTransaction(sim).ServeHTTP)
		r.Post("/public/withdraw-request", withdrawRequest(sim).ServeHTTP)
		r.Post("/public/withdraw-request/", withdrawRequest(sim).ServeHTTP)

		// Webhook capture
		r.HandleFunc("/webhook-listener/", webhookListener(logs, recorder))
		r.Get("/get-webhook-logs/", getWebhookLogs(logs).ServeHTTP)
	})

	return r
}
