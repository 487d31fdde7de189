package chi

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/nexkasa/gateway-harness/diag"
	"github.com/nexkasa/gateway-harness/metrics"
)

/* HTTP layer DTOs for the diagnostic API
 * Separate from domain entities to avoid leaking internal structure
 */

// diagnosticRequest represents the run-diagnostic body
type diagnosticRequest struct {
	TargetURL     string            `json:"target_url"`
	TestType      string            `json:"test_type"`
	HTTPMethod    string            `json:"http_method"`
	Payload       map[string]any    `json:"payload"`
	CustomHeaders map[string]string `json:"custom_headers"`
}

// runDiagnostic handles POST /api/run-diagnostic/
func runDiagnostic(runner *diag.Runner, recorder *metrics.Recorder) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req diagnosticRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Internal Server Error: %v", err))
			return
		}

		recorder.DiagnosticRun(r.Context(), req.TestType)

		result, err := runner.Run(r.Context(), diag.Input{
			TargetURL:     req.TargetURL,
			TestType:      req.TestType,
			HTTPMethod:    req.HTTPMethod,
			Payload:       req.Payload,
			CustomHeaders: req.CustomHeaders,
		})
		if err != nil {
			if err == diag.ErrTargetURLRequired {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Internal Server Error: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, result)
	})
}

// testConnection handles GET|POST /api/test-connection/
// It echoes what the server saw, which is the whole point: the probe side
// compares this against what it thinks it sent.
func testConnection(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		body = nil
	}
	defer r.Body.Close()

	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "Alive",
		"method":        r.Method,
		"scheme":        requestScheme(r),
		"client_ip":     clientIP(r),
		"user_agent":    r.UserAgent(),
		"cf_ray":        r.Header.Get("Cf-Ray"),
		"headers":       headers,
		"body_received": len(body),
	})
}

// clientIP prefers the forwarded-IP header set by the edge over the raw
// peer address.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("Cf-Connecting-Ip"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
