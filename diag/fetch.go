package diag

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

/* Client issues a single outbound probe and normalizes whatever happens
 * into a Result. Network, TLS and timeout failures are data here, not
 * errors: the dashboard renders them inline
 */

const (
	// DefaultTimeout applies to diagnostic probes.
	DefaultTimeout = 10 * time.Second
	// CallbackTimeout applies to simulated callback delivery.
	CallbackTimeout = 5 * time.Second

	// DefaultBodyLimit caps the raw-text fallback for the simple test types.
	DefaultBodyLimit = 500
	// CustomBodyLimit caps the fallback for the custom test type, which is
	// used to inspect full HTML and debug pages.
	CustomBodyLimit = 100000
)

// Request describes a single outbound probe.
type Request struct {
	Method    string
	URL       string
	Headers   map[string]string
	Payload   map[string]any
	BodyLimit int
	VerifyTLS bool
	Timeout   time.Duration
}

// Result is the normalized outcome of a probe. Zero-valued fields are
// omitted so each test type reports only what it measured.
type Result struct {
	StatusCode      int               `json:"status_code,omitempty"`
	MethodUsed      string            `json:"method_used,omitempty"`
	RedirectHistory []string          `json:"redirect_history,omitempty"`
	FinalURL        string            `json:"final_url,omitempty"`
	HeadersSent     map[string]string `json:"headers_sent,omitempty"`
	ResponseHeaders map[string]string `json:"response_headers,omitempty"`
	ElapsedMs       int64             `json:"elapsed_ms,omitempty"`
	Body            any               `json:"body,omitempty"`
	Error           string            `json:"error,omitempty"`
}

type Client struct{}

// NewClient creates a fetch client
func NewClient() *Client {
	return &Client{}
}

// Do performs the probe. The returned Result carries either the response
// data or an Error string; Do itself never fails.
func (c *Client) Do(ctx context.Context, req Request) Result {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	bodyLimit := req.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimit
	}

	var payload io.Reader
	if req.Payload != nil {
		data, err := json.Marshal(req.Payload)
		if err != nil {
			return Result{Error: err.Error()}
		}
		payload = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, payload)
	if err != nil {
		return Result{Error: err.Error()}
	}
	if req.Payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		// Set rather than Add so an empty value still overrides the
		// transport default (the bot probe relies on this)
		httpReq.Header.Set(k, v)
	}

	var redirects []string
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: !req.VerifyTLS},
		},
		CheckRedirect: func(next *http.Request, via []*http.Request) error {
			redirects = append(redirects, via[len(via)-1].URL.String())
			return nil
		},
	}

	start := time.Now()
	resp, err := httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		return Result{Error: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Error: err.Error()}
	}

	result := Result{
		StatusCode:      resp.StatusCode,
		MethodUsed:      method,
		RedirectHistory: redirects,
		FinalURL:        resp.Request.URL.String(),
		HeadersSent:     flattenHeaders(httpReq.Header),
		ResponseHeaders: flattenHeaders(resp.Header),
		ElapsedMs:       elapsed.Milliseconds(),
		Body:            decodeBody(data, bodyLimit),
	}
	return result
}

// decodeBody tries a structured decode first and falls back to truncated text.
func decodeBody(data []byte, limit int) any {
	if len(data) == 0 {
		return nil
	}
	var structured any
	if err := json.Unmarshal(data, &structured); err == nil {
		return structured
	}
	text := string(data)
	if len(text) > limit {
		text = text[:limit]
	}
	return text
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
