package diag

import (
	"context"
	"errors"
	"strings"
)

/* Runner shapes a probe according to the selected test type and dispatches
 * it through the fetch client. Each test type exists to reproduce a class
 * of client the gateway has mishandled in the past
 */

// Test types selected by exact string match.
const (
	TestBrowser = "browser"
	TestBot     = "bot"
	TestHTTP    = "http"
	TestCustom  = "custom"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	toolUserAgent    = "NexKasa-Diagnostic-Tool/1.0"
)

// ErrTargetURLRequired is returned when a run is requested without a target.
var ErrTargetURLRequired = errors.New("Target URL required")

// Fetcher abstracts the fetch client so tests can intercept the probe.
type Fetcher interface {
	Do(ctx context.Context, req Request) Result
}

// Input describes a single diagnostic run.
type Input struct {
	TargetURL     string
	TestType      string
	HTTPMethod    string
	Payload       map[string]any
	CustomHeaders map[string]string
}

type Runner struct {
	Fetch Fetcher
}

// NewRunner creates a runner backed by the given fetch client
func NewRunner(fetch Fetcher) *Runner {
	return &Runner{Fetch: fetch}
}

// Run executes one diagnostic probe. An unmatched test type yields an
// empty result; probe failures come back inside the Result, never as an
// error.
func (r *Runner) Run(ctx context.Context, in Input) (Result, error) {
	if in.TargetURL == "" {
		return Result{}, ErrTargetURLRequired
	}

	switch in.TestType {
	case TestBrowser:
		return r.simpleProbe(ctx, in, browserUserAgent), nil
	case TestBot:
		// An empty user-agent is what most bot-mitigation layers key on
		return r.simpleProbe(ctx, in, ""), nil
	case TestHTTP:
		return r.plainHTTPProbe(ctx, in), nil
	case TestCustom:
		return r.customProbe(ctx, in), nil
	default:
		return Result{}, nil
	}
}

// simpleProbe covers the browser and bot test types, which differ only in
// the user-agent they present.
func (r *Runner) simpleProbe(ctx context.Context, in Input, userAgent string) Result {
	res := r.Fetch.Do(ctx, Request{
		Method:  in.HTTPMethod,
		URL:     in.TargetURL,
		Headers: map[string]string{"User-Agent": userAgent},
		Payload: in.Payload,
	})
	return trimSimple(res)
}

// plainHTTPProbe rewrites the scheme to plain HTTP before dispatch and
// reports the redirect chain when the server bounced the request.
func (r *Runner) plainHTTPProbe(ctx context.Context, in Input) Result {
	target := in.TargetURL
	if strings.HasPrefix(target, "https://") {
		target = "http://" + strings.TrimPrefix(target, "https://")
	}

	res := r.Fetch.Do(ctx, Request{
		Method:  in.HTTPMethod,
		URL:     target,
		Payload: in.Payload,
	})

	trimmed := trimSimple(res)
	if len(res.RedirectHistory) > 0 {
		trimmed.RedirectHistory = res.RedirectHistory
		trimmed.FinalURL = res.FinalURL
	}
	return trimmed
}

// customProbe merges caller-supplied headers over the tool identity and
// reports the full exchange, including timing and headers on both sides.
func (r *Runner) customProbe(ctx context.Context, in Input) Result {
	headers := map[string]string{"User-Agent": toolUserAgent}
	for k, v := range in.CustomHeaders {
		if strings.TrimSpace(k) == "" {
			continue
		}
		headers[k] = v
	}

	res := r.Fetch.Do(ctx, Request{
		Method:    in.HTTPMethod,
		URL:       in.TargetURL,
		Headers:   headers,
		Payload:   in.Payload,
		BodyLimit: CustomBodyLimit,
	})
	if res.Error != "" {
		return Result{Error: res.Error}
	}
	return Result{
		StatusCode:      res.StatusCode,
		MethodUsed:      res.MethodUsed,
		HeadersSent:     res.HeadersSent,
		ElapsedMs:       res.ElapsedMs,
		ResponseHeaders: res.ResponseHeaders,
		Body:            res.Body,
	}
}

// trimSimple keeps the fields the simple test types report.
func trimSimple(res Result) Result {
	if res.Error != "" {
		return Result{Error: res.Error}
	}
	return Result{
		StatusCode: res.StatusCode,
		MethodUsed: res.MethodUsed,
		Body:       res.Body,
	}
}
