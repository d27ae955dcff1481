// Package webhook posts analysis reports to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/ccollicutt/spilltrace/pkg/analyzer"
	"github.com/ccollicutt/spilltrace/pkg/config"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// maxResponseBody bounds how much of a reply is kept.
const maxResponseBody = 1 << 20

// Payload is the JSON document posted to an endpoint.
type Payload struct {
	Event  string           `json:"event"`
	SentAt time.Time        `json:"sent_at"`
	Report *analyzer.Report `json:"report"`
}

// Client sends analysis reports to webhook endpoints.
type Client struct {
	httpClient *http.Client
	logger     log.Logger
}

// NewClient creates a new webhook client. A nil logger discards output.
func NewClient(logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Client{
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // Request timeout (uses DefaultTimeout if zero)
}

// Response contains the result of a webhook request.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success returns true if the webhook was sent successfully (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts an analysis report to a webhook endpoint.
func (c *Client) Send(ctx context.Context, report *analyzer.Report, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}
	fail := func(err error) *Response {
		resp.Error = err
		resp.Duration = time.Since(start)
		return resp
	}

	payload, err := json.Marshal(Payload{Event: "spill_analysis", SentAt: start.UTC(), Report: report})
	if err != nil {
		return fail(errors.Wrap(err, "marshalling report"))
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(payload))
	if err != nil {
		return fail(errors.Wrap(err, "creating request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "spilltrace-webhook")
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(errors.Wrap(err, "request failed"))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return fail(errors.Wrap(err, "reading response"))
	}

	resp.StatusCode = httpResp.StatusCode
	resp.Body = string(body)
	resp.Duration = time.Since(start)
	if resp.StatusCode >= 400 {
		resp.Error = errors.Newf("webhook returned status %d", resp.StatusCode)
	}
	return resp
}

// ShouldFire reports whether a webhook with the given trigger fires for report.
func ShouldFire(trigger config.WebhookTrigger, report *analyzer.Report) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return report.HasSpills()
	}
}

// Dispatch sends report to every hook whose trigger fires. Failures are
// logged and counted, never returned.
func (c *Client) Dispatch(ctx context.Context, hooks []config.WebhookConfig, report *analyzer.Report) (sent, failed int) {
	for _, wh := range hooks {
		if !ShouldFire(wh.Trigger, report) {
			continue
		}

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		resp := c.Send(ctx, report, SendOptions{URL: wh.URL, Token: wh.Token, Timeout: wh.Timeout})
		if resp.Success() {
			sent++
			level.Info(c.logger).Log("msg", "webhook sent", "webhook", name, "status", resp.StatusCode, "duration", resp.Duration)
			continue
		}
		failed++
		level.Warn(c.logger).Log("msg", "webhook failed", "webhook", name, "status", resp.StatusCode, "err", resp.Error)
	}
	return sent, failed
}
