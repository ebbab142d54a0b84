package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultRequestTimeout = 300 * time.Second

// Payload is a fully shaped request body for one task. It is independent of
// the model it will be sent to; the model is addressed by URL path.
type Payload struct {
	ContentType string
	Body        []byte
}

// Outcome captures a successful upstream exchange: the status code, the
// normalized media type, and the raw body bytes.
type Outcome struct {
	Status      int
	ContentType string
	Body        []byte
}

// JSON reports whether the response body is a JSON document.
func (o *Outcome) JSON() bool {
	return o != nil && strings.HasSuffix(o.ContentType, "json")
}

// StatusError reports a non-2xx upstream response. RetryAfter is populated
// from the Retry-After header when the provider supplied one.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Config captures the runtime settings required to reach the provider.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Client issues single authenticated calls to the provider. It is safe for
// concurrent use; all calls share one pooled HTTP transport.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an upstream client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		// Timeouts are enforced per call through context deadlines so a
		// caller override can shorten or extend individual requests.
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{}
	}
	return client
}

// DefaultTimeout returns the configured per-call timeout.
func (c *Client) DefaultTimeout() time.Duration {
	if c != nil && c.cfg.TimeoutSeconds > 0 {
		return time.Duration(c.cfg.TimeoutSeconds) * time.Second
	}
	return defaultRequestTimeout
}

// Invoke issues exactly one call for the given model and payload. The
// timeout (falling back to the configured default) is enforced by cancelling
// the in-flight request; an expired deadline surfaces as
// context.DeadlineExceeded rather than a generic connection error. Invoke
// never retries.
func (c *Client) Invoke(ctx context.Context, model string, payload Payload, timeout time.Duration) (*Outcome, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("upstream invoke: model required")
	}
	if c.cfg.APIKey == "" {
		return nil, errors.New("upstream invoke: api key required")
	}
	if timeout <= 0 {
		timeout = c.DefaultTimeout()
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.cfg.BaseURL + "/models/" + model
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint, bytes.NewReader(payload.Body))
	if err != nil {
		return nil, fmt.Errorf("upstream invoke: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if payload.ContentType != "" {
		req.Header.Set("Content-Type", payload.ContentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Distinguish deadline expiry from connection-level failures so the
		// caller sees a timeout outcome, not a conflated transport error.
		if callCtx.Err() != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("upstream invoke: %s: %w", model, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("upstream invoke: %s: %w", model, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if callCtx.Err() != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("upstream invoke: %s: read body: %w", model, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("upstream invoke: %s: read body: %w", model, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := ParseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}

	return &Outcome{
		Status:      resp.StatusCode,
		ContentType: mediaType(resp.Header.Get("Content-Type")),
		Body:        body,
	}, nil
}

func mediaType(header string) string {
	if header == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(header))
	}
	return parsed
}

// ParseRetryAfter interprets a Retry-After header as either delay seconds or
// an HTTP date.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
