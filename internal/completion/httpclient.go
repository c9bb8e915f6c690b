package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dusk-indust/agentmux/internal/metrics"
	"github.com/dusk-indust/agentmux/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

const (
	// DefaultEndpoint is the chat-completions URL used when none is configured.
	DefaultEndpoint = "https://adp.woa.com/v1/chat/completions"

	// DefaultCredentialHeader carries the access credential.
	DefaultCredentialHeader = "X-ADP-App-Key"

	// DefaultTimeout bounds a single round trip.
	DefaultTimeout = 60 * time.Second

	// DefaultTemperature is sent with general (unscoped) completions.
	DefaultTemperature = 0.3

	// maxErrorBody caps how much of a failed response body is kept.
	maxErrorBody = 512
)

// HTTPClient implements Client over a JSON chat-completions endpoint.
type HTTPClient struct {
	http             *http.Client
	endpoint         string
	credentialHeader string
	temperature      float64
	logger           *zap.Logger
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// WithEndpoint sets the completion URL.
func WithEndpoint(url string) ClientOption {
	return func(c *HTTPClient) {
		c.endpoint = url
	}
}

// WithCredentialHeader sets the header name that carries the credential.
func WithCredentialHeader(name string) ClientOption {
	return func(c *HTTPClient) {
		c.credentialHeader = name
	}
}

// WithTemperature sets the sampling temperature for general completions.
func WithTemperature(t float64) ClientOption {
	return func(c *HTTPClient) {
		c.temperature = t
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.logger = l
	}
}

// NewHTTPClient creates a completion client with defaults matching the
// production backend.
func NewHTTPClient(opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		http: &http.Client{
			Timeout: DefaultTimeout,
		},
		endpoint:         DefaultEndpoint,
		credentialHeader: DefaultCredentialHeader,
		temperature:      DefaultTemperature,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends req as a single non-streaming chat completion.
func (c *HTTPClient) Complete(ctx context.Context, req Request) (string, error) {
	kind := "general"
	if req.Scoped() {
		kind = "scoped"
	}

	ctx, span := tracing.StartSpan(ctx, "completion.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("completion.kind", kind),
		attribute.String("completion.target", req.Target),
		attribute.Int("completion.prompt_len", len(req.Prompt)),
	)

	start := time.Now()
	text, status, err := c.do(ctx, req)
	metrics.CompletionLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.CompletionRequests.WithLabelValues(kind, status).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("completion failed",
			zap.String("kind", kind),
			zap.String("target", req.Target),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return "", err
	}
	return text, nil
}

// do performs the HTTP round trip. status is a short label for metrics.
func (c *HTTPClient) do(ctx context.Context, req Request) (text string, status string, err error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return "", "marshal_error", fmt.Errorf("completion: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", "request_error", fmt.Errorf("completion: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(c.credentialHeader, req.Credential)
	tracing.InjectTraceparent(ctx, httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return "", "timeout", fmt.Errorf("completion: request timed out: %w", err)
		}
		return "", "transport_error", fmt.Errorf("completion: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "read_error", fmt.Errorf("completion: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Sprintf("http_%d", resp.StatusCode), &StatusError{
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(respBody)), maxErrorBody),
		}
	}

	var chat ChatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return "", "decode_error", fmt.Errorf("completion: decode response: %w", err)
	}
	if chat.Error != nil && chat.Error.Message != "" {
		return "", "backend_error", fmt.Errorf("completion: backend error: %s", chat.Error.Message)
	}

	content := chat.Content()
	if content == "" {
		return "", "empty", ErrEmptyCompletion
	}
	return content, "ok", nil
}

// buildRequest converts a Request to the wire body. Temperature is only sent
// for general completions; scoped responders use their own settings.
func (c *HTTPClient) buildRequest(req Request) ChatRequest {
	chat := ChatRequest{
		AppID:    req.Target,
		Messages: []ChatMessage{{Role: RoleUser, Content: req.Prompt}},
		Stream:   false,
	}
	if !req.Scoped() {
		t := c.temperature
		chat.Temperature = &t
	}
	return chat
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
