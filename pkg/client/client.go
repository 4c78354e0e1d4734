// Package client provides the catalog REST API client with timeouts,
// JSON/text negotiation, retries and a structured error taxonomy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public catalog API.
const DefaultBaseURL = "https://your-energy.b.goit.study/api"

// DefaultTimeout bounds every request unless overridden.
const DefaultTimeout = 10 * time.Second

// Client is the catalog API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://your-energy.b.goit.study/api".
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout is the default per-request wall-clock bound.
	Timeout time.Duration

	// Retry applies to GET requests only.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Timeout:   DefaultTimeout,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		// Deadlines come from per-request contexts.
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		config:     cfg,
		logger:     log.With().Str("component", "catalog-client").Logger(),
	}, nil
}

// Params are query parameters. Nil values, nil pointers and empty strings
// are omitted from the URL.
type Params map[string]any

// RequestOptions tune a single request.
type RequestOptions struct {
	Params Params
	// Body is JSON-encoded when non-nil.
	Body any
	// Timeout overrides the client timeout when positive.
	Timeout time.Duration
}

// Response is a successful (2xx) API response.
type Response struct {
	StatusCode  int
	ContentType string
	Header      http.Header
	// Body holds the JSON document. It is nil for 204, for empty bodies and
	// for JSON that failed to parse.
	Body json.RawMessage
	// Text holds non-JSON bodies.
	Text string
}

// Decode unmarshals the JSON body into v. A nil body leaves v untouched.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// BuildURL joins path to the base URL and appends the non-empty params in
// sorted key order.
func (c *Client) BuildURL(path string, params Params) (string, error) {
	u, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}

	values := url.Values{}
	for key, value := range params {
		if s, ok := formatParam(value); ok {
			values.Set(key, s)
		}
	}
	u.RawQuery = values.Encode()

	return u.String(), nil
}

// formatParam renders a query value, reporting false for values that must be omitted.
func formatParam(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case int:
		return strconv.Itoa(v), true
	case fmt.Stringer:
		s := v.String()
		return s, s != ""
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		return formatParam(rv.Elem().Interface())
	}

	s := fmt.Sprint(value)
	return s, s != ""
}

// FetchJSON performs a request and negotiates the response body.
// ctx is the cancellation handle: cancelling it yields ErrCancelled.
// Exceeding the timeout yields ErrTimeout. Non-2xx responses and transport
// failures yield *HTTPError.
func (c *Client) FetchJSON(ctx context.Context, method, path string, opts RequestOptions) (*Response, error) {
	reqURL, err := c.BuildURL(path, opts.Params)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if opts.Body != nil {
		payload, err = json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.config.Timeout
	}

	requestID := uuid.NewString()
	logger := c.logger.With().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Logger()

	metricPath := pathOf(reqURL)
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(metricPath).Observe(time.Since(startTime).Seconds())
	}()

	var resp *Response
	attempt := func() error {
		var reqErr error
		resp, reqErr = c.do(ctx, method, reqURL, payload, timeout, requestID, logger)
		return reqErr
	}

	if method == http.MethodGet {
		err = retryWithBackoff(ctx, c.config.Retry, logger, attempt)
	} else {
		err = attempt()
	}
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// do executes a single attempt.
func (c *Client) do(ctx context.Context, method, reqURL string, payload []byte, timeout time.Duration, requestID string, logger zerolog.Logger) (*Response, error) {
	path := pathOf(reqURL)

	reqCtx, cancel := context.WithTimeoutCause(ctx, timeout, ErrTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debug().Str("url", reqURL).Msg("Executing catalog request")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, reqCtx, path, timeout, err, logger)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(ctx, reqCtx, path, timeout, err, logger)
	}

	resp := parseResponse(httpResp, raw)
	requestsTotal.WithLabelValues(path, strconv.Itoa(httpResp.StatusCode)).Inc()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		errClass := classifyStatus(httpResp.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()

		logger.Warn().
			Int("status", httpResp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Catalog request error")

		return nil, &HTTPError{
			StatusCode: httpResp.StatusCode,
			ErrorClass: errClass,
			Message:    errorMessage(resp),
			Body:       resp.Body,
		}
	}

	return resp, nil
}

// transportError separates caller cancellation and timeouts from genuine
// network failures.
func (c *Client) transportError(ctx, reqCtx context.Context, path string, timeout time.Duration, err error, logger zerolog.Logger) error {
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			errorsTotal.WithLabelValues(string(ErrorClassTimeout)).Inc()
			return fmt.Errorf("%w: %w", ErrTimeout, context.Cause(ctx))
		}
		errorsTotal.WithLabelValues(string(ErrorClassCancelled)).Inc()
		logger.Debug().Msg("Catalog request cancelled")
		return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
	}

	if errors.Is(context.Cause(reqCtx), ErrTimeout) {
		errorsTotal.WithLabelValues(string(ErrorClassTimeout)).Inc()
		requestsTotal.WithLabelValues(path, "timeout").Inc()
		logger.Warn().Dur("timeout", timeout).Msg("Catalog request timed out")
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}

	errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
	requestsTotal.WithLabelValues(path, "network_error").Inc()
	logger.Error().Err(err).Msg("Catalog request failed")

	return &HTTPError{
		ErrorClass: ErrorClassNetwork,
		Message:    "network error",
		Err:        err,
	}
}

// parseResponse negotiates JSON versus text. Invalid JSON degrades to a nil body.
func parseResponse(httpResp *http.Response, raw []byte) *Response {
	resp := &Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Header:      httpResp.Header.Clone(),
	}

	if httpResp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return resp
	}

	if strings.Contains(resp.ContentType, "application/json") {
		if json.Valid(raw) {
			resp.Body = json.RawMessage(raw)
		}
		return resp
	}

	resp.Text = string(raw)
	return resp
}

// errorMessage picks the server's message, the text body, or a generic fallback.
func errorMessage(resp *Response) string {
	if len(resp.Body) > 0 {
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(resp.Body, &payload); err == nil && payload.Message != "" {
			return payload.Message
		}
	}
	if strings.TrimSpace(resp.Text) != "" {
		return resp.Text
	}
	return "Request failed"
}

// pathOf returns the URL path with exercise ids collapsed, for metric labels.
func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	segments := strings.Split(u.Path, "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "exercises" && segments[i+1] != "" {
			segments[i+1] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
