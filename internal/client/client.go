// Package client talks to the time-series HTTP API and hands response
// bodies to the decoder.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"tempoiq/config"
	"tempoiq/internal/decoder"
	"tempoiq/internal/logger"
	"tempoiq/internal/metrics"
	"tempoiq/internal/stats"
)

// APIVersion prefixes every request path
const APIVersion = "v1"

// RequestIDHeader carries a per-request id for tracing
const RequestIDHeader = "X-Request-Id"

// ErrMethodNotAllowed is returned for methods other than GET and POST
var ErrMethodNotAllowed = errors.New("only GET and POST are allowed")

// APIError is returned for non-2xx responses. The body is kept verbatim
// and never decoded.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// IsNotFound reports whether err is an APIError with status 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is safe for concurrent use
type Client struct {
	cfg     config.APIConfig
	http    *resty.Client
	decoder *decoder.Decoder
	logger  *logger.Logger
	metrics *metrics.Metrics
	stats   *stats.StatsCollector
}

// Option configures a Client
type Option func(*Client)

// WithMetrics records prometheus metrics for every call
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithStats counts calls in a stats collector
func WithStats(s *stats.StatsCollector) Option {
	return func(c *Client) { c.stats = s }
}

// WithDecoder replaces the default decoder, e.g. one with extra matchers
func WithDecoder(d *decoder.Decoder) Option {
	return func(c *Client) {
		if d != nil {
			c.decoder = d
		}
	}
}

// New creates a client for the configured API endpoint
func New(cfg config.APIConfig, log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Host == "" {
		cfg.Host = config.DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = config.DefaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = config.DefaultTimeout
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetBasicAuth(cfg.Key, cfg.Secret).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "tempoiq-go")
	if cfg.RetryWait > 0 {
		httpClient.SetRetryWaitTime(cfg.RetryWait)
	}

	c := &Client{
		cfg:     cfg,
		http:    httpClient,
		decoder: decoder.New(decoder.WithLogger(log)),
		logger:  log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// request sends one API call and returns the body of a 2xx response.
// GET params go in the query string, POST params in a JSON body.
func (c *Client) request(ctx context.Context, endpoint, method, target string, params map[string]interface{}) ([]byte, error) {
	if method != http.MethodGet && method != http.MethodPost {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotAllowed, method)
	}

	requestID := uuid.NewString()
	req := c.http.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, requestID)

	var fullURL string
	if method == http.MethodGet {
		fullURL = c.BuildFullURL(target, params)
	} else {
		fullURL = c.BuildFullURL(target, nil)
		if params == nil {
			params = map[string]interface{}{}
		}
		req.SetHeader("Content-Type", "application/json").SetBody(params)
	}

	c.logger.Debug("sending request",
		"method", method,
		"url", fullURL,
		"request_id", requestID)

	c.stats.IncRequests()
	start := time.Now()
	resp, err := req.Execute(method, fullURL)
	duration := time.Since(start)

	if err != nil {
		c.metrics.ObserveRequest(endpoint, 0, duration)
		c.stats.IncAPIErrors()
		c.logger.Error("request failed",
			"endpoint", endpoint,
			"request_id", requestID,
			"error", err)
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}

	c.metrics.ObserveRequest(endpoint, resp.StatusCode(), duration)

	if !resp.IsSuccess() {
		c.stats.IncAPIErrors()
		c.logger.Warn("api returned error status",
			"endpoint", endpoint,
			"status", resp.StatusCode(),
			"request_id", requestID)
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	c.logger.Debug("request completed",
		"endpoint", endpoint,
		"status", resp.StatusCode(),
		"duration", duration,
		"request_id", requestID)

	return resp.Body(), nil
}

// decoded records the outcome of turning a response body into n objects
func (c *Client) decoded(mode, kind string, n int, err error) {
	if err != nil {
		c.metrics.IncDecodeErrors(mode)
		c.stats.IncDecodeErrors()
		c.logger.Error("failed to decode response",
			"mode", mode,
			"error", err)
		return
	}
	c.metrics.AddDecoded(kind, n)
	c.stats.IncDecoded()
}

// unmarshal decodes plain typed payloads that need no shape dispatch
func unmarshal(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &decoder.ParseError{Err: err}
	}
	return nil
}
