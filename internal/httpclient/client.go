// Package httpclient provides the HTTP transport used by every network-facing
// validation stage: plain GET/POST with per-call timeouts, context
// cancellation, and normalized error codes the scorer can discriminate on.
package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Response is the normalized result of a successful round trip. Any HTTP
// status counts as a response; status interpretation belongs to the caller.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
	Latency time.Duration
}

// maxBodyBytes caps response bodies so a misbehaving endpoint cannot balloon
// memory during a probe.
const maxBodyBytes = 1 << 20

// Client wraps http.Client with normalized error reporting.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	log        logrus.FieldLogger
}

// Option configures the Client.
type Option func(*Client)

// WithTimeout sets the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHeader adds a default header applied to all requests.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithTransport replaces the underlying RoundTripper. Used by tests and by
// callers that need custom TLS settings.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// New creates a new Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		headers: make(map[string]string),
		log:     NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NopLogger returns a logger that discards everything. Components take a
// logger as a value so two concurrent validations never share log context.
func NopLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Get performs a GET request. Headers supplement the client defaults.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, *Error) {
	return c.do(ctx, http.MethodGet, url, headers, nil)
}

// Post performs a POST request with the given body.
func (c *Client) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, *Error) {
	return c.do(ctx, http.MethodPost, url, headers, body)
}

func (c *Client) do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*Response, *Error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, &Error{Code: CodeNetworkError, Message: "failed to create request: " + err.Error()}
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)

	if err != nil {
		cerr := Classify(err)
		c.log.WithFields(logrus.Fields{
			"method": method,
			"url":    url,
			"code":   cerr.Code,
		}).Debug("request failed")
		return nil, cerr
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, Classify(err)
	}

	c.log.WithFields(logrus.Fields{
		"method":  method,
		"url":     url,
		"status":  resp.StatusCode,
		"latency": latency.Milliseconds(),
	}).Debug("request completed")

	return &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    data,
		Latency: latency,
	}, nil
}
