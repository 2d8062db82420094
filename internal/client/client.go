// Package client talks to the shipment HTTP API. Every call is encoded by the
// shipment package, so invalid calls fail before any request is sent.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/biotrack/internal/auth"
	"github.com/erazemk/biotrack/internal/errs"
	"github.com/erazemk/biotrack/internal/metrics"
	"github.com/erazemk/biotrack/internal/resilience"
	"github.com/erazemk/biotrack/internal/shipment"
)

// Config holds the API location and credentials.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is a shipment API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *resilience.Breaker
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client; its timeout is left as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records every request.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithBreaker stops calling the server after repeated transport or 5xx failures.
// Conflicts and other 4xx replies never trip it.
func WithBreaker(config *resilience.Config) Option {
	return func(c *Client) {
		c.breaker = resilience.New(config, tripsBreaker, c.logger, c.metrics)
	}
}

func tripsBreaker(err error) bool {
	e, ok := errs.As(err)
	if !ok {
		return true
	}
	return e.Code == errs.CodeTransport || (e.Code == errs.CodeServer && e.Status >= http.StatusInternalServerError)
}

// New creates a client. Options are applied in order, so WithLogger and
// WithMetrics should precede WithBreaker.
func New(config Config, opts ...Option) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// do sends req and decodes the data of the reply into result. what names the
// expected payload in protocol errors.
func (c *Client) do(ctx context.Context, req shipment.Request, what string, result any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if e, ok := errs.As(err); ok {
			outcome = strings.ToLower(e.Code)
		} else if err != nil {
			outcome = "error"
		}
		c.metrics.ObserveRequest(req.Op, outcome, time.Since(start))
	}()

	if c.token != "" {
		if err := auth.CheckExpiry(c.token, c.now()); err != nil {
			return errs.Unusable(req.Op, err)
		}
	}

	var body []byte
	if c.breaker == nil {
		body, err = c.roundTrip(ctx, req)
	} else {
		err = c.breaker.Do(func() error {
			var rtErr error
			body, rtErr = c.roundTrip(ctx, req)
			return rtErr
		})
		if errors.Is(err, resilience.ErrCircuitOpen) {
			err = errs.Transport(req.Op, err)
		}
	}
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &errs.Error{Code: errs.CodeProtocol, Op: req.Op, Message: "malformed reply", Err: err}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return errs.Protocol(req.Op, "expected a "+what+" object")
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return &errs.Error{Code: errs.CodeProtocol, Op: req.Op, Message: "expected a " + what + " object", Err: err}
	}
	return nil
}

// roundTrip performs the request and returns the body of a successful reply.
func (c *Client) roundTrip(ctx context.Context, req shipment.Request) ([]byte, error) {
	var reqBody io.Reader
	if req.Body != nil {
		jsonBody, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &errs.Error{Code: errs.CodeCaller, Op: req.Op, Message: "failed to marshal request body", Err: err}
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	url := c.baseURL + req.Path
	if len(req.Query) > 0 {
		url += "?" + req.Query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, reqBody)
	if err != nil {
		return nil, errs.Transport(req.Op, fmt.Errorf("failed to create request: %w", err))
	}

	requestID := uuid.NewString()
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errs.Transport(req.Op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Transport(req.Op, fmt.Errorf("failed to read response body: %w", err))
	}

	c.logger.Debug("api request",
		"op", req.Op,
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
	)

	if resp.StatusCode >= 400 {
		var env envelope
		_ = json.Unmarshal(respBody, &env)
		return nil, errs.FromStatus(req.Op, resp.StatusCode, env.Message)
	}
	return respBody, nil
}
