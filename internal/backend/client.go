// Package backend talks to the verification and dialogue backend.
//
// Each call performs exactly one POST. Nothing is retried here; throttling
// only delays a request. Every failure surfaces as a typed failure carrying
// a Cause so callers can tell an unreachable backend from a bad payload.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/verdict/internal/logging"
	"github.com/ppiankov/verdict/internal/metrics"
	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/util"
	"github.com/ppiankov/verdict/internal/worker"
)

// Option configures a client
type Option func(*exchange)

// WithLimiter throttles requests through l
func WithLimiter(l *worker.Limiter) Option {
	return func(e *exchange) { e.limiter = l }
}

// WithMetrics records request outcomes on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *exchange) { e.metrics = m }
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(e *exchange) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithHTTPClient replaces the HTTP client (tests, custom transports)
func WithHTTPClient(c *http.Client) Option {
	return func(e *exchange) {
		if c != nil {
			e.httpClient = c
		}
	}
}

// exchange performs one JSON POST against a single endpoint
type exchange struct {
	op         string
	endpoint   string
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *worker.Limiter
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func newExchange(op string, cfg model.BackendConfig, path string, timeout time.Duration, opts []Option) *exchange {
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = model.DefaultConfig().Backend.MaxBodyBytes
	}

	e := &exchange{
		op:       op,
		endpoint: joinURL(cfg.BaseURL, path),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
		logger:    logging.Discard(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// post sends payload and returns the 2xx response body
func (e *exchange) post(ctx context.Context, payload any) ([]byte, int, *exchangeError) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, &exchangeError{cause: CauseMalformed, err: fmt.Errorf("encode request: %w", err)}
	}

	if err := e.limiter.Wait(ctx, e.endpoint); err != nil {
		return nil, 0, &exchangeError{cause: CauseTransport, err: fmt.Errorf("rate limit: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, 0, &exchangeError{cause: CauseTransport, err: fmt.Errorf("create request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	e.logger.Debug("backend request", "op", e.op, "endpoint", e.endpoint, "request_id", requestID)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, 0, &exchangeError{cause: CauseTransport, err: fmt.Errorf("post: %w", err)}
	}
	defer resp.Body.Close()

	// Read one byte past the limit to detect oversized bodies
	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return nil, resp.StatusCode, &exchangeError{cause: CauseTransport, status: resp.StatusCode, err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, &exchangeError{
			cause:  CauseStatus,
			status: resp.StatusCode,
			err:    fmt.Errorf("unexpected status: %s%s", resp.Status, detail(body)),
		}
	}

	if int64(len(body)) > e.maxBytes {
		return nil, resp.StatusCode, &exchangeError{
			cause:  CauseMalformed,
			status: resp.StatusCode,
			err:    fmt.Errorf("response exceeds %d bytes", e.maxBytes),
		}
	}

	return body, resp.StatusCode, nil
}

// finish records the outcome of one call
func (e *exchange) finish(start time.Time, failure *exchangeError) {
	elapsed := time.Since(start)
	if failure == nil {
		e.metrics.Observe(e.op, metrics.OutcomeSuccess, elapsed)
		e.logger.Debug("backend response", "op", e.op, "elapsed", elapsed)
		return
	}

	e.metrics.Observe(e.op, failure.cause.outcome(), elapsed)

	level := slog.LevelWarn
	if errors.Is(failure.err, context.Canceled) {
		level = slog.LevelDebug
	}
	e.logger.Log(context.Background(), level, "backend call failed",
		"op", e.op, "cause", failure.cause.String(), "status", failure.status, "elapsed", elapsed, "error", failure.err)
}

// detail extracts a short, printable hint from an error body
func detail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return ": " + payload.Detail
		}
		if payload.Error != "" {
			return ": " + payload.Error
		}
	}
	return ""
}

func joinURL(base, path string) string {
	if base == "" {
		base = model.DefaultConfig().Backend.BaseURL
	}
	if path == "" {
		return strings.TrimRight(base, "/")
	}
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
