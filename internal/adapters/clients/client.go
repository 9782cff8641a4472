package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-gallery/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-gallery/internal/platform/config"
	"github.com/jsamuelsen/quote-gallery/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/quote-gallery/internal/adapters/clients"

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "quote-gallery"
)

// Config configures a Client.
type Config struct {
	// BaseURL prefixes every request path, e.g. "https://api.airtable.com".
	BaseURL string

	// ServiceName identifies the downstream in logs, spans and metrics.
	ServiceName string

	// Timeout bounds a single attempt. Retries and backoff come on top.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// AuthFunc, when set, decorates every attempt.
	AuthFunc func(*http.Request)

	UserAgent string
	Logger    *slog.Logger
}

// Client is an instrumented HTTP client for the record source. It retries
// transport failures, 5xx and 429 responses with jittered exponential
// backoff, trips a circuit breaker on repeated failure, and propagates
// request and trace identifiers.
type Client struct {
	http    *http.Client
	baseURL string
	cfg     Config
	logger  *slog.Logger
	cb      *CircuitBreaker

	tracer          trace.Tracer
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// New creates a Client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	c := *cfg
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Retry.MaxAttempts < 1 {
		c.Retry.MaxAttempts = 1
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}

	// Set up logger
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		slog.String("component", "clients.Client"),
		slog.String("downstream", c.ServiceName),
	)

	// Metrics
	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of HTTP client requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requestTotal, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Total number of HTTP client requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	// Initialize circuit breaker, logging state changes
	cb := NewCircuitBreaker(c.Circuit, WithStateListener(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	}))

	// Create HTTP client with timeout
	return &Client{
		http: &http.Client{
			Timeout: c.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        c.Transport.MaxIdleConns,
				MaxIdleConnsPerHost: c.Transport.MaxIdleConnsPerHost,
				IdleConnTimeout:     c.Transport.IdleConnTimeout,
			},
		},
		baseURL:         strings.TrimSuffix(c.BaseURL, "/"),
		cfg:             c,
		logger:          logger,
		cb:              cb,
		tracer:          otel.Tracer(instrumentationName),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// Get issues a GET for path with the given query.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path, query), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return c.Do(ctx, req)
}

// Do executes req. The response of the final attempt is returned whatever
// its status; an error means no response was obtained. Requests with a body
// are only retried when req.GetBody is set.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.cfg.ServiceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	// Check circuit breaker
	if !c.cb.Allow() {
		c.recordMetrics(ctx, req.Method, 0, time.Since(start), "circuit_open")
		logger.Warn("request blocked by circuit breaker")
		return nil, ErrCircuitOpen
	}

	// Create span
	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.cfg.ServiceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", redactQuery(req.URL)),
			attribute.String("peer.service", c.cfg.ServiceName),
		),
	)
	defer span.End()

	// Execute with retry
	resp, attempts, err := c.attempt(ctx, req, logger)
	span.SetAttributes(attribute.Int("http.attempts", attempts))
	duration := time.Since(start)

	if err != nil {
		c.cb.RecordFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.recordMetrics(ctx, req.Method, 0, duration, "error")
		logger.Error("request failed",
			slog.Int("attempts", attempts),
			slog.Duration("duration", duration),
			slog.Any("error", err),
		)
		return nil, err
	}

	// Record result
	if isRetryableStatus(resp.StatusCode) {
		c.cb.RecordFailure()
	} else {
		c.cb.RecordSuccess()
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(resp.StatusCode))
	}
	c.recordMetrics(ctx, req.Method, resp.StatusCode, duration, statusClass(resp.StatusCode))

	logger.Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Int("attempts", attempts),
		slog.Duration("duration", duration),
	)

	return resp, nil
}

// CircuitState returns the state of the client's circuit breaker.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

func (c *Client) attempt(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, int, error) {
	var lastErr error

	for n := 1; ; n++ {
		if n > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, n - 1, fmt.Errorf("rewinding body: %w", err)
			}
			req.Body = body
		}

		// Re-inject headers and auth on every attempt
		r := req.Clone(ctx)
		c.decorate(ctx, r)

		resp, err := c.http.Do(r)
		last := n >= c.cfg.Retry.MaxAttempts

		var wait time.Duration
		switch {
		case err != nil && (!isRetryableError(err) || last):
			if last && isRetryableError(err) {
				return nil, n, fmt.Errorf("%w after %d attempts: %w", ErrMaxRetriesExceeded, n, err)
			}
			return nil, n, err
		case err != nil:
			lastErr = err
			wait = c.backoff(n - 1)
			logger.Debug("retrying after transport error",
				slog.Int("attempt", n),
				slog.Any("error", err),
			)
		case isRetryableStatus(resp.StatusCode) && !last:
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			wait = c.backoff(n - 1)
			if ra, ok := retryAfter(resp.Header.Get("Retry-After"), c.cfg.Retry.MaxInterval); ok {
				wait = ra
			}
			logger.Debug("retrying after status",
				slog.Int("attempt", n),
				slog.Int("status", resp.StatusCode),
				slog.Duration("backoff", wait),
			)
			if closeErr := resp.Body.Close(); closeErr != nil {
				logger.Debug("failed to close response body", slog.Any("error", closeErr))
			}
		default:
			return resp, n, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, n, errors.Join(ctx.Err(), lastErr)
		case <-timer.C:
		}
	}
}

// decorate sets identity, auth and trace headers on a single attempt.
func (c *Client) decorate(ctx context.Context, req *http.Request) {
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}
	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}
	if c.cfg.AuthFunc != nil {
		c.cfg.AuthFunc(req)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

func (c *Client) buildURL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(query) == 0 {
		return c.baseURL + path
	}

	return c.baseURL + path + "?" + query.Encode()
}

// backoff returns the wait before retry number retry (0-based):
// InitialInterval * Multiplier^retry, capped at MaxInterval, with
// symmetric jitter of JitterFactor.
func (c *Client) backoff(retry int) time.Duration {
	r := c.cfg.Retry

	d := float64(r.InitialInterval) * math.Pow(r.Multiplier, float64(retry))
	if d > float64(r.MaxInterval) {
		d = float64(r.MaxInterval)
	}

	d += d * r.JitterFactor * (rand.Float64()*2 - 1) //nolint:gosec // jitter only

	return time.Duration(d)
}

func (c *Client) recordMetrics(ctx context.Context, method string, status int, took time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.cfg.ServiceName),
		attribute.String("result", result),
	}
	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	set := metric.WithAttributes(attrs...)
	c.requestDuration.Record(ctx, took.Seconds(), set)
	c.requestTotal.Add(ctx, 1, set)
}

// retryAfter parses a Retry-After header given in seconds, capped at limit.
func retryAfter(header string, limit time.Duration) (time.Duration, bool) {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return 0, false
	}

	return min(time.Duration(secs)*time.Second, limit), true
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

// redactQuery drops the query string so offsets and filters stay out of
// span attributes.
func redactQuery(u *url.URL) string {
	clean := *u
	clean.RawQuery = ""

	return clean.String()
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
