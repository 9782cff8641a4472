package clients

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-gallery/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-gallery/internal/platform/config"
)

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		ServiceName: "airtable",
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
			Multiplier:      2,
			JitterFactor:    0.25,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Minute,
			HalfOpenLimit: 1,
		},
		Transport: config.TransportConfig{
			MaxIdleConns:        2,
			MaxIdleConnsPerHost: 1,
			IdleConnTimeout:     time.Second,
		},
	}
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()
	if err := resp.Body.Close(); err != nil {
		t.Errorf("failed to close response body: %v", err)
	}
}

// statusSequence answers with codes in order, repeating the last one.
func statusSequence(calls *int32, codes ...int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		n := int(atomic.AddInt32(calls, 1))
		w.WriteHeader(codes[min(n, len(codes))-1])
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "config is required")

	cfg := testConfig("http://example.test")
	cfg.ServiceName = ""
	_, err = New(cfg)
	require.ErrorContains(t, err, "service name is required")
}

func TestNew_Defaults(t *testing.T) {
	cfg := testConfig("https://api.airtable.com/")
	cfg.Timeout = 0
	cfg.Retry.MaxAttempts = 0

	c, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, "https://api.airtable.com", c.baseURL)
	assert.Equal(t, defaultTimeout, c.http.Timeout)
	assert.Equal(t, 1, c.cfg.Retry.MaxAttempts)
	assert.Equal(t, defaultUserAgent, c.cfg.UserAgent)
	assert.Zero(t, cfg.Timeout, "caller config is not modified")
}

func TestClient_BuildURL(t *testing.T) {
	c, err := New(testConfig("https://api.airtable.com"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.airtable.com/v0/app/tbl", c.buildURL("v0/app/tbl", nil))
	assert.Equal(t,
		"https://api.airtable.com/v0/app/tbl?offset=itr%2F1&pageSize=100",
		c.buildURL("/v0/app/tbl", url.Values{"pageSize": {"100"}, "offset": {"itr/1"}}),
	)
}

func TestClient_Headers(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.AuthFunc = func(r *http.Request) { r.Header.Set("Authorization", "Bearer pat-test") }
	c, err := New(cfg)
	require.NoError(t, err)

	ctx := middleware.ContextWithRequestID(context.Background(), "req-1")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-1")

	resp, err := c.Get(ctx, "/v0/base/table", nil)
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, "req-1", got.Get(middleware.HeaderRequestID))
	assert.Equal(t, "corr-1", got.Get(middleware.HeaderCorrelationID))
	assert.Equal(t, "Bearer pat-test", got.Get("Authorization"))
	assert.Equal(t, defaultUserAgent, got.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Get("Accept"))
}

func TestClient_RetriesRetryableStatuses(t *testing.T) {
	tests := []struct {
		name  string
		codes []int
		want  int
		calls int32
	}{
		{"server error then ok", []int{500, 502, 200}, 200, 3},
		{"rate limited then ok", []int{429, 200}, 200, 2},
		{"client error not retried", []int{404, 200}, 404, 1},
		{"last status returned when exhausted", []int{503}, 503, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(statusSequence(&calls, tt.codes...))
			defer srv.Close()

			c, err := New(testConfig(srv.URL))
			require.NoError(t, err)

			resp, err := c.Get(context.Background(), "/", nil)
			require.NoError(t, err)
			defer closeBody(t, resp)

			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, tt.calls, atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_SingleAttemptByDefault(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(statusSequence(&calls, 500, 200))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retry.MaxAttempts = config.DefaultClientRetryMaxAttempts

	c, err := New(cfg)
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_TransportErrorExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := New(testConfig(addr))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/", nil)
	require.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestClient_AuthReappliedOnEveryAttempt(t *testing.T) {
	var calls, auths int32
	srv := httptest.NewServer(statusSequence(&calls, 503, 200))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.AuthFunc = func(r *http.Request) {
		atomic.AddInt32(&auths, 1)
		r.Header.Set("Authorization", "Bearer pat-test")
	}
	c, err := New(cfg)
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, int32(2), atomic.LoadInt32(&auths))
}

func TestClient_CircuitOpensOnFailingStatuses(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(statusSequence(&calls, 503))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retry.MaxAttempts = 1
	cfg.Circuit.MaxFailures = 2
	c, err := New(cfg)
	require.NoError(t, err)

	for range 2 {
		resp, err := c.Get(context.Background(), "/", nil)
		require.NoError(t, err)
		closeBody(t, resp)
	}
	assert.Equal(t, StateOpen, c.CircuitState())

	_, err = c.Get(context.Background(), "/", nil)
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "open circuit does not reach the server")
}

func TestClient_ContextCancelledDuringBackoff(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(statusSequence(&calls, 500))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retry.InitialInterval = time.Second
	cfg.Retry.MaxInterval = time.Second
	c, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Get(ctx, "/", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_AttemptTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 30 * time.Millisecond
	cfg.Retry.MaxAttempts = 1
	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/", nil)
	require.Error(t, err)
}

func TestClient_Backoff(t *testing.T) {
	cfg := testConfig("http://example.test")
	cfg.Retry.InitialInterval = 100 * time.Millisecond
	cfg.Retry.MaxInterval = time.Second
	cfg.Retry.Multiplier = 2
	cfg.Retry.JitterFactor = 0.25
	c, err := New(cfg)
	require.NoError(t, err)

	assert.InDelta(t, 100*time.Millisecond, c.backoff(0), float64(25*time.Millisecond))
	assert.InDelta(t, 200*time.Millisecond, c.backoff(1), float64(50*time.Millisecond))
	assert.InDelta(t, 400*time.Millisecond, c.backoff(2), float64(100*time.Millisecond))
	assert.LessOrEqual(t, c.backoff(10), time.Second+time.Second/4)

	c.cfg.Retry.JitterFactor = 0
	assert.Equal(t, 800*time.Millisecond, c.backoff(3))
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
		ok     bool
	}{
		{"1", time.Second, true},
		{" 0 ", 0, true},
		{"30", 5 * time.Second, true},
		{"", 0, false},
		{"-1", 0, false},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := retryAfter(tt.header, 5*time.Second)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRedactQuery(t *testing.T) {
	u, err := url.Parse("https://api.airtable.com/v0/app/tbl?offset=abc&view=Grid")
	require.NoError(t, err)

	assert.Equal(t, "https://api.airtable.com/v0/app/tbl", redactQuery(u))
	assert.Equal(t, "offset=abc&view=Grid", u.RawQuery)
}

type testNetError struct{ timeout bool }

func (e testNetError) Error() string   { return "test net error" }
func (e testNetError) Timeout() bool   { return e.timeout }
func (e testNetError) Temporary() bool { return true }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"net timeout", testNetError{timeout: true}, true},
		{"net non-timeout", testNetError{}, false},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}
