package clients

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/biblioteca/internal/adapters/http/middleware"
	"github.com/jsamuelsen/biblioteca/internal/platform/config"
)

func catalogConfig() *Config {
	return &Config{
		ServiceName: "catalog",
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
	}
}

// newTestClient starts a catalog stub answering with statuses in order (the
// last one repeats) and returns a client for it plus the request counter.
func newTestClient(t *testing.T, modify func(*Config), statuses ...int) (*Client, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(calls.Add(1))
		w.WriteHeader(statuses[min(n, len(statuses))-1])
	}))
	t.Cleanup(server.Close)

	cfg := catalogConfig()
	cfg.BaseURL = server.URL

	if modify != nil {
		modify(cfg)
	}

	client, err := New(cfg)
	require.NoError(t, err)

	return client, &calls
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()
	require.NoError(t, resp.Body.Close())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "config is required")

	cfg := catalogConfig()
	cfg.ServiceName = ""

	_, err = New(cfg)
	require.ErrorContains(t, err, "service name is required")
}

func TestNew_Defaults(t *testing.T) {
	cfg := catalogConfig()
	cfg.BaseURL = "https://openlibrary.org/"
	cfg.Timeout = 0
	cfg.Retry.MaxAttempts = 0

	client, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, "https://openlibrary.org", client.baseURL)
	assert.Equal(t, defaultTimeout, client.http.Timeout)
	assert.Equal(t, 1, client.retry.MaxAttempts)
	assert.Equal(t, defaultUserAgent, client.userAgent)
}

func TestNew_TransportSettings(t *testing.T) {
	cfg := catalogConfig()
	cfg.Transport = config.TransportConfig{MaxIdleConns: 7, MaxIdleConnsPerHost: 3, IdleConnTimeout: time.Minute}

	client, err := New(cfg)
	require.NoError(t, err)

	transport, ok := client.http.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 7, transport.MaxIdleConns)
	assert.Equal(t, 3, transport.MaxIdleConnsPerHost)
	assert.Equal(t, time.Minute, transport.IdleConnTimeout)
}

func TestClient_SendsHeaders(t *testing.T) {
	var got http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := catalogConfig()
	cfg.BaseURL = server.URL
	cfg.UserAgent = "biblioteca/1.2 (reader@example.com)"

	client, err := New(cfg)
	require.NoError(t, err)

	ctx := middleware.ContextWithRequestID(context.Background(), "req-123")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-456")

	resp, err := client.Get(ctx, "/books/OL1M")
	require.NoError(t, err)
	closeBody(t, resp)

	assert.Equal(t, "req-123", got.Get(middleware.HeaderRequestID))
	assert.Equal(t, "corr-456", got.Get(middleware.HeaderCorrelationID))
	assert.Equal(t, "biblioteca/1.2 (reader@example.com)", got.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Get("Accept"))
}

func TestClient_RetryPolicy(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int
		wantStatus int
		wantCalls  int32
		wantErr    error
	}{
		{name: "recovers after server errors", statuses: []int{500, 502, 200}, wantStatus: http.StatusOK, wantCalls: 3},
		{name: "retries rate limiting", statuses: []int{429, 200}, wantStatus: http.StatusOK, wantCalls: 2},
		{name: "client errors are final", statuses: []int{404}, wantStatus: http.StatusNotFound, wantCalls: 1},
		{name: "gives up after max attempts", statuses: []int{503}, wantCalls: 3, wantErr: ErrMaxRetriesExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newTestClient(t, nil, tt.statuses...)

			resp, err := client.Get(context.Background(), "/books/OL1M")

			assert.Equal(t, tt.wantCalls, calls.Load())

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)

				return
			}

			require.NoError(t, err)
			closeBody(t, resp)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestClient_CircuitBreakerOpensAndShortCircuits(t *testing.T) {
	client, calls := newTestClient(t, func(cfg *Config) {
		cfg.Retry.MaxAttempts = 1
		cfg.Circuit.MaxFailures = 2
	}, http.StatusServiceUnavailable)

	for range 2 {
		_, err := client.Get(context.Background(), "/books/OL1M")
		require.ErrorIs(t, err, ErrMaxRetriesExceeded)
	}

	require.Equal(t, StateOpen, client.CircuitState())

	_, err := client.Get(context.Background(), "/books/OL1M")
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load(), "open circuit must not reach the server")
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	client, _ := newTestClient(t, func(cfg *Config) {
		cfg.Circuit.MaxFailures = 1
	}, http.StatusNotFound)

	for range 3 {
		resp, err := client.Get(context.Background(), "/books/missing")
		require.NoError(t, err)
		closeBody(t, resp)
	}

	assert.Equal(t, StateClosed, client.CircuitState())
}

func TestClient_CancelledDuringBackoff(t *testing.T) {
	client, calls := newTestClient(t, func(cfg *Config) {
		cfg.Retry.InitialInterval = time.Second
		cfg.Retry.MaxInterval = time.Second
	}, http.StatusInternalServerError)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, "/books/OL1M")

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_AttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	cfg := catalogConfig()
	cfg.BaseURL = server.URL
	cfg.Timeout = 50 * time.Millisecond
	cfg.Retry.MaxAttempts = 1

	client, err := New(cfg)
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/books/OL1M")
	require.Error(t, err)
}

func TestClient_URL(t *testing.T) {
	cfg := catalogConfig()
	cfg.BaseURL = "https://openlibrary.org/"

	client, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, "https://openlibrary.org/books/OL1M", client.url("/books/OL1M"))
	assert.Equal(t, "https://openlibrary.org/books/OL1M", client.url("books/OL1M"))
}

func TestClient_Backoff(t *testing.T) {
	cfg := catalogConfig()
	cfg.Retry = config.RetryConfig{
		MaxAttempts:     5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.25,
	}

	client, err := New(cfg)
	require.NoError(t, err)

	for attempt, want := range map[int]time.Duration{
		1:  100 * time.Millisecond,
		2:  200 * time.Millisecond,
		3:  400 * time.Millisecond,
		10: time.Second,
	} {
		assert.InDelta(t, want, client.backoff(attempt), float64(want)/4, "attempt %d", attempt)
	}

	client.retry.JitterFactor = 0
	assert.Equal(t, 200*time.Millisecond, client.backoff(2))
}

func TestRetryAfter(t *testing.T) {
	tests := map[string]time.Duration{
		"":                              0,
		"soon":                          0,
		"-3":                            0,
		"2":                             2 * time.Second,
		" 90 ":                          5 * time.Second,
		"Wed, 21 Oct 2015 07:28:00 GMT": 0,
	}

	for header, want := range tests {
		assert.Equal(t, want, retryAfter(header, 5*time.Second), "header %q", header)
	}
}

type testNetError struct{ timeout bool }

func (e testNetError) Error() string   { return "test net error" }
func (e testNetError) Timeout() bool   { return e.timeout }
func (e testNetError) Temporary() bool { return true }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, false},
		{"context deadline exceeded", context.DeadlineExceeded, false},
		{"net timeout", testNetError{timeout: true}, true},
		{"net error without timeout", testNetError{timeout: false}, false},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableError(tt.err))
		})
	}
}
