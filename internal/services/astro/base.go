package astro

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	svcmetrics "Horacle/internal/service/metrics"
	xhttp "Horacle/pkg/http"
)

// HTTPServiceBase centralizes JSON POSTs to the ephemeris service behind a
// circuit breaker.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
	breaker *gobreaker.CircuitBreaker
}

// BreakerSettings trips the breaker after Failures consecutive errors and
// probes again after Cooldown.
type BreakerSettings struct {
	Failures uint32
	Cooldown time.Duration
}

// NewHTTPServiceBase builds the client. A zero breaker never trips.
func NewHTTPServiceBase(baseURL string, timeout time.Duration, bs BreakerSettings, copts ...xhttp.ClientOption) *HTTPServiceBase {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	st := gobreaker.Settings{Name: "ephemeris", Timeout: bs.Cooldown}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return bs.Failures > 0 && counts.ConsecutiveFailures >= bs.Failures
	}
	// Client errors say nothing about the service's health.
	st.IsSuccessful = func(err error) bool {
		var se *xhttp.StatusError
		return err == nil || (errors.As(err, &se) && !se.Temporary())
	}
	return &HTTPServiceBase{
		baseURL: baseURL,
		client:  xhttp.NewClient(append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, copts...)...),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// PostJSON posts the given payload to `path` under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("ephemeris http client not initialized")
	}
	start := time.Now()
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.client.Do(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    b.baseURL + path,
			Body:   payload,
		}, dest)
	})
	svcmetrics.EphemerisLatency.WithLabelValues(path).Observe(time.Since(start).Seconds())
	if err != nil {
		svcmetrics.EphemerisErrors.WithLabelValues(path).Inc()
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// PostJSONWithRetry posts JSON with up to `attempts` tries. Client errors and
// an open breaker are not retried.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, path string, payload interface{}, dest interface{}, attempts int) error {
	if attempts <= 1 {
		return b.PostJSON(ctx, path, payload, dest)
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = b.PostJSON(ctx, path, payload, dest)
		if err == nil || !retryable(err) {
			return err
		}
		if i == attempts {
			break
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// State reports the breaker state.
func (b *HTTPServiceBase) State() gobreaker.State { return b.breaker.State() }

func retryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
