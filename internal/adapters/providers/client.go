// Package providers holds the HTTP clients for the search, headline and analysis providers.
package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/briefq/briefq/internal/errors"
)

// maxErrorBodyBytes bounds how much of a failed response is kept in the error.
const maxErrorBodyBytes = 512

// maxResponseBytes bounds successful responses.
const maxResponseBytes = 8 << 20

func resolveLogger(l *slog.Logger, component string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", component)
}

func resolveHTTPClient(hc *http.Client) *http.Client {
	if hc != nil {
		return hc
	}
	return &http.Client{}
}

// newLimiter returns a limiter allowing perMinute requests, or nil when perMinute is 0.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// call waits for the limiter, sends req and returns the body of a 2xx response.
// Transport failures and non-2xx responses are reported as processor errors.
func call(ctx context.Context, hc *http.Client, limiter *rate.Limiter, provider string, req *http.Request) ([]byte, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, apperrors.Processor(err, provider+" rate limit wait")
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, apperrors.Processor(err, provider+" request failed")
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if closeErr := resp.Body.Close(); closeErr != nil && readErr == nil {
		readErr = closeErr
	}
	if readErr != nil {
		return nil, apperrors.Processor(fmt.Errorf("read response body: %w", readErr), provider+" request failed")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, apperrors.Processor(
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, maxErrorBodyBytes)),
			fmt.Sprintf("%s returned status %d", provider, resp.StatusCode),
		)
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var errMissingAPIKey = errors.New("api key is not configured")
