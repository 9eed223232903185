package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxBodySize = 10 << 20

var _ Transport = (*HTTPTransport)(nil)

type HTTPTransport struct {
	client     *http.Client
	userAgent  string
	maxRetries uint64
	backoff    func() backoff.BackOff
}

func NewHTTPTransport(userAgent string, timeout time.Duration, maxRetries int) *HTTPTransport {
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &HTTPTransport{
		client:     &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		maxRetries: uint64(maxRetries),
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			b.Multiplier = 2
			b.MaxElapsedTime = 0
			return b
		},
	}
}

// Get issues a GET request. Caller headers take precedence over the default
// User-Agent. Network errors and 5xx responses are retried.
func (t *HTTPTransport) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var body []byte

	operation := func() error {
		data, err := t.do(ctx, url, headers)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && !statusErr.Temporary() {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		body = data
		return nil
	}

	notify := func(err error, delay time.Duration) {
		slog.Debug("Retrying source request", "url", url, "delay", delay, "error", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(t.backoff(), t.maxRetries), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, err
	}

	return body, nil
}

func (t *HTTPTransport) do(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", t.userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
