package transport

import (
	"context"
	"fmt"
)

// Transport retrieves the raw body of a source URL.
type Transport interface {
	Get(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d on request %s", e.StatusCode, e.URL)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500
}
