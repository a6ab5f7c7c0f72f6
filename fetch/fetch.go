// Package fetch is the network collaborator for URL-shaped specifiers.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

// DefaultTimeout bounds a single fetch when the client has none.
const DefaultTimeout = 30 * time.Second

// maxBody caps fetched module sources.
const maxBody = 32 << 20

var urlShaped = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// IsURL reports whether s looks like scheme://...
func IsURL(s string) bool {
	return urlShaped.MatchString(s)
}

// HTTP fetches module source over HTTP(S).
type HTTP struct {
	Client *http.Client
}

// NewHTTP creates a fetcher with the given timeout (0 selects DefaultTimeout).
func NewHTTP(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTP{Client: &http.Client{Timeout: timeout}}
}

// Fetch returns the body at url. Non-2xx responses are errors.
func (h *HTTP) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}
