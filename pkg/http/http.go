package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Options configure an HTTPClient.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Transport replaces the default transport when set.
	Transport http.RoundTripper
}

// HTTPClient reads small documents over plain GET requests.
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

// NewHTTPClient creates a new HTTP client.
func NewHTTPClient(opts Options) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		userAgent: opts.UserAgent,
	}
}

var _ Client = (*HTTPClient)(nil)

// ErrUnexpectedStatus is returned for any answer other than 200 OK.
var ErrUnexpectedStatus = fmt.Errorf("unexpected status code")

// Get downloads the body at rawURL.
func (hc *HTTPClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if hc.userAgent != "" {
		req.Header.Set("User-Agent", hc.userAgent)
	}

	resp, err := hc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s: %s", ErrUnexpectedStatus, rawURL, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// JoinURL appends name to the path of base.
func JoinURL(base, name string) string {
	joined, err := url.JoinPath(base, name)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(name, "/")
	}
	return joined
}
