// Package http provides the plain GET client the transports share for
// small documents such as chunk manifests, chunks and resource lists.
package http

import "context"

// Client defines the interface for HTTP operations.
type Client interface {
	// Get returns the body served at rawURL. Any status other than 200
	// fails with ErrUnexpectedStatus.
	Get(ctx context.Context, rawURL string) ([]byte, error)
}
