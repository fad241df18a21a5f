//go:generate mockgen -destination=./mocks/transfer.go . FileDownloader,ChunkDownloader,RawDownloader

// Package transfer defines the byte-level transports the protocol backends
// drive. Each transport reports (current, total) byte counters through a
// ProgressFunc and names the item it failed on through ItemError.
package transfer

import (
	"context"
	"errors"
	"fmt"
)

// ProgressFunc receives byte counters. Implementations call it from the
// goroutine driving the transfer and self-throttle the tick rate.
type ProgressFunc func(current, total uint64)

// Nop discards progress.
func Nop(uint64, uint64) {}

// FileRequest describes one whole-file download.
type FileRequest struct {
	URL  string
	Dest string // absolute destination path
	Size uint64 // expected size, 0 when unknown
	MD5  string // hex digest, empty skips verification
}

// FileDownloader fetches whole files. Progress is aggregated across the batch
// against the sum of the request sizes.
type FileDownloader interface {
	DownloadFiles(ctx context.Context, reqs []FileRequest, progress ProgressFunc) error
}

// ChunkRequest describes one chunk-protocol manifest to materialise.
type ChunkRequest struct {
	ManifestURL  string
	ChunkBaseURL string
	TargetDir    string
	SkipHash     bool
}

// ChunkDownloader materialises every asset of a chunk manifest under
// TargetDir. Progress reports that manifest's own current/total.
type ChunkDownloader interface {
	DownloadChunks(ctx context.Context, req ChunkRequest, progress ProgressFunc) error
}

// RawRequest describes a resource-list driven download.
type RawRequest struct {
	BaseURL    string
	ResListURL string
	TargetDir  string
	SkipHash   bool
}

// RawDownloader fetches every resource listed at ResListURL from BaseURL.
// Progress reports the current resource's own current/total.
type RawDownloader interface {
	DownloadRaw(ctx context.Context, req RawRequest, progress ProgressFunc) error
}

// ItemError names the item a transfer failed on.
type ItemError struct {
	Item string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Item, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// FailedItem returns the item named by an ItemError in err's chain.
func FailedItem(err error) (string, bool) {
	var ie *ItemError
	if errors.As(err, &ie) {
		return ie.Item, true
	}
	return "", false
}
