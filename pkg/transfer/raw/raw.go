// Package raw implements resource-list transfers: one JSON list names every
// file of a build relative to a base URL.
package raw

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/glorpus-work/gamekeep/internal/logger"
	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/fsutil"
	httpclient "github.com/glorpus-work/gamekeep/pkg/http"
	"github.com/glorpus-work/gamekeep/pkg/transfer"
)

// Resource is one entry of a resource list.
type Resource struct {
	Dest string `json:"dest"`
	MD5  string `json:"md5"`
	Size uint64 `json:"size"`
}

// ResourceList is the document served at a resource-list URL.
type ResourceList struct {
	Resources []Resource `json:"resource"`
}

// Fetcher downloads a single file.
type Fetcher interface {
	Fetch(ctx context.Context, req transfer.FileRequest, progress transfer.ProgressFunc) error
}

// Downloader fetches every resource of a list through a Fetcher.
type Downloader struct {
	fetcher Fetcher
	client  httpclient.Client
}

// NewDownloader creates a Downloader. The resource list itself is read with
// a plain request bounded by timeout; files go through fetcher.
func NewDownloader(fetcher Fetcher, timeout time.Duration, userAgent string) *Downloader {
	return &Downloader{
		fetcher: fetcher,
		client:  httpclient.NewHTTPClient(httpclient.Options{Timeout: timeout, UserAgent: userAgent}),
	}
}

var _ transfer.RawDownloader = (*Downloader)(nil)

// DownloadRaw fetches the resource list and downloads each listed file into
// req.TargetDir. Progress reports the current file's own counters.
func (d *Downloader) DownloadRaw(ctx context.Context, req transfer.RawRequest, progress transfer.ProgressFunc) error {
	if progress == nil {
		progress = transfer.Nop
	}

	list, err := d.FetchList(ctx, req.ResListURL)
	if err != nil {
		return &transfer.ItemError{Item: "resource list", Err: err}
	}

	for _, res := range list.Resources {
		name := strings.TrimLeft(res.Dest, "/")
		dest, err := fsutil.SafeJoin(req.TargetDir, name)
		if err != nil {
			return &transfer.ItemError{Item: res.Dest, Err: err}
		}

		if !req.SkipHash && fsutil.MatchesFile(dest, res.Size, res.MD5) {
			logger.Debug("Resource already up to date", logger.Fields{"resource": name})
			progress(res.Size, res.Size)
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		progress(0, res.Size)
		err = d.fetcher.Fetch(ctx, transfer.FileRequest{
			URL:  httpclient.JoinURL(req.BaseURL, name),
			Dest: dest,
			Size: res.Size,
			MD5:  res.MD5,
		}, progress)
		if err != nil {
			if _, ok := transfer.FailedItem(err); ok {
				return err
			}
			return &transfer.ItemError{Item: name, Err: err}
		}
	}
	return nil
}

// FetchList downloads and decodes a resource list.
func (d *Downloader) FetchList(ctx context.Context, url string) (*ResourceList, error) {
	body, err := d.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrTransferFailed, err)
	}

	var list ResourceList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode resource list: %w", err)
	}
	return &list, nil
}
