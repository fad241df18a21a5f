// Package archive implements whole-file transfers on top of grab.
// It backs FILE mode archives and the individual resources of RAW mode.
package archive

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/cavaliergopher/grab/v3"
	"github.com/glorpus-work/gamekeep/internal/logger"
	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/fsutil"
	"github.com/glorpus-work/gamekeep/pkg/progress"
	"github.com/glorpus-work/gamekeep/pkg/transfer"
)

// Options configure a Downloader.
type Options struct {
	Concurrency  int
	Timeout      time.Duration // response header timeout; bodies may stream for hours
	UserAgent    string
	TickInterval time.Duration
}

// Downloader fetches whole files with resume support and md5 verification.
type Downloader struct {
	client      *grab.Client
	concurrency int
	tick        time.Duration
}

// NewDownloader creates a Downloader.
func NewDownloader(opts Options) *Downloader {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 100 * time.Millisecond
	}

	client := grab.NewClient()
	if opts.UserAgent != "" {
		client.UserAgent = opts.UserAgent
	}
	client.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: opts.Timeout,
		},
	}

	return &Downloader{client: client, concurrency: opts.Concurrency, tick: opts.TickInterval}
}

var _ transfer.FileDownloader = (*Downloader)(nil)

func (d *Downloader) newRequest(ctx context.Context, r transfer.FileRequest) (*grab.Request, error) {
	if r.Dest == "" || !filepath.IsAbs(r.Dest) {
		return nil, fmt.Errorf("destination must be absolute: %w: %s", pkgerrors.ErrInvalidPath, r.Dest)
	}
	if err := fsutil.EnsureFileDir(r.Dest); err != nil {
		return nil, pkgerrors.Wrap(err, "could not create download dir")
	}

	req, err := grab.NewRequest(r.Dest, r.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req = req.WithContext(ctx)

	if r.MD5 != "" {
		sum, err := hex.DecodeString(r.MD5)
		if err != nil {
			return nil, fmt.Errorf("invalid md5 %q for %s: %w", r.MD5, r.URL, err)
		}
		req.SetChecksum(md5.New(), sum, true)
	}
	return req, nil
}

// Fetch downloads a single file, ticking progress until it completes.
func (d *Downloader) Fetch(ctx context.Context, r transfer.FileRequest, progress transfer.ProgressFunc) error {
	if progress == nil {
		progress = transfer.Nop
	}
	req, err := d.newRequest(ctx, r)
	if err != nil {
		return err
	}

	resp := d.client.Do(req)

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for done := false; !done; {
		select {
		case <-ticker.C:
			progress(uint64(resp.BytesComplete()), sizeOf(resp, r.Size))
		case <-resp.Done:
			done = true
		}
	}

	if err := resp.Err(); err != nil {
		return itemError(filepath.Base(r.Dest), err)
	}
	progress(uint64(resp.BytesComplete()), sizeOf(resp, r.Size))
	return nil
}

// DownloadFiles downloads reqs with bounded concurrency. The first failure
// cancels the remaining transfers and is returned naming its file.
func (d *Downloader) DownloadFiles(ctx context.Context, reqs []transfer.FileRequest, report transfer.ProgressFunc) error {
	if len(reqs) == 0 {
		return nil
	}
	if report == nil {
		report = transfer.Nop
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var known uint64
	names := make(map[*grab.Request]string, len(reqs))
	greqs := make([]*grab.Request, 0, len(reqs))
	for _, r := range reqs {
		req, err := d.newRequest(ctx, r)
		if err != nil {
			return err
		}
		known += r.Size
		names[req] = filepath.Base(r.Dest)
		greqs = append(greqs, req)
	}

	agg := progress.NewAggregator(known, report)
	respch := d.client.DoBatch(d.concurrency, greqs...)

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	var responses []*grab.Response
	var firstErr error

	flush := func() {
		for _, resp := range responses {
			var size uint64
			if resp.Size() > 0 {
				size = uint64(resp.Size())
			}
			agg.Set(resp.Request.Filename, uint64(resp.BytesComplete()), size)
		}
		agg.Flush()
	}
	checkFailed := func() {
		if firstErr != nil {
			return
		}
		for _, resp := range responses {
			if resp.IsComplete() && resp.Err() != nil {
				firstErr = itemError(names[resp.Request], resp.Err())
				cancel()
				return
			}
		}
	}

	for respch != nil {
		select {
		case resp, ok := <-respch:
			if !ok {
				respch = nil
				continue
			}
			responses = append(responses, resp)
		case <-ticker.C:
			flush()
			checkFailed()
		}
	}

	checkFailed()
	if firstErr != nil {
		return firstErr
	}
	flush()
	current, total := agg.Snapshot()
	logger.Debug("Batch downloaded", logger.Fields{"files": len(reqs), "bytes": current, "expected": total})
	return nil
}

func sizeOf(resp *grab.Response, expected uint64) uint64 {
	if expected > 0 {
		return expected
	}
	if resp.Size() > 0 {
		return uint64(resp.Size())
	}
	return 0
}

func itemError(name string, err error) error {
	return &transfer.ItemError{Item: name, Err: fmt.Errorf("%w: %w", pkgerrors.ErrTransferFailed, err)}
}
